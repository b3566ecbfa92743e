package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter はルーターを生成する。
func NewRouter(h *MigrationHandler) http.Handler {
	r := chi.NewRouter()

	// ミドルウェア
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)

	r.Handle("/metrics", promhttp.Handler())

	// ルート定義
	r.Route("/v1/migrations", func(r chi.Router) {
		r.Get("/", h.ListMigrations)
		r.Post("/{name}/up", h.Up)
		r.Post("/{name}/down", h.Down)
		r.Post("/{name}/toggle", h.Toggle)
	})

	return r
}
