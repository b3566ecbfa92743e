// Package handler はHTTPハンドラを提供する。
package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"docmigrate/internal/domain"
	"docmigrate/internal/middleware"
	"docmigrate/internal/usecase"
	"docmigrate/pkg/httputil"
)

// MigrationHandler はマイグレーション管理のHTTPハンドラを提供する。
type MigrationHandler struct {
	service *usecase.MigrationService
}

// NewMigrationHandler は新しいMigrationHandlerを生成する。
func NewMigrationHandler(service *usecase.MigrationService) *MigrationHandler {
	return &MigrationHandler{service: service}
}

// MigrationStateResponse はマイグレーション状態のレスポンス形式。
type MigrationStateResponse struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	IsApplied bool   `json:"is_applied"`
}

// MigrationListResponse はマイグレーション一覧のレスポンス形式。
type MigrationListResponse struct {
	Migrations []MigrationStateResponse `json:"migrations"`
}

// RunResponse はマイグレーション実行結果のレスポンス形式。
type RunResponse struct {
	Name      string   `json:"name"`
	Direction string   `json:"direction"`
	Force     bool     `json:"force"`
	Output    []string `json:"output"`
}

// ListMigrations は登録済みマイグレーションの適用状態を返す。
func (h *MigrationHandler) ListMigrations(w http.ResponseWriter, r *http.Request) {
	states, err := h.service.Status(r.Context())
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	response := MigrationListResponse{
		Migrations: make([]MigrationStateResponse, len(states)),
	}
	for i, s := range states {
		response.Migrations[i] = MigrationStateResponse{
			Name:      s.Name,
			Status:    string(s.Status()),
			IsApplied: s.IsApplied,
		}
	}
	httputil.JSON(w, http.StatusOK, response)
}

// Up はマイグレーションを適用する。
func (h *MigrationHandler) Up(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, domain.DirectionUp)
}

// Down はマイグレーションを取り消す。
func (h *MigrationHandler) Down(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, domain.DirectionDown)
}

// Toggle は適用状態を反転させる。
func (h *MigrationHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := domain.ValidateMigrationName(name); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_MIGRATION_NAME", "invalid migration name format")
		return
	}

	var out bytes.Buffer
	direction, err := h.service.Toggle(r.Context(), name, &out)
	audit := middleware.AuditLog{Operation: "TOGGLE_MIGRATION", Migration: name, Direction: string(direction)}
	if err != nil {
		audit.Result = middleware.AuditFailed
		middleware.WriteAuditLog(r.Context(), audit)
		writeRunError(w, err)
		return
	}

	audit.Result = middleware.AuditSuccess
	middleware.WriteAuditLog(r.Context(), audit)
	httputil.JSON(w, http.StatusOK, RunResponse{
		Name:      name,
		Direction: string(direction),
		Output:    splitLines(out.String()),
	})
}

func (h *MigrationHandler) run(w http.ResponseWriter, r *http.Request, direction domain.Direction) {
	name := chi.URLParam(r, "name")
	if err := domain.ValidateMigrationName(name); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_MIGRATION_NAME", "invalid migration name format")
		return
	}

	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			httputil.Error(w, http.StatusBadRequest, "INVALID_FORCE", "force must be a boolean")
			return
		}
		force = parsed
	}

	var out bytes.Buffer
	req := domain.RunRequest{Name: name, Direction: direction, Force: force}
	err := h.service.Run(r.Context(), req, &out)
	audit := middleware.AuditLog{
		Operation: "RUN_MIGRATION",
		Migration: name,
		Direction: string(direction),
		Force:     force,
	}
	if err != nil {
		audit.Result = middleware.AuditFailed
		middleware.WriteAuditLog(r.Context(), audit)
		writeRunError(w, err)
		return
	}

	audit.Result = middleware.AuditSuccess
	middleware.WriteAuditLog(r.Context(), audit)
	httputil.JSON(w, http.StatusOK, RunResponse{
		Name:      name,
		Direction: string(direction),
		Force:     force,
		Output:    splitLines(out.String()),
	})
}

// writeRunError は実行エラーをHTTPステータスに対応付ける。
func writeRunError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMigrationDoesNotExist):
		httputil.Error(w, http.StatusNotFound, "MIGRATION_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrCannotApply):
		httputil.Error(w, http.StatusConflict, "CANNOT_APPLY", err.Error())
	default:
		httputil.Error(w, http.StatusInternalServerError, "MIGRATION_FAILED", err.Error())
	}
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}
