// Package main はマイグレーション管理APIサーバーのエントリポイント。
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docmigrate/config"
	"docmigrate/internal/handler"
	"docmigrate/internal/infra"
	"docmigrate/internal/registry"
	"docmigrate/internal/repository"
	"docmigrate/internal/usecase"
	"docmigrate/migrations"
)

const version = "1.0.0"

func main() {
	ctx := context.Background()

	// .envファイルを読み込む（存在しない場合は無視）
	// 既存の環境変数は上書きしない
	_ = godotenv.Load()

	// 設定読み込み
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// トレース情報付きロガーを設定
	infra.SetupLogger(cfg, os.Stdout)

	tp, err := infra.InitTracer(ctx, cfg, version)
	if err != nil {
		slog.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	if tp != nil {
		defer func() {
			if err := tp.Shutdown(ctx); err != nil {
				slog.Error("failed to shutdown tracer", "error", err)
			}
		}()
	}

	// ドキュメントストア初期化
	db, closeDB, err := infra.OpenDatabase(ctx, cfg)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeDB(ctx); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	// DI
	reg := registry.New(cfg.MigrationsDir)
	migrations.Register(reg)
	states := repository.NewStateRepository(db, cfg.StateCollection)
	service := usecase.NewMigrationService(reg, states, db)
	h := handler.NewMigrationHandler(service)
	router := handler.NewRouter(h)

	// サーバー起動
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: otelhttp.NewHandler(router, "docmigrate"),
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("starting server", "port", cfg.Port, "migrations", len(reg.Names()))
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
