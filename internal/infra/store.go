package infra

import (
	"context"
	"errors"
	"fmt"

	"docmigrate/config"
	"docmigrate/internal/domain"
	"docmigrate/internal/repository"
)

// ErrNoDatabaseConfigured はドキュメントストアの接続先が未設定の場合のエラー。
var ErrNoDatabaseConfigured = errors.New("MONGODB_URI or DATABASE_URL is required")

// CloseFunc はドキュメントストアの接続を閉じる。
type CloseFunc func(ctx context.Context) error

// OpenDatabase は設定に応じたドキュメントストアを開く。
// MONGODB_URI が設定されていればMongoDBを、なければ DATABASE_URL のSQLデータベースを使う。
func OpenDatabase(ctx context.Context, cfg *config.Config) (domain.Database, CloseFunc, error) {
	if cfg.MongoURI != "" {
		store, err := NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}

	if cfg.DatabaseURL == "" {
		return nil, nil, ErrNoDatabaseConfigured
	}

	db, err := NewDB(cfg.DatabaseURL, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}

	store := repository.NewDocumentRepository(db)
	if err := store.AutoMigrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to prepare documents table: %w", err)
	}

	return store, func(context.Context) error { return sqlDB.Close() }, nil
}
