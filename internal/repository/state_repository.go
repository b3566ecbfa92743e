package repository

import (
	"context"
	"fmt"
	"log/slog"

	"docmigrate/internal/domain"
)

// DefaultStateCollection は状態レコードを保持するコレクションの既定名。
const DefaultStateCollection = "MigrationStates"

const (
	stateNameField    = "name"
	stateAppliedField = "isApplied"
)

// StateRepository はマイグレーションの適用状態を管理するリポジトリ。
// 1つの名前につき1ドキュメントのみを保持する。
type StateRepository struct {
	db         domain.Database
	collection string
}

// NewStateRepository は新しいStateRepositoryを生成する。
func NewStateRepository(db domain.Database, collection string) *StateRepository {
	if collection == "" {
		collection = DefaultStateCollection
	}
	return &StateRepository{db: db, collection: collection}
}

// GetStatus はマイグレーションが適用済みか返す。レコードがなければ未適用とみなす。
func (r *StateRepository) GetStatus(ctx context.Context, name string) (bool, error) {
	doc, err := r.db.FindOne(ctx, r.collection, domain.Filter{stateNameField: name})
	if err != nil {
		slog.ErrorContext(ctx, "failed to get migration status",
			"operation", "get_status",
			"name", name,
			"error", err,
		)
		return false, fmt.Errorf("reading migration state: %w", err)
	}
	if doc == nil {
		return false, nil
	}
	applied, _ := doc[stateAppliedField].(bool)
	return applied, nil
}

// SetStatus は適用状態を名前で upsert する。
func (r *StateRepository) SetStatus(ctx context.Context, name string, isApplied bool) error {
	err := r.db.Upsert(ctx, r.collection,
		domain.Filter{stateNameField: name},
		domain.Document{stateNameField: name, stateAppliedField: isApplied},
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to set migration status",
			"operation", "set_status",
			"name", name,
			"is_applied", isApplied,
			"error", err,
		)
		return fmt.Errorf("writing migration state: %w", err)
	}
	return nil
}

// FindAll は記録済みの全状態レコードを取得する。
func (r *StateRepository) FindAll(ctx context.Context) ([]domain.MigrationState, error) {
	docs, err := r.db.Find(ctx, r.collection, domain.Filter{})
	if err != nil {
		slog.ErrorContext(ctx, "failed to find migration states",
			"operation", "find_all",
			"error", err,
		)
		return nil, fmt.Errorf("reading migration states: %w", err)
	}

	states := make([]domain.MigrationState, 0, len(docs))
	for _, doc := range docs {
		name, _ := doc[stateNameField].(string)
		applied, _ := doc[stateAppliedField].(bool)
		states = append(states, domain.MigrationState{Name: name, IsApplied: applied})
	}
	return states, nil
}
