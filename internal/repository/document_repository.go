// Package repository はデータアクセス層の実装を提供する。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"docmigrate/internal/domain"
)

// DocumentModel はdocumentsテーブルのモデル。
// 1行が1ドキュメントで、本文はJSONで保持する。
type DocumentModel struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	Collection string    `gorm:"type:varchar(128);not null;index:idx_collection"`
	Body       string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime"`
}

// TableName はテーブル名を指定。
func (DocumentModel) TableName() string {
	return "documents"
}

// BeforeCreate はレコード作成前にUUIDを生成する。
func (m *DocumentModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// toDomain はモデルをドキュメントに変換する。_id には行のIDを設定する。
// 数値は json.Number のまま保持し、書き戻しで精度を落とさない。
func (m *DocumentModel) toDomain() (domain.Document, error) {
	doc := domain.Document{}
	dec := json.NewDecoder(strings.NewReader(m.Body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding document %s: %w", m.ID, err)
	}
	doc[domain.IDField] = m.ID
	return doc, nil
}

// encodeBody は _id を除いたドキュメント本文をJSONに変換する。
func encodeBody(doc domain.Document) (string, error) {
	body := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == domain.IDField {
			continue
		}
		body[k] = v
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encoding document: %w", err)
	}
	return string(b), nil
}

// DocumentRepository はgorm上にドキュメントストアを実装する。
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository は新しいDocumentRepositoryを生成する。
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// AutoMigrate はdocumentsテーブルを作成する。
func (r *DocumentRepository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&DocumentModel{}); err != nil {
		slog.ErrorContext(ctx, "failed to migrate documents table",
			"operation", "auto_migrate",
			"error", err,
		)
		return err
	}
	return nil
}

// FindOne は条件に一致する最初のドキュメントを取得する。
func (r *DocumentRepository) FindOne(ctx context.Context, collection string, filter domain.Filter) (domain.Document, error) {
	_, doc, err := r.findFirst(ctx, r.db, collection, filter)
	if err != nil {
		slog.ErrorContext(ctx, "failed to find document",
			"operation", "find_one",
			"collection", collection,
			"error", err,
		)
		return nil, err
	}
	return doc, nil
}

// Find は条件に一致する全ドキュメントを作成順に取得する。
func (r *DocumentRepository) Find(ctx context.Context, collection string, filter domain.Filter) ([]domain.Document, error) {
	models, err := r.scan(ctx, r.db, collection)
	if err != nil {
		slog.ErrorContext(ctx, "failed to find documents",
			"operation", "find",
			"collection", collection,
			"error", err,
		)
		return nil, err
	}

	var docs []domain.Document
	for i := range models {
		doc, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		if domain.Matches(doc, filter) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Upsert は条件に一致する最初のドキュメントを置き換え、なければ挿入する。
func (r *DocumentRepository) Upsert(ctx context.Context, collection string, filter domain.Filter, doc domain.Document) error {
	body, err := encodeBody(doc)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, _, err := r.findFirst(ctx, tx, collection, filter)
		if err != nil {
			return err
		}

		if existing != nil {
			return tx.Model(&DocumentModel{}).
				Where("id = ?", existing.ID).
				Update("body", body).Error
		}

		model := &DocumentModel{
			Collection: collection,
			Body:       body,
		}
		if id, ok := doc.ID(); ok {
			if s, ok := id.(string); ok {
				model.ID = s
			}
		}
		return tx.Create(model).Error
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to upsert document",
			"operation", "upsert",
			"collection", collection,
			"error", err,
		)
		return err
	}
	return nil
}

// findFirst はフィルタに一致する最初の行とそのドキュメントを返す。
func (r *DocumentRepository) findFirst(ctx context.Context, db *gorm.DB, collection string, filter domain.Filter) (*DocumentModel, domain.Document, error) {
	models, err := r.scan(ctx, db, collection)
	if err != nil {
		return nil, nil, err
	}
	for i := range models {
		doc, err := models[i].toDomain()
		if err != nil {
			return nil, nil, err
		}
		if domain.Matches(doc, filter) {
			return &models[i], doc, nil
		}
	}
	return nil, nil, nil
}

func (r *DocumentRepository) scan(ctx context.Context, db *gorm.DB, collection string) ([]DocumentModel, error) {
	var models []DocumentModel
	err := db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return models, nil
}
