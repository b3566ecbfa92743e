package updateaddressstructure

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"docmigrate/internal/domain"
	"docmigrate/internal/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestStore(t *testing.T) *repository.DocumentRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	store := repository.NewDocumentRepository(db)
	if err := store.AutoMigrate(context.Background()); err != nil {
		t.Fatalf("failed to create documents table: %v", err)
	}
	return store
}

func TestMigration_DownWrapsAddressIntoList(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	seed := domain.Document{"name": "Bob", "address": map[string]any{"streetFirstLine": "Lena Gardens"}}
	if err := store.Upsert(ctx, collection, domain.Filter{"name": "Bob"}, seed); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	if err := New().Down(ctx, store); err != nil {
		t.Fatalf("Down failed: %v", err)
	}

	doc, err := store.FindOne(ctx, collection, domain.Filter{"name": "Bob"})
	if err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}
	list, ok := doc[addressField].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("expected one-element address list, got %#v", doc[addressField])
	}
	if got, _ := domain.Lookup(doc, "address.0.streetFirstLine"); got != "Lena Gardens" {
		t.Errorf("address.0.streetFirstLine = %v, want Lena Gardens", got)
	}
}

func TestMigration_UpRestoresObject(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	seed := []domain.Document{
		{"name": "Bob", "address": []any{map[string]any{"streetFirstLine": "Lena Gardens"}}},
		{"name": "Alice", "address": map[string]any{"streetFirstLine": "Already Migrated"}},
		{"name": "Carol", "address": []any{
			map[string]any{"streetFirstLine": "First"},
			map[string]any{"streetFirstLine": "Second"},
		}},
	}
	for _, doc := range seed {
		if err := store.Upsert(ctx, collection, domain.Filter{"name": doc["name"]}, doc); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}
	}

	if err := New().Up(ctx, store); err != nil {
		t.Fatalf("Up failed: %v", err)
	}

	bob, _ := store.FindOne(ctx, collection, domain.Filter{"name": "Bob"})
	if got, _ := domain.Lookup(bob, "address.streetFirstLine"); got != "Lena Gardens" {
		t.Errorf("Bob address = %#v", bob[addressField])
	}

	alice, _ := store.FindOne(ctx, collection, domain.Filter{"name": "Alice"})
	if got, _ := domain.Lookup(alice, "address.streetFirstLine"); got != "Already Migrated" {
		t.Errorf("Alice address = %#v", alice[addressField])
	}

	// 複数住所は変換対象外
	carol, _ := store.FindOne(ctx, collection, domain.Filter{"name": "Carol"})
	if list, ok := carol[addressField].([]any); !ok || len(list) != 2 {
		t.Errorf("Carol address = %#v", carol[addressField])
	}
}

func TestMigration_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	original := map[string]any{"streetFirstLine": "Lena Gardens"}
	if err := store.Upsert(ctx, collection, domain.Filter{"name": "Bob"}, domain.Document{"name": "Bob", "address": original}); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	m := New()
	if err := m.Down(ctx, store); err != nil {
		t.Fatalf("Down failed: %v", err)
	}
	if err := m.Up(ctx, store); err != nil {
		t.Fatalf("Up failed: %v", err)
	}

	doc, _ := store.FindOne(ctx, collection, domain.Filter{"name": "Bob"})
	if !domain.ValuesEqual(doc[addressField], original) {
		t.Errorf("address = %#v, want %#v", doc[addressField], original)
	}
}

func TestMigration_RoundTripKeepsUntouchedFields(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	const accountNo int64 = 9007199254740993
	seed := domain.Document{
		"name":      "Bob",
		"accountNo": accountNo,
		"address":   map[string]any{"streetFirstLine": "Lena Gardens"},
	}
	if err := store.Upsert(ctx, collection, domain.Filter{"name": "Bob"}, seed); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	m := New()
	if err := m.Down(ctx, store); err != nil {
		t.Fatalf("Down failed: %v", err)
	}
	if err := m.Up(ctx, store); err != nil {
		t.Fatalf("Up failed: %v", err)
	}

	doc, err := store.FindOne(ctx, collection, domain.Filter{"accountNo": accountNo})
	if err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}
	if doc == nil {
		t.Fatalf("accountNo %d was not preserved", accountNo)
	}
	if got := fmt.Sprint(doc["accountNo"]); got != "9007199254740993" {
		t.Errorf("accountNo = %s, want 9007199254740993", got)
	}
}
