package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"docmigrate/internal/domain"
	"docmigrate/internal/registry"
	"docmigrate/internal/repository"
	"docmigrate/internal/usecase"
	"docmigrate/migrations"
)

// setupTestStore はテスト用のドキュメントストアを作成し、
// Bob の会社データと適用済みの UpdateAddressStructure を用意する。
func setupTestStore(t *testing.T) *repository.DocumentRepository {
	t.Helper()
	ctx := context.Background()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	store := repository.NewDocumentRepository(db)
	if err := store.AutoMigrate(ctx); err != nil {
		t.Fatalf("failed to create documents table: %v", err)
	}

	company := domain.Document{"name": "Bob", "address": map[string]any{"streetFirstLine": "Lena Gardens"}}
	if err := store.Upsert(ctx, "Company", domain.Filter{}, company); err != nil {
		t.Fatalf("failed to seed company: %v", err)
	}
	if err := repository.NewStateRepository(store, "").SetStatus(ctx, "UpdateAddressStructure", true); err != nil {
		t.Fatalf("failed to seed migration state: %v", err)
	}
	return store
}

func testOpener(store *repository.DocumentRepository) serviceOpener {
	return func(ctx context.Context) (*usecase.MigrationService, func(context.Context), error) {
		reg := registry.New("resources/examples")
		migrations.Register(reg)
		states := repository.NewStateRepository(store, "")
		return usecase.NewMigrationService(reg, states, store), func(context.Context) {}, nil
	}
}

// execute はコマンドを実行し、標準出力の内容を返す。
func execute(t *testing.T, open serviceOpener, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDownCommand(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	// 実行前は address 直下に住所がある
	doc, err := store.FindOne(ctx, "Company", domain.Filter{"name": "Bob"})
	if err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}
	if got, _ := domain.Lookup(doc, "address.streetFirstLine"); got != "Lena Gardens" {
		t.Fatalf("unexpected initial address: %#v", doc["address"])
	}

	out, err := execute(t, testOpener(store), "down", "UpdateAddressStructure")
	if err != nil {
		t.Fatalf("down failed: %v", err)
	}
	if out != "Migrating down... UpdateAddressStructure\nMigrated down\n" {
		t.Errorf("output = %q", out)
	}

	// 実行後は address が住所の配列になる
	doc, err = store.FindOne(ctx, "Company", domain.Filter{"name": "Bob"})
	if err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}
	if _, ok := doc["address"].([]any); !ok {
		t.Fatalf("expected address to be a list, got %#v", doc["address"])
	}
	if got, _ := domain.Lookup(doc, "address.0.streetFirstLine"); got != "Lena Gardens" {
		t.Errorf("address.0.streetFirstLine = %v", got)
	}
}

func TestDownCommand_MigrationDoesNotExist(t *testing.T) {
	store := setupTestStore(t)

	_, err := execute(t, testOpener(store), "down", "Elvis")
	if !errors.Is(err, domain.ErrMigrationDoesNotExist) {
		t.Fatalf("expected ErrMigrationDoesNotExist, got %v", err)
	}
	want := `There is no migration called "Elvis" in "` + filepath.Join("resources/examples", "Elvis", "migration.go") + `"`
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestDownCommand_CannotApply(t *testing.T) {
	store := setupTestStore(t)
	open := testOpener(store)

	out, err := execute(t, open, "down", "UpdateAddressStructure")
	if err != nil {
		t.Fatalf("down failed: %v", err)
	}
	if !strings.Contains(out, "Migrated down") {
		t.Errorf("output = %q", out)
	}

	_, err = execute(t, open, "down", "UpdateAddressStructure")
	if !errors.Is(err, domain.ErrCannotApply) {
		t.Fatalf("expected ErrCannotApply, got %v", err)
	}
	if err.Error() != "Cannot go down - the migration is not applied yet." {
		t.Errorf("error = %q", err.Error())
	}
}

func TestDownCommand_ForceApply(t *testing.T) {
	store := setupTestStore(t)
	open := testOpener(store)

	out, err := execute(t, open, "down", "UpdateAddressStructure")
	if err != nil {
		t.Fatalf("down failed: %v", err)
	}
	if !strings.Contains(out, "Migrated down") {
		t.Errorf("output = %q", out)
	}

	out, err = execute(t, open, "down", "UpdateAddressStructure", "-f")
	if err != nil {
		t.Fatalf("forced down failed: %v", err)
	}
	if !strings.Contains(out, "Migrated down") {
		t.Errorf("output = %q", out)
	}
}

func TestUpCommand_AlreadyApplied(t *testing.T) {
	store := setupTestStore(t)

	_, err := execute(t, testOpener(store), "up", "UpdateAddressStructure")
	if err == nil || err.Error() != "Cannot go up - the migration is already applied." {
		t.Fatalf("expected cannot apply error, got %v", err)
	}
}

func TestToggleAndListCommands(t *testing.T) {
	store := setupTestStore(t)
	open := testOpener(store)

	out, err := execute(t, open, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "UpdateAddressStructure") || !strings.Contains(out, "applied") {
		t.Errorf("list output = %q", out)
	}

	out, err = execute(t, open, "toggle", "UpdateAddressStructure")
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if out != "Migrating down... UpdateAddressStructure\nMigrated down\n" {
		t.Errorf("toggle output = %q", out)
	}

	out, err = execute(t, open, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "pending") {
		t.Errorf("list output = %q", out)
	}
}

func TestUpAllCommand(t *testing.T) {
	store := setupTestStore(t)
	open := testOpener(store)

	out, err := execute(t, open, "up-all")
	if err != nil {
		t.Fatalf("up-all failed: %v", err)
	}
	if out != "No pending migrations.\n" {
		t.Errorf("output = %q", out)
	}

	if _, err := execute(t, open, "down", "UpdateAddressStructure"); err != nil {
		t.Fatalf("down failed: %v", err)
	}
	out, err = execute(t, open, "up-all")
	if err != nil {
		t.Fatalf("up-all failed: %v", err)
	}
	want := "Migrating up... UpdateAddressStructure\nMigrated\nApplied 1 migration(s) successfully.\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestRunCommand_RequiresName(t *testing.T) {
	store := setupTestStore(t)
	if _, err := execute(t, testOpener(store), "down"); err == nil {
		t.Error("expected error when name is missing")
	}
}
