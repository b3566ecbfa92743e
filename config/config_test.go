package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_URL", "MONGODB_URI", "MIGRATIONS_DIR", "STATE_COLLECTION", "OTEL_ENABLED", "OTEL_SAMPLING_RATE", "PARAMETERS_FILE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.MigrationsDir != "./migrations" {
		t.Errorf("MigrationsDir = %q", cfg.MigrationsDir)
	}
	if cfg.StateCollection != "MigrationStates" {
		t.Errorf("StateCollection = %q", cfg.StateCollection)
	}
	if cfg.OtelEnabled {
		t.Error("expected OtelEnabled to default to false")
	}
	if cfg.OtelSamplingRate != 1.0 {
		t.Errorf("OtelSamplingRate = %v, want 1.0", cfg.OtelSamplingRate)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PARAMETERS_FILE", "")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLING_RATE", "0.25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MongoURI != "mongodb://localhost:27017" {
		t.Errorf("MongoURI = %q", cfg.MongoURI)
	}
	if !cfg.OtelEnabled || cfg.OtelSamplingRate != 0.25 {
		t.Errorf("unexpected otel settings: %v %v", cfg.OtelEnabled, cfg.OtelSamplingRate)
	}
}

func TestLoad_ParametersFileOverridesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parameters.yml")
	content := "mongodb_server: mongodb://db:27017\nmongodb_db: app\nmigrations_directory: resources/examples\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write parameters file: %v", err)
	}
	t.Setenv("PARAMETERS_FILE", path)
	t.Setenv("MONGODB_URI", "mongodb://ignored:27017")
	t.Setenv("STATE_COLLECTION", "FromEnv")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MongoURI != "mongodb://db:27017" {
		t.Errorf("MongoURI = %q", cfg.MongoURI)
	}
	if cfg.MongoDatabase != "app" {
		t.Errorf("MongoDatabase = %q", cfg.MongoDatabase)
	}
	if cfg.MigrationsDir != "resources/examples" {
		t.Errorf("MigrationsDir = %q", cfg.MigrationsDir)
	}
	// ファイルで未指定の値は環境変数のまま
	if cfg.StateCollection != "FromEnv" {
		t.Errorf("StateCollection = %q", cfg.StateCollection)
	}
}

func TestLoadParameters_Errors(t *testing.T) {
	if _, err := LoadParameters(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "broken.yml")
	if err := os.WriteFile(path, []byte("mongodb_server: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := LoadParameters(path); err == nil {
		t.Error("expected error for malformed file")
	}
}
