// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config はアプリケーション設定を表す。
type Config struct {
	Port               string
	DatabaseURL        string
	MongoURI           string
	MongoDatabase      string
	MigrationsDir      string
	StateCollection    string
	GoogleCloudProject string
	LogLevel           string

	OtelEnabled      bool
	OtelEndpoint     string
	OtelServiceName  string
	OtelSamplingRate float64
}

// Parameters はYAMLのパラメータファイルの内容。
type Parameters struct {
	MongoServer         string `yaml:"mongodb_server"`
	MongoDB             string `yaml:"mongodb_db"`
	DatabaseURL         string `yaml:"database_url"`
	MigrationsDirectory string `yaml:"migrations_directory"`
	StateCollection     string `yaml:"state_collection"`
}

// Load は環境変数から設定を読み込む。
// PARAMETERS_FILE が指定されていれば、その値で上書きする。
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		MongoURI:           os.Getenv("MONGODB_URI"),
		MongoDatabase:      getEnv("MONGODB_DATABASE", "docmigrate"),
		MigrationsDir:      getEnv("MIGRATIONS_DIR", "./migrations"),
		StateCollection:    getEnv("STATE_COLLECTION", "MigrationStates"),
		GoogleCloudProject: os.Getenv("GOOGLE_CLOUD_PROJECT"),
		LogLevel:           getEnv("LOG_LEVEL", "INFO"),
		OtelEnabled:        getEnvBool("OTEL_ENABLED", false),
		OtelEndpoint:       getEnv("OTEL_ENDPOINT", "localhost:4317"),
		OtelServiceName:    getEnv("OTEL_SERVICE_NAME", "docmigrate"),
		OtelSamplingRate:   getEnvFloat("OTEL_SAMPLING_RATE", 1.0),
	}

	if path := os.Getenv("PARAMETERS_FILE"); path != "" {
		params, err := LoadParameters(path)
		if err != nil {
			return nil, err
		}
		cfg.apply(params)
	}

	return cfg, nil
}

// LoadParameters はYAMLのパラメータファイルを読み込む。
func LoadParameters(path string) (*Parameters, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading parameters file: %w", err)
	}

	var params Parameters
	if err := yaml.Unmarshal(b, &params); err != nil {
		return nil, fmt.Errorf("parsing parameters file %s: %w", path, err)
	}
	return &params, nil
}

// apply はパラメータファイルで指定された値のみを反映する。
func (c *Config) apply(p *Parameters) {
	if p.MongoServer != "" {
		c.MongoURI = p.MongoServer
	}
	if p.MongoDB != "" {
		c.MongoDatabase = p.MongoDB
	}
	if p.DatabaseURL != "" {
		c.DatabaseURL = p.DatabaseURL
	}
	if p.MigrationsDirectory != "" {
		c.MigrationsDir = p.MigrationsDirectory
	}
	if p.StateCollection != "" {
		c.StateCollection = p.StateCollection
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return v
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultVal
	}
	return v
}
