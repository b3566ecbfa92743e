// Package registry はマイグレーション名から実行単位を解決する。
package registry

import (
	"fmt"
	"path/filepath"
	"sync"

	"docmigrate/internal/domain"
)

// SourceFileName はマイグレーションごとの定義ファイル名。
const SourceFileName = "migration.go"

// Factory はマイグレーション実行単位を生成する。
type Factory func() domain.Migration

// Registry は名前とファクトリの対応を登録順に保持する。
type Registry struct {
	mu        sync.RWMutex
	root      string
	names     []string
	factories map[string]Factory
}

// New は migrationsDir をルートとする空の Registry を生成する。
func New(migrationsDir string) *Registry {
	return &Registry{
		root:      migrationsDir,
		factories: make(map[string]Factory),
	}
}

// Register はマイグレーションを登録する。
// 名前の形式が不正な場合や重複登録はプログラムの誤りのため panic する。
func (r *Registry) Register(name string, factory Factory) {
	if err := domain.ValidateMigrationName(name); err != nil {
		panic(fmt.Sprintf("registry: %v", err))
	}
	if factory == nil {
		panic(fmt.Sprintf("registry: nil factory for migration %q", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("registry: migration %q registered twice", name))
	}
	r.factories[name] = factory
	r.names = append(r.names, name)
}

// Resolve は名前に対応するマイグレーションを生成する。
// 未登録の場合は *domain.MigrationDoesNotExistError を返す。
func (r *Registry) Resolve(name string) (domain.Migration, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &domain.MigrationDoesNotExistError{Name: name, Path: r.SourcePath(name)}
	}
	return factory(), nil
}

// SourcePath はマイグレーション定義ファイルの規約上のパスを返す。
func (r *Registry) SourcePath(name string) string {
	return filepath.Join(r.root, name, SourceFileName)
}

// Names は登録済みのマイグレーション名を登録順に返す。
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}
