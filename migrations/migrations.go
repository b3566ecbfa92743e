// Package migrations は組み込みのマイグレーションを登録する。
// 新しいマイグレーションは <Name>/migration.go に定義し、ここに追加する。
package migrations

import (
	updateaddressstructure "docmigrate/migrations/UpdateAddressStructure"

	"docmigrate/internal/registry"
)

// Register は全マイグレーションを適用順に登録する。
func Register(r *registry.Registry) {
	r.Register(updateaddressstructure.Name, updateaddressstructure.New)
}
