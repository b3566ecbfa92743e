// Package updateaddressstructure は Company の address を単一オブジェクトに揃えるマイグレーション。
//
// 旧形式: {name: "Bob", address: [{streetFirstLine: "Lena Gardens"}]}
// 新形式: {name: "Bob", address: {streetFirstLine: "Lena Gardens"}}
package updateaddressstructure

import (
	"context"
	"fmt"

	"docmigrate/internal/domain"
)

// Name はレジストリに登録する名前。
const Name = "UpdateAddressStructure"

const (
	collection   = "Company"
	addressField = "address"
)

// Migration は address の構造を変換する。
type Migration struct{}

// New は Migration を生成する。
func New() domain.Migration {
	return Migration{}
}

// Up は要素が1つの address 配列をオブジェクトに展開する。
func (Migration) Up(ctx context.Context, db domain.Database) error {
	return rewrite(ctx, db, func(address any) (any, bool) {
		list, ok := address.([]any)
		if !ok || len(list) != 1 {
			return nil, false
		}
		if _, ok := list[0].(map[string]any); !ok {
			return nil, false
		}
		return list[0], true
	})
}

// Down はオブジェクトの address を要素が1つの配列に戻す。
func (Migration) Down(ctx context.Context, db domain.Database) error {
	return rewrite(ctx, db, func(address any) (any, bool) {
		obj, ok := address.(map[string]any)
		if !ok {
			return nil, false
		}
		return []any{obj}, true
	})
}

// rewrite は変換対象の address を持つドキュメントを _id 単位で置き換える。
// 既に変換後の形式のドキュメントはそのまま残す。
func rewrite(ctx context.Context, db domain.Database, convert func(any) (any, bool)) error {
	docs, err := db.Find(ctx, collection, domain.Filter{})
	if err != nil {
		return fmt.Errorf("finding %s documents: %w", collection, err)
	}

	for _, doc := range docs {
		converted, ok := convert(doc[addressField])
		if !ok {
			continue
		}
		id, ok := doc.ID()
		if !ok {
			return fmt.Errorf("%s document without %s", collection, domain.IDField)
		}
		doc[addressField] = converted
		if err := db.Upsert(ctx, collection, domain.Filter{domain.IDField: id}, doc); err != nil {
			return fmt.Errorf("updating %s document %v: %w", collection, id, err)
		}
	}
	return nil
}
