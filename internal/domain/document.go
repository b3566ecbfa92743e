package domain

import (
	"context"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// IDField はドキュメントの識別子フィールド名。
const IDField = "_id"

// Document はドキュメントストアの1レコードを表す。
// ネストしたオブジェクトは map[string]any、配列は []any で表現する。
type Document map[string]any

// Filter はドキュメント検索の等価条件。キーはドット区切りのパスを許容する。
// 空の Filter は全ドキュメントに一致する。
type Filter map[string]any

// Database はマイグレーションと状態ストアが利用するドキュメントストアのインターフェース。
type Database interface {
	// FindOne は条件に一致する最初のドキュメントを返す。存在しない場合は nil, nil を返す。
	FindOne(ctx context.Context, collection string, filter Filter) (Document, error)
	// Find は条件に一致する全ドキュメントを返す。
	Find(ctx context.Context, collection string, filter Filter) ([]Document, error)
	// Upsert は条件に一致する最初のドキュメントを doc で置き換える。一致しない場合は doc を挿入する。
	Upsert(ctx context.Context, collection string, filter Filter, doc Document) error
}

// ID はドキュメントの識別子を返す。
func (d Document) ID() (any, bool) {
	id, ok := d[IDField]
	return id, ok
}

// Lookup はドット区切りのパスでドキュメント内の値を取得する。
// 配列要素は数値のセグメントで参照できる（例: "address.0.streetFirstLine"）。
func Lookup(doc Document, path string) (any, bool) {
	var cur any = map[string]any(doc)
	for _, seg := range strings.Split(path, ".") {
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case Document:
			next, ok := v[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(v) {
				return nil, false
			}
			cur = v[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Matches はドキュメントがフィルタの全条件を満たすかを判定する。
// nil を指定した条件はフィールドが存在しない場合にも一致する。
func Matches(doc Document, filter Filter) bool {
	for path, want := range filter {
		got, ok := Lookup(doc, path)
		if want == nil {
			if ok && got != nil {
				return false
			}
			continue
		}
		if !ok || !ValuesEqual(got, want) {
			return false
		}
	}
	return true
}

// ValuesEqual はドキュメント値を比較する。数値は型によらず値で比較する。
// 両方が整数で表せる場合は float64 を経由せずに比較する。
func ValuesEqual(a, b any) bool {
	if ia, ok := toInt(a); ok {
		if ib, ok := toInt(b); ok {
			return ia == ib
		}
	}
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	if ma, ok := asMap(a); ok {
		mb, ok := asMap(b)
		if !ok || len(ma) != len(mb) {
			return false
		}
		for k, va := range ma {
			vb, ok := mb[k]
			if !ok || !ValuesEqual(va, vb) {
				return false
			}
		}
		return true
	}
	if sa, ok := a.([]any); ok {
		sb, ok := b.([]any)
		if !ok || len(sa) != len(sb) {
			return false
		}
		for i := range sa {
			if !ValuesEqual(sa[i], sb[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Document:
		return m, true
	case Filter:
		return m, true
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// toInt は値が int64 で正確に表せる場合にその値を返す。
func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}
