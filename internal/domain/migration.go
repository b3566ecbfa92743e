// Package domain はドメインモデルとビジネスルールを定義する。
package domain

import (
	"context"
	"fmt"
	"regexp"
)

// Direction はマイグレーションの実行方向を表す。
type Direction string

const (
	// DirectionUp はマイグレーションの適用を表す。
	DirectionUp Direction = "up"
	// DirectionDown はマイグレーションの取り消しを表す。
	DirectionDown Direction = "down"
)

// ParseDirection は文字列から実行方向を解析する。
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionUp, DirectionDown:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// MigrationStatus はマイグレーションの適用状態を表す
type MigrationStatus string

const (
	MigrationStatusPending MigrationStatus = "pending"
	MigrationStatusApplied MigrationStatus = "applied"
)

// StatusOf は適用フラグを適用状態に変換する。
func StatusOf(isApplied bool) MigrationStatus {
	if isApplied {
		return MigrationStatusApplied
	}
	return MigrationStatusPending
}

// Migration は名前で識別されるデータ変換単位。
// Up/Down は対象データベースに対して任意の読み書きを行う。
type Migration interface {
	Up(ctx context.Context, db Database) error
	Down(ctx context.Context, db Database) error
}

// MaxMigrationNameLength はマイグレーション名の最大長。
const MaxMigrationNameLength = 128

var migrationNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateMigrationName はマイグレーション名が英数字とアンダースコアのみで構成されているか検証する。
func ValidateMigrationName(name string) error {
	if len(name) > MaxMigrationNameLength || !migrationNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidMigrationName, name)
	}
	return nil
}

// MigrationState はマイグレーションごとの永続化された状態を表す。
type MigrationState struct {
	Name      string
	IsApplied bool
}

// Status は状態レコードの適用状態を返す。
func (s MigrationState) Status() MigrationStatus {
	return StatusOf(s.IsApplied)
}

// RunRequest は1回のマイグレーション実行要求（永続化しない）。
type RunRequest struct {
	Name      string
	Direction Direction
	Force     bool
}
