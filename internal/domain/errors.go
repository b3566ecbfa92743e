package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMigrationDoesNotExist は指定された名前のマイグレーションが登録されていない場合のエラー。
	ErrMigrationDoesNotExist = errors.New("migration does not exist")

	// ErrCannotApply は現在の適用状態では指定方向に実行できない場合のエラー。
	ErrCannotApply = errors.New("cannot apply migration")

	// ErrInvalidDirection は実行方向が up/down 以外の場合のエラー。
	ErrInvalidDirection = errors.New("invalid direction")

	// ErrInvalidMigrationName はマイグレーション名の形式が不正な場合のエラー。
	ErrInvalidMigrationName = errors.New("invalid migration name")
)

// MigrationDoesNotExistError はマイグレーションの解決に失敗したことを表す。
// メッセージはそのまま呼び出し元に表示される。
type MigrationDoesNotExistError struct {
	Name string
	Path string
}

func (e *MigrationDoesNotExistError) Error() string {
	return fmt.Sprintf(`There is no migration called "%s" in "%s"`, e.Name, e.Path)
}

// Is は errors.Is(err, ErrMigrationDoesNotExist) を満たす。
func (e *MigrationDoesNotExistError) Is(target error) bool {
	return target == ErrMigrationDoesNotExist
}

// CannotApplyError は適用状態と実行方向の不整合を表す。
type CannotApplyError struct {
	Direction Direction
	Name      string
}

func (e *CannotApplyError) Error() string {
	if e.Direction == DirectionDown {
		return "Cannot go down - the migration is not applied yet."
	}
	return "Cannot go up - the migration is already applied."
}

// Is は errors.Is(err, ErrCannotApply) を満たす。
func (e *CannotApplyError) Is(target error) bool {
	return target == ErrCannotApply
}
