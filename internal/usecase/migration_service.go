// Package usecase はアプリケーションのユースケースを実装する。
//
// MigrationService は名前で指定されたマイグレーションを up/down 方向に実行し、
// 適用状態を記録する。force 指定時は適用状態の検証のみを省略する。
// 適用済みのマイグレーションに force で Up を指定すると Up が再実行されるため、
// 実行単位が再実行に耐えるかどうかは運用者が判断すること。
package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"docmigrate/internal/domain"
	"docmigrate/internal/metrics"
)

var tracer = otel.Tracer("docmigrate/internal/usecase")

// MigrationRegistry はマイグレーション名を実行単位に解決するインターフェース。
type MigrationRegistry interface {
	Resolve(name string) (domain.Migration, error)
	Names() []string
}

// StateRepository はマイグレーションの適用状態を管理するリポジトリのインターフェース。
type StateRepository interface {
	GetStatus(ctx context.Context, name string) (bool, error)
	SetStatus(ctx context.Context, name string, isApplied bool) error
	FindAll(ctx context.Context) ([]domain.MigrationState, error)
}

// MigrationService はマイグレーション実行のビジネスロジックを提供する。
type MigrationService struct {
	registry MigrationRegistry
	states   StateRepository
	db       domain.Database
}

// NewMigrationService は新しいMigrationServiceを生成する。
func NewMigrationService(registry MigrationRegistry, states StateRepository, db domain.Database) *MigrationService {
	return &MigrationService{
		registry: registry,
		states:   states,
		db:       db,
	}
}

// Run は1件のマイグレーションを指定方向に実行する。
// 開始時と完了時にそれぞれ1行ずつ out に出力する。
// 実行単位が返したエラーはそのまま返し、適用状態は変更しない。
func (s *MigrationService) Run(ctx context.Context, req domain.RunRequest, out io.Writer) (err error) {
	ctx, span := tracer.Start(ctx, "MigrationService.Run", trace.WithAttributes(
		attribute.String("migration.name", req.Name),
		attribute.String("migration.direction", string(req.Direction)),
		attribute.Bool("migration.force", req.Force),
	))
	start := time.Now()
	result := metrics.ResultStateError
	defer func() {
		metrics.ObserveRun(string(req.Direction), result)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if _, err := domain.ParseDirection(string(req.Direction)); err != nil {
		result = metrics.ResultRejected
		return err
	}

	migration, err := s.registry.Resolve(req.Name)
	if err != nil {
		result = metrics.ResultNotFound
		return err
	}

	applied, err := s.states.GetStatus(ctx, req.Name)
	if err != nil {
		return err
	}

	if !req.Force {
		if err := checkTransition(req, applied); err != nil {
			result = metrics.ResultRejected
			slog.WarnContext(ctx, "migration rejected",
				"operation", "run",
				"name", req.Name,
				"direction", req.Direction,
				"is_applied", applied,
			)
			return err
		}
	}

	fmt.Fprintf(out, "%s %s\n", startedMessage(req.Direction), req.Name)
	slog.InfoContext(ctx, "running migration",
		"operation", "run",
		"name", req.Name,
		"direction", req.Direction,
		"force", req.Force,
		"is_applied", applied,
	)

	unitStart := time.Now()
	err = execute(ctx, migration, req.Direction, s.db)
	metrics.ObserveUnit(string(req.Direction), time.Since(unitStart))
	if err != nil {
		result = metrics.ResultFailed
		slog.ErrorContext(ctx, "migration unit failed",
			"operation", "run",
			"name", req.Name,
			"direction", req.Direction,
			"error", err,
		)
		return err
	}

	if err := s.states.SetStatus(ctx, req.Name, req.Direction == domain.DirectionUp); err != nil {
		return err
	}

	fmt.Fprintln(out, completedMessage(req.Direction))
	result = metrics.ResultMigrated
	slog.InfoContext(ctx, "migration completed",
		"operation", "run",
		"name", req.Name,
		"direction", req.Direction,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Toggle は適用済みなら down、未適用なら up を実行する。
func (s *MigrationService) Toggle(ctx context.Context, name string, out io.Writer) (domain.Direction, error) {
	if _, err := s.registry.Resolve(name); err != nil {
		return "", err
	}

	applied, err := s.states.GetStatus(ctx, name)
	if err != nil {
		return "", err
	}

	direction := domain.DirectionUp
	if applied {
		direction = domain.DirectionDown
	}
	return direction, s.Run(ctx, domain.RunRequest{Name: name, Direction: direction}, out)
}

// Status は登録済みの全マイグレーションの適用状態を登録順に返す。
// 状態レコードは1回の検索でまとめて取得し、記録のない名前は未適用とする。
// 登録されていない名前の状態レコードは含めない。
func (s *MigrationService) Status(ctx context.Context) ([]domain.MigrationState, error) {
	recorded, err := s.states.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	applied := make(map[string]bool, len(recorded))
	for _, r := range recorded {
		applied[r.Name] = r.IsApplied
	}

	names := s.registry.Names()
	states := make([]domain.MigrationState, 0, len(names))
	for _, name := range names {
		states = append(states, domain.MigrationState{Name: name, IsApplied: applied[name]})
	}
	return states, nil
}

// UpAll は未適用のマイグレーションを登録順に1件ずつ適用する。
// 最初のエラーで停止し、それまでに適用した件数を返す。
func (s *MigrationService) UpAll(ctx context.Context, out io.Writer) (int, error) {
	states, err := s.Status(ctx)
	if err != nil {
		return 0, err
	}

	appliedCount := 0
	for _, state := range states {
		if state.IsApplied {
			continue
		}
		req := domain.RunRequest{Name: state.Name, Direction: domain.DirectionUp}
		if err := s.Run(ctx, req, out); err != nil {
			return appliedCount, err
		}
		appliedCount++
	}
	return appliedCount, nil
}

// checkTransition は現在の適用状態で指定方向に実行できるか検証する。
func checkTransition(req domain.RunRequest, applied bool) error {
	switch {
	case req.Direction == domain.DirectionUp && applied:
		return &domain.CannotApplyError{Direction: req.Direction, Name: req.Name}
	case req.Direction == domain.DirectionDown && !applied:
		return &domain.CannotApplyError{Direction: req.Direction, Name: req.Name}
	}
	return nil
}

func execute(ctx context.Context, m domain.Migration, direction domain.Direction, db domain.Database) error {
	if direction == domain.DirectionDown {
		return m.Down(ctx, db)
	}
	return m.Up(ctx, db)
}

func startedMessage(direction domain.Direction) string {
	if direction == domain.DirectionDown {
		return "Migrating down..."
	}
	return "Migrating up..."
}

func completedMessage(direction domain.Direction) string {
	if direction == domain.DirectionDown {
		return "Migrated down"
	}
	return "Migrated"
}
