// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"time"
)

// 監査ログの結果値。
const (
	AuditSuccess = "SUCCESS"
	AuditFailed  = "FAILED"
)

// AuditLog は監査ログの構造体。
type AuditLog struct {
	Operation string `json:"operation"`
	Migration string `json:"migration"`
	Direction string `json:"direction,omitempty"`
	Force     bool   `json:"force,omitempty"`
	Result    string `json:"result"`
	Timestamp string `json:"timestamp"`
}

// WriteAuditLog はマイグレーション操作の監査ログを出力する。
func WriteAuditLog(ctx context.Context, entry AuditLog) {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	slog.InfoContext(ctx, "migration operation completed",
		"operation", entry.Operation,
		"migration", entry.Migration,
		"direction", entry.Direction,
		"force", entry.Force,
		"result", entry.Result,
		"timestamp", entry.Timestamp,
	)
}
