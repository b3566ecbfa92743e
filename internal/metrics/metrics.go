// Package metrics はPrometheusメトリクスを提供する。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 実行結果のラベル値。
// ResultFailed は実行単位がエラーを返したこと、
// ResultStateError は状態ストアの読み書きに失敗したことを表す。
const (
	ResultMigrated   = "migrated"
	ResultRejected   = "rejected"
	ResultNotFound   = "not_found"
	ResultFailed     = "failed"
	ResultStateError = "state_error"
)

var (
	migrationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docmigrate",
		Name:      "migration_runs_total",
		Help:      "Number of migration runs by direction and result.",
	}, []string{"direction", "result"})

	migrationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "docmigrate",
		Name:      "migration_duration_seconds",
		Help:      "Duration of executed migration units.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"direction"})
)

// ObserveRun はマイグレーション実行の結果を記録する。
func ObserveRun(direction, result string) {
	migrationRuns.WithLabelValues(direction, result).Inc()
}

// ObserveUnit は実行単位の所要時間を記録する。実行単位を動かした場合のみ呼ぶ。
func ObserveUnit(direction string, duration time.Duration) {
	migrationDuration.WithLabelValues(direction).Observe(duration.Seconds())
}
