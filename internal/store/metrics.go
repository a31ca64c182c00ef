package store

import (
	"context"
)

// DatasetRef names a dataset snapshot by digest. It tags metrics only; the
// dataset itself is never stored here.
type DatasetRef struct {
	Name   string
	Digest string
}

type Metric struct {
	RunId     string
	Key       string
	Value     float64
	Timestamp int64
	Step      int64
	ModelId   *string
	Dataset   *DatasetRef
}

type Param struct {
	RunId string
	Key   string
	Value string
}

type MetricService interface {
	// LogMetric appends to the run's series. Resubmitting an identical
	// (run, key, step, timestamp, value) tuple is a no-op.
	LogMetric(ctx context.Context, m *Metric) error
	// GetMetricHistory returns the full series for one key, ordered by step
	// then timestamp.
	GetMetricHistory(ctx context.Context, runId string, key string) ([]*Metric, error)
	// LatestMetrics returns, per run and key, the metric with the highest
	// step (ties broken by timestamp, then value).
	LatestMetrics(ctx context.Context, runIds []string) (map[string][]*Metric, error)
	// LogBatch writes metrics, params and tags atomically. On any failure
	// nothing is committed.
	LogBatch(ctx context.Context, runId string, metrics []*Metric, params []*Param, tags map[string]string) error
}

type ParamService interface {
	// LogParam is write-once per key: re-logging the same value is a no-op,
	// a conflicting value fails with AlreadyExists.
	LogParam(ctx context.Context, p *Param) error
	GetParams(ctx context.Context, runIds []string) (map[string][]*Param, error)
}
