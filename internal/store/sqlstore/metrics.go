package sqlstore

import (
	"context"
	"database/sql"

	"github.com/mltrack/mltrack/internal/store"
	lsql "github.com/mltrack/mltrack/pkg/sql"
)

type Metrics struct {
	db *lsql.Instance
}

var _ store.MetricService = &Metrics{}

func NewMetrics(instance *lsql.Instance) store.MetricService {
	return &Metrics{
		db: instance,
	}
}

// The primary key on (run_id, key, step, timestamp, value) makes the append
// idempotent: a retried tuple hits DO NOTHING instead of duplicating.
const insertMetricQuery = `
INSERT INTO metrics (run_id, key, value, timestamp, step, model_id, dataset_name, dataset_digest)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (run_id, key, step, timestamp, value) DO NOTHING
`

func (m *Metrics) LogMetric(ctx context.Context, metric *store.Metric) error {
	if err := m.requireRun(ctx, metric.RunId); err != nil {
		return err
	}
	_, err := m.db.ExecContext(ctx, insertMetricQuery, metricArgs(metric)...)
	return err
}

func (m *Metrics) GetMetricHistory(ctx context.Context, runId string, key string) ([]*store.Metric, error) {
	query := `
	SELECT run_id, key, value, timestamp, step, model_id, dataset_name, dataset_digest
	FROM metrics
	WHERE run_id = ? AND key = ?
	ORDER BY step, timestamp, value
	`
	rows, err := m.db.QueryContext(ctx, query, runId, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	response := make([]*store.Metric, 0)
	for rows.Next() {
		metric, err := metricInstance(rows)
		if err != nil {
			return nil, err
		}
		response = append(response, metric)
	}
	return response, nil
}

func (m *Metrics) LatestMetrics(ctx context.Context, runIds []string) (map[string][]*store.Metric, error) {
	response := make(map[string][]*store.Metric)
	if len(runIds) == 0 {
		return response, nil
	}
	query := `
	SELECT run_id, key, value, timestamp, step, model_id, dataset_name, dataset_digest
	FROM metrics
	WHERE run_id IN (?)
	ORDER BY run_id, key, step, timestamp, value
	`
	rows, err := m.db.QueryContext(ctx, query, runIds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Rows arrive ordered, so the last row per (run, key) is the latest.
	latest := make(map[string]map[string]*store.Metric)
	for rows.Next() {
		metric, err := metricInstance(rows)
		if err != nil {
			return nil, err
		}
		if latest[metric.RunId] == nil {
			latest[metric.RunId] = make(map[string]*store.Metric)
		}
		latest[metric.RunId][metric.Key] = metric
	}
	for runId, byKey := range latest {
		for _, metric := range byKey {
			response[runId] = append(response[runId], metric)
		}
	}
	return response, nil
}

func (m *Metrics) LogBatch(ctx context.Context, runId string, metrics []*store.Metric, params []*store.Param, tags map[string]string) error {
	if err := m.requireRun(ctx, runId); err != nil {
		return err
	}
	return m.db.Transaction(ctx, func(ctx context.Context, tx *lsql.Tx) error {
		for _, metric := range metrics {
			entry := *metric
			entry.RunId = runId
			if _, err := tx.ExecContext(ctx, insertMetricQuery, metricArgs(&entry)...); err != nil {
				return err
			}
		}
		for _, param := range params {
			if err := logParamTx(ctx, tx, runId, param.Key, param.Value); err != nil {
				return err
			}
		}
		for k, v := range tags {
			query := `
			INSERT INTO run_tags (run_id, key, value)
			VALUES (?, ?, ?)
			ON CONFLICT (run_id, key) DO UPDATE SET value = excluded.value
			`
			if _, err := tx.ExecContext(ctx, query, runId, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (m *Metrics) requireRun(ctx context.Context, runId string) error {
	row := m.db.QueryRowContext(ctx, `SELECT id FROM runs WHERE run_id = ?`, runId)
	var id int64
	if err := row.Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return store.NewNotFound("run %s not found", runId)
		}
		return err
	}
	return nil
}

func metricArgs(metric *store.Metric) []interface{} {
	var datasetName, datasetDigest *string
	if metric.Dataset != nil {
		datasetName = &metric.Dataset.Name
		datasetDigest = &metric.Dataset.Digest
	}
	return []interface{}{
		metric.RunId, metric.Key, metric.Value, metric.Timestamp, metric.Step,
		metric.ModelId, datasetName, datasetDigest,
	}
}

func metricInstance(scanner lsql.RowScanner) (*store.Metric, error) {
	metric := &store.Metric{}
	modelId := sql.NullString{}
	datasetName := sql.NullString{}
	datasetDigest := sql.NullString{}
	err := scanner.Scan(&metric.RunId, &metric.Key, &metric.Value,
		&metric.Timestamp, &metric.Step, &modelId, &datasetName, &datasetDigest)
	if err != nil {
		return nil, err
	}
	if modelId.Valid {
		metric.ModelId = &modelId.String
	}
	if datasetName.Valid {
		metric.Dataset = &store.DatasetRef{Name: datasetName.String, Digest: datasetDigest.String}
	}
	return metric, nil
}
