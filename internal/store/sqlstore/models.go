package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/mltrack/mltrack/internal/store"
	lsql "github.com/mltrack/mltrack/pkg/sql"
)

type Models struct {
	db *lsql.Instance
}

var _ store.ModelService = &Models{}

func NewModels(instance *lsql.Instance) store.ModelService {
	return &Models{
		db: instance,
	}
}

func (m *Models) CreateLoggedModel(ctx context.Context, model *store.LoggedModel) (*store.LoggedModel, error) {
	var stage store.LifecycleStage
	row := m.db.QueryRowContext(ctx,
		`SELECT lifecycle_stage FROM experiments WHERE experiment_id = ?`, model.ExperimentId)
	if err := row.Scan(&stage); err != nil {
		if err == sql.ErrNoRows {
			return nil, store.NewNotFound("experiment %s not found", model.ExperimentId)
		}
		return nil, err
	}
	if stage != store.LifecycleActive {
		return nil, store.NewNotFound("experiment %s not found", model.ExperimentId)
	}
	if model.SourceRunId != nil {
		row := m.db.QueryRowContext(ctx, `SELECT id FROM runs WHERE run_id = ?`, *model.SourceRunId)
		var id int64
		if err := row.Scan(&id); err != nil {
			if err == sql.ErrNoRows {
				return nil, store.NewNotFound("run %s not found", *model.SourceRunId)
			}
			return nil, err
		}
	}

	created := *model
	if created.ModelId == "" {
		created.ModelId = uuid.NewString()
	}
	if created.CreationTime == 0 {
		created.CreationTime = time.Now().UnixMilli()
	}

	err := m.db.Transaction(ctx, func(ctx context.Context, tx *lsql.Tx) error {
		query := `
		INSERT INTO logged_models (model_id, experiment_id, source_run_id, name, artifact_location, creation_time)
		VALUES (?, ?, ?, ?, ?, ?)
		`
		if _, err := tx.ExecContext(ctx, query,
			created.ModelId, created.ExperimentId, created.SourceRunId,
			created.Name, created.ArtifactLocation, created.CreationTime); err != nil {
			return err
		}
		for k, v := range created.Tags {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO logged_model_tags (model_id, key, value) VALUES (?, ?, ?)`,
				created.ModelId, k, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (m *Models) GetLoggedModel(ctx context.Context, modelId string) (*store.LoggedModel, error) {
	query := `
	SELECT model_id, experiment_id, source_run_id, name, artifact_location, creation_time
	FROM logged_models
	WHERE model_id = ?
	`
	row := m.db.QueryRowContext(ctx, query, modelId)
	model, err := loggedModelInstance(row)
	if err == sql.ErrNoRows {
		return nil, store.NewNotFound("logged model %s not found", modelId)
	}
	if err != nil {
		return nil, err
	}
	if err := m.loadTags(ctx, model); err != nil {
		return nil, err
	}
	return model, nil
}

func (m *Models) ListLoggedModels(ctx context.Context, experimentIds []string) ([]*store.LoggedModel, error) {
	if len(experimentIds) == 0 {
		return []*store.LoggedModel{}, nil
	}
	query := `
	SELECT model_id, experiment_id, source_run_id, name, artifact_location, creation_time
	FROM logged_models
	WHERE experiment_id IN (?)
	ORDER BY creation_time DESC, model_id
	`
	rows, err := m.db.QueryContext(ctx, query, experimentIds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	response := make([]*store.LoggedModel, 0)
	for rows.Next() {
		model, err := loggedModelInstance(rows)
		if err != nil {
			return nil, err
		}
		response = append(response, model)
	}
	for _, model := range response {
		if err := m.loadTags(ctx, model); err != nil {
			return nil, err
		}
	}
	return response, nil
}

func (m *Models) ModelMetrics(ctx context.Context, modelIds []string) (map[string][]*store.Metric, error) {
	response := make(map[string][]*store.Metric)
	if len(modelIds) == 0 {
		return response, nil
	}
	query := `
	SELECT run_id, key, value, timestamp, step, model_id, dataset_name, dataset_digest
	FROM metrics
	WHERE model_id IN (?)
	ORDER BY model_id, key, step, timestamp, value
	`
	rows, err := m.db.QueryContext(ctx, query, modelIds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		metric, err := metricInstance(rows)
		if err != nil {
			return nil, err
		}
		if metric.ModelId != nil {
			response[*metric.ModelId] = append(response[*metric.ModelId], metric)
		}
	}
	return response, nil
}

func (m *Models) loadTags(ctx context.Context, model *store.LoggedModel) error {
	rows, err := m.db.QueryContext(ctx,
		`SELECT key, value FROM logged_model_tags WHERE model_id = ?`, model.ModelId)
	if err != nil {
		return err
	}
	defer rows.Close()
	model.Tags = make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return err
		}
		model.Tags[k] = v
	}
	return nil
}

func loggedModelInstance(scanner lsql.RowScanner) (*store.LoggedModel, error) {
	model := &store.LoggedModel{}
	sourceRunId := sql.NullString{}
	err := scanner.Scan(&model.ModelId, &model.ExperimentId, &sourceRunId,
		&model.Name, &model.ArtifactLocation, &model.CreationTime)
	if err != nil {
		return nil, err
	}
	if sourceRunId.Valid {
		model.SourceRunId = &sourceRunId.String
	}
	return model, nil
}
