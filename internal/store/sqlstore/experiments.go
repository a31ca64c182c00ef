package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/mltrack/mltrack/internal/store"
	lsql "github.com/mltrack/mltrack/pkg/sql"
)

type Experiments struct {
	db *lsql.Instance
}

var _ store.ExperimentService = &Experiments{}

func NewExperiments(instance *lsql.Instance) store.ExperimentService {
	return &Experiments{
		db: instance,
	}
}

func (e *Experiments) CreateExperiment(ctx context.Context, experiment *store.Experiment) (*store.Experiment, error) {
	existing, err := e.GetExperimentByName(ctx, experiment.Name)
	if err != nil && !store.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, store.NewAlreadyExists("experiment %q already exists", experiment.Name)
	}

	created := *experiment
	if created.ExperimentId == "" {
		created.ExperimentId = uuid.NewString()
	}
	now := time.Now().UnixMilli()
	created.CreatedTime = now
	created.LastUpdatedTime = now
	created.LifecycleStage = store.LifecycleActive

	err = e.db.Transaction(ctx, func(ctx context.Context, tx *lsql.Tx) error {
		query := `
		INSERT INTO experiments (experiment_id, name, artifact_location, lifecycle_stage, created_time, last_updated_time)
		VALUES (?, ?, ?, ?, ?, ?)
		`
		if _, err := tx.ExecContext(ctx, query,
			created.ExperimentId, created.Name, created.ArtifactLocation,
			created.LifecycleStage, created.CreatedTime, created.LastUpdatedTime); err != nil {
			return err
		}
		for k, v := range created.Tags {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO experiment_tags (experiment_id, key, value) VALUES (?, ?, ?)`,
				created.ExperimentId, k, v); err != nil {
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

func (e *Experiments) GetExperiment(ctx context.Context, experimentId string) (*store.Experiment, error) {
	query := `
	SELECT id, experiment_id, name, artifact_location, lifecycle_stage, created_time, last_updated_time
	FROM experiments
	WHERE experiment_id = ?
	`
	row := e.db.QueryRowContext(ctx, query, experimentId)
	experiment, err := experimentInstance(row)
	if err == sql.ErrNoRows {
		return nil, store.NewNotFound("experiment %s not found", experimentId)
	}
	if err != nil {
		return nil, err
	}
	if err := e.loadTags(ctx, experiment); err != nil {
		return nil, err
	}
	return experiment, nil
}

func (e *Experiments) GetExperimentByName(ctx context.Context, name string) (*store.Experiment, error) {
	query := `
	SELECT id, experiment_id, name, artifact_location, lifecycle_stage, created_time, last_updated_time
	FROM experiments
	WHERE name = ? AND lifecycle_stage = ?
	`
	row := e.db.QueryRowContext(ctx, query, name, store.LifecycleActive)
	experiment, err := experimentInstance(row)
	if err == sql.ErrNoRows {
		return nil, store.NewNotFound("experiment named %q not found", name)
	}
	if err != nil {
		return nil, err
	}
	if err := e.loadTags(ctx, experiment); err != nil {
		return nil, err
	}
	return experiment, nil
}

func (e *Experiments) ListExperiments(ctx context.Context, stages []store.LifecycleStage) ([]*store.Experiment, error) {
	query := `
	SELECT id, experiment_id, name, artifact_location, lifecycle_stage, created_time, last_updated_time
	FROM experiments
	`
	args := []interface{}{}
	if len(stages) > 0 {
		query = query + " WHERE lifecycle_stage IN (?)"
		args = append(args, stages)
	}
	query = query + " ORDER BY created_time, id"
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	response := make([]*store.Experiment, 0)
	for rows.Next() {
		experiment, err := experimentInstance(rows)
		if err != nil {
			return nil, err
		}
		response = append(response, experiment)
	}
	for _, experiment := range response {
		if err := e.loadTags(ctx, experiment); err != nil {
			return nil, err
		}
	}
	return response, nil
}

func (e *Experiments) RenameExperiment(ctx context.Context, experimentId string, name string) error {
	existing, err := e.GetExperimentByName(ctx, name)
	if err != nil && !store.IsNotFound(err) {
		return err
	}
	if existing != nil && existing.ExperimentId != experimentId {
		return store.NewAlreadyExists("experiment %q already exists", name)
	}
	return e.touch(ctx, experimentId, "name = ?", name)
}

func (e *Experiments) SetExperimentLifecycleStage(ctx context.Context, experimentId string, stage store.LifecycleStage) error {
	return e.touch(ctx, experimentId, "lifecycle_stage = ?", string(stage))
}

func (e *Experiments) SetExperimentTag(ctx context.Context, experimentId string, key, value string) error {
	if _, err := e.GetExperiment(ctx, experimentId); err != nil {
		return err
	}
	query := `
	INSERT INTO experiment_tags (experiment_id, key, value)
	VALUES (?, ?, ?)
	ON CONFLICT (experiment_id, key) DO UPDATE SET value = excluded.value
	`
	_, err := e.db.ExecContext(ctx, query, experimentId, key, value)
	return err
}

func (e *Experiments) touch(ctx context.Context, experimentId string, assignment string, value interface{}) error {
	query := `UPDATE experiments SET ` + assignment + `, last_updated_time = ? WHERE experiment_id = ?`
	res, err := e.db.ExecContext(ctx, query, value, time.Now().UnixMilli(), experimentId)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.NewNotFound("experiment %s not found", experimentId)
	}
	return nil
}

func (e *Experiments) loadTags(ctx context.Context, experiment *store.Experiment) error {
	rows, err := e.db.QueryContext(ctx,
		`SELECT key, value FROM experiment_tags WHERE experiment_id = ?`, experiment.ExperimentId)
	if err != nil {
		return err
	}
	defer rows.Close()
	experiment.Tags = make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return err
		}
		experiment.Tags[k] = v
	}
	return nil
}

func experimentInstance(scanner lsql.RowScanner) (*store.Experiment, error) {
	experiment := &store.Experiment{}
	err := scanner.Scan(&experiment.Id, &experiment.ExperimentId, &experiment.Name,
		&experiment.ArtifactLocation, &experiment.LifecycleStage,
		&experiment.CreatedTime, &experiment.LastUpdatedTime)
	if err != nil {
		return nil, err
	}
	return experiment, nil
}
