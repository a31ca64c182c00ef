package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/mltrack/mltrack/internal/store"
	lsql "github.com/mltrack/mltrack/pkg/sql"
)

type Runs struct {
	db *lsql.Instance
}

var _ store.RunService = &Runs{}

func NewRuns(instance *lsql.Instance) store.RunService {
	return &Runs{
		db: instance,
	}
}

func (r *Runs) CreateRun(ctx context.Context, run *store.Run) (*store.Run, error) {
	var stage store.LifecycleStage
	row := r.db.QueryRowContext(ctx,
		`SELECT lifecycle_stage FROM experiments WHERE experiment_id = ?`, run.ExperimentId)
	if err := row.Scan(&stage); err != nil {
		if err == sql.ErrNoRows {
			return nil, store.NewNotFound("experiment %s not found", run.ExperimentId)
		}
		return nil, err
	}
	if stage != store.LifecycleActive {
		return nil, store.NewNotFound("experiment %s not found", run.ExperimentId)
	}

	created := *run
	if created.RunId == "" {
		created.RunId = uuid.NewString()
	}
	if created.Status == "" {
		created.Status = store.RunStatusRunning
	}
	if !store.ValidStatus(created.Status) {
		return nil, store.NewSchemaValidation("unknown run status %q", created.Status)
	}
	if created.StartTime == 0 {
		created.StartTime = time.Now().UnixMilli()
	}
	created.LifecycleStage = store.LifecycleActive

	err := r.db.Transaction(ctx, func(ctx context.Context, tx *lsql.Tx) error {
		query := `
		INSERT INTO runs (run_id, experiment_id, name, status, start_time, end_time, lifecycle_stage)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		if _, err := tx.ExecContext(ctx, query,
			created.RunId, created.ExperimentId, created.Name, created.Status,
			created.StartTime, created.EndTime, created.LifecycleStage); err != nil {
			return err
		}
		for k, v := range created.Tags {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO run_tags (run_id, key, value) VALUES (?, ?, ?)`,
				created.RunId, k, v); err != nil {
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

func (r *Runs) GetRun(ctx context.Context, runId string) (*store.Run, error) {
	query := `
	SELECT id, run_id, experiment_id, name, status, start_time, end_time, lifecycle_stage
	FROM runs
	WHERE run_id = ?
	`
	row := r.db.QueryRowContext(ctx, query, runId)
	run, err := runInstance(row)
	if err == sql.ErrNoRows {
		return nil, store.NewNotFound("run %s not found", runId)
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadTags(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// validTransition implements the run state machine. Resubmitting the current
// state is a no-op; leaving a terminal state is never allowed.
func validTransition(current, next store.RunStatus) bool {
	if current == next {
		return true
	}
	if current.Terminal() {
		return false
	}
	switch current {
	case store.RunStatusScheduled:
		return next == store.RunStatusRunning || next.Terminal()
	case store.RunStatusRunning:
		return next.Terminal()
	}
	return false
}

func (r *Runs) UpdateRunStatus(ctx context.Context, runId string, status store.RunStatus, endTime *int64) error {
	if !store.ValidStatus(status) {
		return store.NewSchemaValidation("unknown run status %q", status)
	}
	return r.db.Transaction(ctx, func(ctx context.Context, tx *lsql.Tx) error {
		var current store.RunStatus
		row := tx.QueryRowContext(ctx, `SELECT status FROM runs WHERE run_id = ?`, runId)
		if err := row.Scan(&current); err != nil {
			if err == sql.ErrNoRows {
				return store.NewNotFound("run %s not found", runId)
			}
			return err
		}
		if !validTransition(current, status) {
			return store.NewInvalidStateTransition("cannot transition run %s from %s to %s", runId, current, status)
		}
		if current == status {
			return nil
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE runs SET status = ?, end_time = ? WHERE run_id = ?`,
			status, endTime, runId)
		return err
	})
}

func (r *Runs) SetRunLifecycleStage(ctx context.Context, runId string, stage store.LifecycleStage) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE runs SET lifecycle_stage = ? WHERE run_id = ?`, stage, runId)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.NewNotFound("run %s not found", runId)
	}
	return nil
}

func (r *Runs) ListRuns(ctx context.Context, experimentIds []string, stages []store.LifecycleStage) ([]*store.Run, error) {
	if len(experimentIds) == 0 {
		return []*store.Run{}, nil
	}
	query := `
	SELECT id, run_id, experiment_id, name, status, start_time, end_time, lifecycle_stage
	FROM runs
	WHERE experiment_id IN (?)
	`
	args := []interface{}{experimentIds}
	if len(stages) > 0 {
		query = query + " AND lifecycle_stage IN (?)"
		args = append(args, stages)
	}
	query = query + " ORDER BY start_time DESC, id DESC"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	response := make([]*store.Run, 0)
	for rows.Next() {
		run, err := runInstance(rows)
		if err != nil {
			return nil, err
		}
		response = append(response, run)
	}
	for _, run := range response {
		if err := r.loadTags(ctx, run); err != nil {
			return nil, err
		}
	}
	return response, nil
}

func (r *Runs) SetRunTag(ctx context.Context, runId string, key, value string) error {
	if _, err := r.GetRun(ctx, runId); err != nil {
		return err
	}
	query := `
	INSERT INTO run_tags (run_id, key, value)
	VALUES (?, ?, ?)
	ON CONFLICT (run_id, key) DO UPDATE SET value = excluded.value
	`
	_, err := r.db.ExecContext(ctx, query, runId, key, value)
	return err
}

func (r *Runs) DeleteRunTag(ctx context.Context, runId string, key string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM run_tags WHERE run_id = ? AND key = ?`, runId, key)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.NewNotFound("tag %q not found on run %s", key, runId)
	}
	return nil
}

func (r *Runs) loadTags(ctx context.Context, run *store.Run) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value FROM run_tags WHERE run_id = ?`, run.RunId)
	if err != nil {
		return err
	}
	defer rows.Close()
	run.Tags = make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return err
		}
		run.Tags[k] = v
	}
	return nil
}

func runInstance(scanner lsql.RowScanner) (*store.Run, error) {
	run := &store.Run{}
	endTime := sql.NullInt64{}
	err := scanner.Scan(&run.Id, &run.RunId, &run.ExperimentId, &run.Name,
		&run.Status, &run.StartTime, &endTime, &run.LifecycleStage)
	if err != nil {
		return nil, err
	}
	if endTime.Valid {
		run.EndTime = &endTime.Int64
	}
	return run, nil
}
