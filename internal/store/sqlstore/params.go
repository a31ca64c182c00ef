package sqlstore

import (
	"context"
	"database/sql"

	"github.com/mltrack/mltrack/internal/store"
	lsql "github.com/mltrack/mltrack/pkg/sql"
)

type Params struct {
	db *lsql.Instance
}

var _ store.ParamService = &Params{}

func NewParams(instance *lsql.Instance) store.ParamService {
	return &Params{
		db: instance,
	}
}

func (p *Params) LogParam(ctx context.Context, param *store.Param) error {
	return p.db.Transaction(ctx, func(ctx context.Context, tx *lsql.Tx) error {
		return logParamTx(ctx, tx, param.RunId, param.Key, param.Value)
	})
}

// logParamTx enforces write-once semantics inside a transaction so batch
// appends share the check.
func logParamTx(ctx context.Context, tx *lsql.Tx, runId, key, value string) error {
	row := tx.QueryRowContext(ctx,
		`SELECT value FROM params WHERE run_id = ? AND key = ?`, runId, key)
	var existing string
	err := row.Scan(&existing)
	if err == nil {
		if existing == value {
			return nil
		}
		return store.NewAlreadyExists("param %q already logged on run %s with value %q", key, runId, existing)
	}
	if err != sql.ErrNoRows {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO params (run_id, key, value) VALUES (?, ?, ?)`, runId, key, value)
	return err
}

func (p *Params) GetParams(ctx context.Context, runIds []string) (map[string][]*store.Param, error) {
	response := make(map[string][]*store.Param)
	if len(runIds) == 0 {
		return response, nil
	}
	query := `
	SELECT run_id, key, value
	FROM params
	WHERE run_id IN (?)
	ORDER BY run_id, key
	`
	rows, err := p.db.QueryContext(ctx, query, runIds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		param := &store.Param{}
		if err := rows.Scan(&param.RunId, &param.Key, &param.Value); err != nil {
			return nil, err
		}
		response[param.RunId] = append(response[param.RunId], param)
	}
	return response, nil
}
