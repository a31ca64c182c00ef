package sqlstore

import (
	"context"
	"database/sql"

	"github.com/mltrack/mltrack/internal/store"
	lsql "github.com/mltrack/mltrack/pkg/sql"
)

type Permissions struct {
	db *lsql.Instance
}

var _ store.PermissionService = &Permissions{}

func NewPermissions(instance *lsql.Instance) store.PermissionService {
	return &Permissions{
		db: instance,
	}
}

func (p *Permissions) UpsertGrant(ctx context.Context, grant *store.PermissionGrant) error {
	if !store.ValidLevel(grant.Level) {
		return store.NewSchemaValidation("unknown permission level %q", grant.Level)
	}
	query := `
	INSERT INTO permissions (resource_type, resource_id, username, permission)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (resource_type, resource_id, username) DO UPDATE SET permission = excluded.permission
	`
	_, err := p.db.ExecContext(ctx, query,
		grant.ResourceType, grant.ResourceId, grant.Username, grant.Level)
	return err
}

func (p *Permissions) GetGrant(ctx context.Context, resourceType store.ResourceType, resourceId, username string) (*store.PermissionGrant, error) {
	query := `
	SELECT resource_type, resource_id, username, permission
	FROM permissions
	WHERE resource_type = ? AND resource_id = ? AND username = ?
	`
	row := p.db.QueryRowContext(ctx, query, resourceType, resourceId, username)
	grant, err := grantInstance(row)
	if err == sql.ErrNoRows {
		return nil, store.NewNotFound("no grant for user %q on %s %s", username, resourceType, resourceId)
	}
	if err != nil {
		return nil, err
	}
	return grant, nil
}

func (p *Permissions) ListGrants(ctx context.Context) ([]*store.PermissionGrant, error) {
	query := `
	SELECT resource_type, resource_id, username, permission
	FROM permissions
	ORDER BY resource_type, resource_id, username
	`
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	response := make([]*store.PermissionGrant, 0)
	for rows.Next() {
		grant, err := grantInstance(rows)
		if err != nil {
			return nil, err
		}
		response = append(response, grant)
	}
	return response, nil
}

func (p *Permissions) DeleteGrant(ctx context.Context, resourceType store.ResourceType, resourceId, username string) error {
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM permissions WHERE resource_type = ? AND resource_id = ? AND username = ?`,
		resourceType, resourceId, username)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.NewNotFound("no grant for user %q on %s %s", username, resourceType, resourceId)
	}
	return nil
}

func grantInstance(scanner lsql.RowScanner) (*store.PermissionGrant, error) {
	grant := &store.PermissionGrant{}
	err := scanner.Scan(&grant.ResourceType, &grant.ResourceId, &grant.Username, &grant.Level)
	if err != nil {
		return nil, err
	}
	return grant, nil
}
