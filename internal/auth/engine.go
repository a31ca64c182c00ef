package auth

import (
	"context"
	"sync"

	"github.com/mltrack/mltrack/internal/store"
)

type grantKey struct {
	resourceType store.ResourceType
	resourceId   string
	username     string
}

// Engine answers permission checks. Grants are cached in memory; writes go
// through the engine so the cache stays coherent, and a background resync
// picks up changes made by other replicas.
type Engine struct {
	permissions store.PermissionService
	defaultLvl  store.PermissionLevel

	mu     sync.RWMutex
	grants map[grantKey]store.PermissionLevel
	loaded bool
}

func NewEngine(cfg *Config, db store.Database) *Engine {
	return &Engine{
		permissions: db.Permissions(),
		defaultLvl:  cfg.DefaultLevel,
		grants:      make(map[grantKey]store.PermissionLevel),
	}
}

// Check verifies the principal holds the required level on the resource.
// Admins bypass the lattice entirely.
func (e *Engine) Check(ctx context.Context, principal *Principal, resourceType store.ResourceType, resourceId string, required store.PermissionLevel) error {
	level, err := e.Level(ctx, principal, resourceType, resourceId)
	if err != nil {
		return err
	}
	if !level.Satisfies(required) {
		return store.NewPermissionDenied("user %q lacks %s on %s %s",
			principal.Username, required, resourceType, resourceId)
	}
	return nil
}

// Level returns the effective permission level, falling back to the
// configured default when no explicit grant exists.
func (e *Engine) Level(ctx context.Context, principal *Principal, resourceType store.ResourceType, resourceId string) (store.PermissionLevel, error) {
	if principal == nil {
		return store.NoPermissions, nil
	}
	if principal.IsAdmin {
		return store.Manage, nil
	}
	if err := e.ensureLoaded(ctx); err != nil {
		return store.NoPermissions, err
	}

	key := grantKey{resourceType: resourceType, resourceId: resourceId, username: principal.Username}
	e.mu.RLock()
	level, ok := e.grants[key]
	e.mu.RUnlock()
	if ok {
		return level, nil
	}
	return e.defaultLvl, nil
}

// UpsertGrant persists the grant and updates the cache in one step.
func (e *Engine) UpsertGrant(ctx context.Context, grant *store.PermissionGrant) error {
	if err := e.permissions.UpsertGrant(ctx, grant); err != nil {
		return err
	}
	e.mu.Lock()
	e.grants[grantKey{grant.ResourceType, grant.ResourceId, grant.Username}] = grant.Level
	e.mu.Unlock()
	return nil
}

func (e *Engine) DeleteGrant(ctx context.Context, resourceType store.ResourceType, resourceId, username string) error {
	if err := e.permissions.DeleteGrant(ctx, resourceType, resourceId, username); err != nil {
		return err
	}
	e.mu.Lock()
	delete(e.grants, grantKey{resourceType, resourceId, username})
	e.mu.Unlock()
	return nil
}

func (e *Engine) ensureLoaded(ctx context.Context) error {
	e.mu.RLock()
	loaded := e.loaded
	e.mu.RUnlock()
	if loaded {
		return nil
	}
	return e.Resync(ctx)
}

// Resync replaces the cache with the authoritative grant table.
func (e *Engine) Resync(ctx context.Context) error {
	grants, err := e.permissions.ListGrants(ctx)
	if err != nil {
		return err
	}
	fresh := make(map[grantKey]store.PermissionLevel, len(grants))
	for _, grant := range grants {
		fresh[grantKey{grant.ResourceType, grant.ResourceId, grant.Username}] = grant.Level
	}
	e.mu.Lock()
	e.grants = fresh
	e.loaded = true
	e.mu.Unlock()
	return nil
}
