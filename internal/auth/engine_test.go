package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/mltrack/mltrack/internal/store"
	"github.com/mltrack/mltrack/internal/store/sqlstore"
	ltest "github.com/mltrack/mltrack/pkg/test"
)

func newTestEngine(t ltest.T, defaultLevel store.PermissionLevel) (*Engine, store.Database) {
	db, err := sqlstore.NewTestingDatabase(t)
	if err != nil {
		t.Fatalf("failed to build testing database: %v", err)
	}
	cfg := &Config{DefaultLevel: defaultLevel}
	return NewEngine(cfg, db), db
}

func levelGenerator() *rapid.Generator[store.PermissionLevel] {
	return rapid.SampledFrom([]store.PermissionLevel{
		store.NoPermissions, store.Read, store.Edit, store.Manage,
	})
}

// A grant at level L satisfies a required level L' exactly when L ranks at
// least as high in the lattice.
func TestCheckMatchesLatticeOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		granted := levelGenerator().Draw(rt, "granted")
		required := levelGenerator().Draw(rt, "required")

		engine, _ := newTestEngine(ltest.NewRapidT(rt), store.NoPermissions)
		ctx := context.Background()
		err := engine.UpsertGrant(ctx, &store.PermissionGrant{
			ResourceType: store.ResourceExperiment,
			ResourceId:   "exp-id",
			Username:     "alice",
			Level:        granted,
		})
		assert.Nil(t, err)

		err = engine.Check(ctx, &Principal{Username: "alice"}, store.ResourceExperiment, "exp-id", required)
		if granted.Rank() >= required.Rank() {
			assert.Nil(t, err)
		} else {
			assert.True(t, store.IsPermissionDenied(err))
		}
	})
}

func TestLevelFallsBackToDefault(t *testing.T) {
	engine, _ := newTestEngine(t, store.Read)
	ctx := context.Background()

	level, err := engine.Level(ctx, &Principal{Username: "alice"}, store.ResourceExperiment, "exp-id")
	assert.Nil(t, err)
	assert.Equal(t, store.Read, level)

	// An explicit grant overrides the default.
	err = engine.UpsertGrant(ctx, &store.PermissionGrant{
		ResourceType: store.ResourceExperiment,
		ResourceId:   "exp-id",
		Username:     "alice",
		Level:        store.NoPermissions,
	})
	assert.Nil(t, err)
	level, err = engine.Level(ctx, &Principal{Username: "alice"}, store.ResourceExperiment, "exp-id")
	assert.Nil(t, err)
	assert.Equal(t, store.NoPermissions, level)
}

func TestAdminBypassesGrants(t *testing.T) {
	engine, _ := newTestEngine(t, store.NoPermissions)
	ctx := context.Background()

	err := engine.Check(ctx, &Principal{Username: "root", IsAdmin: true}, store.ResourceExperiment, "anything", store.Manage)
	assert.Nil(t, err)

	level, err := engine.Level(ctx, nil, store.ResourceExperiment, "anything")
	assert.Nil(t, err)
	assert.Equal(t, store.NoPermissions, level)
}

func TestResyncPicksUpExternalWrites(t *testing.T) {
	engine, db := newTestEngine(t, store.NoPermissions)
	ctx := context.Background()

	// Written behind the engine's back, e.g. by another replica.
	err := db.Permissions().UpsertGrant(ctx, &store.PermissionGrant{
		ResourceType: store.ResourceExperiment,
		ResourceId:   "exp-id",
		Username:     "alice",
		Level:        store.Edit,
	})
	assert.Nil(t, err)

	level, err := engine.Level(ctx, &Principal{Username: "alice"}, store.ResourceExperiment, "exp-id")
	assert.Nil(t, err)
	assert.Equal(t, store.Edit, level)

	err = db.Permissions().DeleteGrant(ctx, store.ResourceExperiment, "exp-id", "alice")
	assert.Nil(t, err)
	// Stale until the next resync.
	level, err = engine.Level(ctx, &Principal{Username: "alice"}, store.ResourceExperiment, "exp-id")
	assert.Nil(t, err)
	assert.Equal(t, store.Edit, level)

	assert.Nil(t, engine.Resync(ctx))
	level, err = engine.Level(ctx, &Principal{Username: "alice"}, store.ResourceExperiment, "exp-id")
	assert.Nil(t, err)
	assert.Equal(t, store.NoPermissions, level)
}

func TestDeleteGrantEvictsCache(t *testing.T) {
	engine, _ := newTestEngine(t, store.NoPermissions)
	ctx := context.Background()

	grant := &store.PermissionGrant{
		ResourceType: store.ResourceExperiment,
		ResourceId:   "exp-id",
		Username:     "alice",
		Level:        store.Manage,
	}
	assert.Nil(t, engine.UpsertGrant(ctx, grant))
	assert.Nil(t, engine.DeleteGrant(ctx, store.ResourceExperiment, "exp-id", "alice"))

	level, err := engine.Level(ctx, &Principal{Username: "alice"}, store.ResourceExperiment, "exp-id")
	assert.Nil(t, err)
	assert.Equal(t, store.NoPermissions, level)
}
