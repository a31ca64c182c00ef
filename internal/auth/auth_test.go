package auth

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mltrack/mltrack/internal/store"
	"github.com/mltrack/mltrack/internal/store/sqlstore"
	sbhttpbase "github.com/mltrack/mltrack/pkg/serverbase/http/base"
)

func bootstrapConfig() *Config {
	return &Config{
		Method:        "basic",
		DefaultLevel:  store.Read,
		AdminUsername: "admin",
		AdminPassword: "password",
	}
}

func TestBootstrapIsIdempotent(t *testing.T) {
	db, err := sqlstore.NewTestingDatabase(t)
	assert.Nil(t, err)
	ctx := context.Background()
	cfg := bootstrapConfig()

	assert.Nil(t, Bootstrap(ctx, cfg, db))
	admin, err := db.Users().GetUser(ctx, "admin")
	assert.Nil(t, err)
	assert.True(t, admin.IsAdmin)

	// A second bootstrap changes nothing, even after a password change.
	assert.Nil(t, db.Users().UpdatePassword(ctx, "admin", "rotated"))
	assert.Nil(t, Bootstrap(ctx, cfg, db))
	admin, err = db.Users().GetUser(ctx, "admin")
	assert.Nil(t, err)
	assert.Equal(t, "rotated", admin.PasswordHash)
}

func TestBasicAuthenticator(t *testing.T) {
	db, err := sqlstore.NewTestingDatabase(t)
	assert.Nil(t, err)
	ctx := context.Background()
	assert.Nil(t, Bootstrap(ctx, bootstrapConfig(), db))

	authenticator := NewBasicAuthenticator(db)

	request := httptest.NewRequest("GET", "/api/2.0/mltrack/experiments/list", nil)
	request.SetBasicAuth("admin", "password")
	principal, err := authenticator.Authenticate(request)
	assert.Nil(t, err)
	assert.Equal(t, "admin", principal.Username)
	assert.True(t, principal.IsAdmin)

	request = httptest.NewRequest("GET", "/api/2.0/mltrack/experiments/list", nil)
	request.SetBasicAuth("admin", "wrong")
	_, err = authenticator.Authenticate(request)
	assert.True(t, store.IsUnauthenticated(err))

	// Unknown users fail the same way as bad passwords.
	request = httptest.NewRequest("GET", "/api/2.0/mltrack/experiments/list", nil)
	request.SetBasicAuth("ghost", "password")
	_, err = authenticator.Authenticate(request)
	assert.True(t, store.IsUnauthenticated(err))

	// No credentials at all is not an error, just anonymous.
	request = httptest.NewRequest("GET", "/api/2.0/mltrack/experiments/list", nil)
	principal, err = authenticator.Authenticate(request)
	assert.Nil(t, err)
	assert.Nil(t, principal)
}

// Bad credentials are a 401 with a challenge, never a 403: forbidden is
// reserved for authenticated callers that lack a permission.
func TestMiddlewareBadCredentialsAreUnauthorized(t *testing.T) {
	db, err := sqlstore.NewTestingDatabase(t)
	assert.Nil(t, err)
	ctx := context.Background()
	assert.Nil(t, Bootstrap(ctx, bootstrapConfig(), db))

	middleware, err := Middleware(bootstrapConfig(), NewRegistry(NewBasicAuthenticator(db)))
	assert.Nil(t, err)

	handlerCalled := false
	handler := func(request *sbhttpbase.Request) { handlerCalled = true }

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/2.0/mltrack/experiments/list", nil)
	request.SetBasicAuth("admin", "wrong-password")
	middleware(&sbhttpbase.Request{Writer: recorder, Request: request}, handler)
	assert.False(t, handlerCalled)
	assert.Equal(t, 401, recorder.Code)
	assert.Equal(t, `Basic realm="mltrack"`, recorder.Header().Get("WWW-Authenticate"))

	// Unknown users get the same answer.
	recorder = httptest.NewRecorder()
	request = httptest.NewRequest("GET", "/api/2.0/mltrack/experiments/list", nil)
	request.SetBasicAuth("ghost", "password")
	middleware(&sbhttpbase.Request{Writer: recorder, Request: request}, handler)
	assert.False(t, handlerCalled)
	assert.Equal(t, 401, recorder.Code)

	recorder = httptest.NewRecorder()
	request = httptest.NewRequest("GET", "/api/2.0/mltrack/experiments/list", nil)
	request.SetBasicAuth("admin", "password")
	middleware(&sbhttpbase.Request{Writer: recorder, Request: request}, handler)
	assert.True(t, handlerCalled)
}

func TestRegistrySelectsByName(t *testing.T) {
	db, err := sqlstore.NewTestingDatabase(t)
	assert.Nil(t, err)

	registry := NewRegistry(NewBasicAuthenticator(db))
	authenticator, err := registry.Get("basic")
	assert.Nil(t, err)
	assert.Equal(t, "basic", authenticator.Name())

	_, err = registry.Get("oauth")
	assert.NotNil(t, err)
}

func TestUserAdminAccessRules(t *testing.T) {
	db, err := sqlstore.NewTestingDatabase(t)
	assert.Nil(t, err)
	ctx := context.Background()
	assert.Nil(t, Bootstrap(ctx, bootstrapConfig(), db))
	admin := NewUserAdmin(db)

	adminCtx := WithPrincipal(ctx, &Principal{Username: "admin", IsAdmin: true})
	aliceCtx := WithPrincipal(ctx, &Principal{Username: "alice"})

	_, err = admin.CreateUser(aliceCtx, "bob", "secret", false)
	assert.True(t, store.IsPermissionDenied(err))

	_, err = admin.CreateUser(adminCtx, "alice", "secret", false)
	assert.Nil(t, err)

	// Users can read and re-password themselves, nobody else.
	_, err = admin.GetUser(aliceCtx, "alice")
	assert.Nil(t, err)
	_, err = admin.GetUser(aliceCtx, "admin")
	assert.True(t, store.IsPermissionDenied(err))
	assert.Nil(t, admin.UpdatePassword(aliceCtx, "alice", "rotated"))
	err = admin.UpdatePassword(aliceCtx, "admin", "rotated")
	assert.True(t, store.IsPermissionDenied(err))

	err = admin.UpdateAdmin(aliceCtx, "alice", true)
	assert.True(t, store.IsPermissionDenied(err))
	assert.Nil(t, admin.UpdateAdmin(adminCtx, "alice", true))

	// Admins cannot delete themselves.
	err = admin.DeleteUser(adminCtx, "admin")
	assert.Equal(t, store.CodeSchemaValidation, store.CodeOf(err))
	assert.Nil(t, admin.DeleteUser(adminCtx, "alice"))
}
