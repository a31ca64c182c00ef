package auth

import (
	"context"

	"github.com/mltrack/mltrack/internal/store"
)

// UserAdmin wraps the user table with the access rules of the user API:
// admins manage everyone, regular users may read and re-password themselves.
type UserAdmin struct {
	users store.UserService
}

func NewUserAdmin(db store.Database) *UserAdmin {
	return &UserAdmin{
		users: db.Users(),
	}
}

func requireAdmin(ctx context.Context) (*Principal, error) {
	principal, ok := PrincipalFrom(ctx)
	if !ok || principal == nil {
		return nil, store.NewPermissionDenied("no authenticated principal")
	}
	if !principal.IsAdmin {
		return nil, store.NewPermissionDenied("user %q is not an admin", principal.Username)
	}
	return principal, nil
}

func requireSelfOrAdmin(ctx context.Context, username string) error {
	principal, ok := PrincipalFrom(ctx)
	if !ok || principal == nil {
		return store.NewPermissionDenied("no authenticated principal")
	}
	if principal.IsAdmin || principal.Username == username {
		return nil
	}
	return store.NewPermissionDenied("user %q cannot act on user %q", principal.Username, username)
}

func (a *UserAdmin) CreateUser(ctx context.Context, username, password string, isAdmin bool) (*store.User, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if username == "" {
		return nil, store.NewSchemaValidation("username must not be empty")
	}
	if password == "" {
		return nil, store.NewSchemaValidation("password must not be empty")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return a.users.CreateUser(ctx, &store.User{
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
	})
}

func (a *UserAdmin) GetUser(ctx context.Context, username string) (*store.User, error) {
	if err := requireSelfOrAdmin(ctx, username); err != nil {
		return nil, err
	}
	return a.users.GetUser(ctx, username)
}

func (a *UserAdmin) ListUsers(ctx context.Context) ([]*store.User, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return a.users.ListUsers(ctx)
}

func (a *UserAdmin) UpdatePassword(ctx context.Context, username, password string) error {
	if err := requireSelfOrAdmin(ctx, username); err != nil {
		return err
	}
	if password == "" {
		return store.NewSchemaValidation("password must not be empty")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return a.users.UpdatePassword(ctx, username, hash)
}

func (a *UserAdmin) UpdateAdmin(ctx context.Context, username string, isAdmin bool) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	return a.users.UpdateAdmin(ctx, username, isAdmin)
}

func (a *UserAdmin) DeleteUser(ctx context.Context, username string) error {
	principal, err := requireAdmin(ctx)
	if err != nil {
		return err
	}
	if principal.Username == username {
		return store.NewSchemaValidation("cannot delete the current user")
	}
	return a.users.DeleteUser(ctx, username)
}
