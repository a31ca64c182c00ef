package store

import (
	"context"
)

type User struct {
	Username     string
	PasswordHash string
	IsAdmin      bool
}

type UserService interface {
	CreateUser(ctx context.Context, user *User) (*User, error)
	GetUser(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	UpdatePassword(ctx context.Context, username string, passwordHash string) error
	UpdateAdmin(ctx context.Context, username string, isAdmin bool) error
	DeleteUser(ctx context.Context, username string) error
}

// FlagService holds one-time server state, e.g. the "admin exists" marker
// consulted during bootstrap.
type FlagService interface {
	GetFlag(ctx context.Context, key string) (string, bool, error)
	SetFlag(ctx context.Context, key, value string) error
}
