package sqlstore

import (
	"context"
	"database/sql"

	"github.com/mltrack/mltrack/internal/store"
	lsql "github.com/mltrack/mltrack/pkg/sql"
)

type Users struct {
	db *lsql.Instance
}

var _ store.UserService = &Users{}

func NewUsers(instance *lsql.Instance) store.UserService {
	return &Users{
		db: instance,
	}
}

func (u *Users) CreateUser(ctx context.Context, user *store.User) (*store.User, error) {
	created := *user
	err := u.db.Transaction(ctx, func(ctx context.Context, tx *lsql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT username FROM users WHERE username = ?`, created.Username)
		var existing string
		err := row.Scan(&existing)
		if err == nil {
			return store.NewAlreadyExists("user %q already exists", created.Username)
		}
		if err != sql.ErrNoRows {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO users (username, password_hash, is_admin) VALUES (?, ?, ?)`,
			created.Username, created.PasswordHash, created.IsAdmin)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (u *Users) GetUser(ctx context.Context, username string) (*store.User, error) {
	row := u.db.QueryRowContext(ctx,
		`SELECT username, password_hash, is_admin FROM users WHERE username = ?`, username)
	user := &store.User{}
	err := row.Scan(&user.Username, &user.PasswordHash, &user.IsAdmin)
	if err == sql.ErrNoRows {
		return nil, store.NewNotFound("user %q not found", username)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (u *Users) ListUsers(ctx context.Context) ([]*store.User, error) {
	rows, err := u.db.QueryContext(ctx,
		`SELECT username, password_hash, is_admin FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	response := make([]*store.User, 0)
	for rows.Next() {
		user := &store.User{}
		if err := rows.Scan(&user.Username, &user.PasswordHash, &user.IsAdmin); err != nil {
			return nil, err
		}
		response = append(response, user)
	}
	return response, nil
}

func (u *Users) UpdatePassword(ctx context.Context, username string, passwordHash string) error {
	return u.update(ctx, `UPDATE users SET password_hash = ? WHERE username = ?`, passwordHash, username)
}

func (u *Users) UpdateAdmin(ctx context.Context, username string, isAdmin bool) error {
	return u.update(ctx, `UPDATE users SET is_admin = ? WHERE username = ?`, isAdmin, username)
}

func (u *Users) DeleteUser(ctx context.Context, username string) error {
	return u.update(ctx, `DELETE FROM users WHERE username = ?`, username)
}

func (u *Users) update(ctx context.Context, query string, args ...interface{}) error {
	res, err := u.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.NewNotFound("user not found")
	}
	return nil
}

type Flags struct {
	db *lsql.Instance
}

var _ store.FlagService = &Flags{}

func NewFlags(instance *lsql.Instance) store.FlagService {
	return &Flags{
		db: instance,
	}
}

func (f *Flags) GetFlag(ctx context.Context, key string) (string, bool, error) {
	row := f.db.QueryRowContext(ctx, `SELECT value FROM server_flags WHERE key = ?`, key)
	var value string
	err := row.Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (f *Flags) SetFlag(ctx context.Context, key, value string) error {
	query := `
	INSERT INTO server_flags (key, value)
	VALUES (?, ?)
	ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`
	_, err := f.db.ExecContext(ctx, query, key, value)
	return err
}
