package auth

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/mltrack/mltrack/internal/store"
)

const adminBootstrapFlag = "admin_bootstrapped"

// Bootstrap creates the initial admin account once per database. The flag
// makes restarts idempotent even after the admin renames the account.
func Bootstrap(ctx context.Context, cfg *Config, db store.Database) error {
	_, done, err := db.Flags().GetFlag(ctx, adminBootstrapFlag)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	hash, err := HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	_, err = db.Users().CreateUser(ctx, &store.User{
		Username:     cfg.AdminUsername,
		PasswordHash: hash,
		IsAdmin:      true,
	})
	if err != nil && !store.IsAlreadyExists(err) {
		return err
	}
	if err == nil {
		log.Printf("created bootstrap admin user %q", cfg.AdminUsername)
	}

	return db.Flags().SetFlag(ctx, adminBootstrapFlag, "true")
}
