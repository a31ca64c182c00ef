package auth

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/mltrack/mltrack/internal/store"
)

// BasicAuthenticator validates HTTP basic credentials against the user
// table. Password hashes are bcrypt.
type BasicAuthenticator struct {
	users store.UserService
}

var _ Authenticator = &BasicAuthenticator{}

func NewBasicAuthenticator(db store.Database) *BasicAuthenticator {
	return &BasicAuthenticator{
		users: db.Users(),
	}
}

func (a *BasicAuthenticator) Name() string {
	return "basic"
}

func (a *BasicAuthenticator) Authenticate(r *http.Request) (*Principal, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return nil, nil
	}
	user, err := a.users.GetUser(r.Context(), username)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, store.NewUnauthenticated("invalid credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, store.NewUnauthenticated("invalid credentials")
	}
	return &Principal{
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	}, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
