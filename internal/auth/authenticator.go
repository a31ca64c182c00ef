package auth

import (
	"net/http"

	"github.com/pkg/errors"
)

// Authenticator resolves the caller behind an incoming request. A nil
// principal with a nil error means the request carried no credentials.
type Authenticator interface {
	Name() string
	Authenticate(r *http.Request) (*Principal, error)
}

// Registry maps authentication method names to implementations so the
// method can be swapped through configuration.
type Registry struct {
	methods map[string]Authenticator
}

func NewRegistry(authenticators ...Authenticator) *Registry {
	methods := make(map[string]Authenticator)
	for _, authenticator := range authenticators {
		methods[authenticator.Name()] = authenticator
	}
	return &Registry{methods: methods}
}

func (r *Registry) Get(name string) (Authenticator, error) {
	authenticator, ok := r.methods[name]
	if !ok {
		return nil, errors.Errorf("unknown authentication method %q", name)
	}
	return authenticator, nil
}
