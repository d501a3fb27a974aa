// Package auth builds the Authenticator used by the HTTP server. Providers are
// registered by type name and selected by config.AuthType.
package auth

import (
	"fmt"
	"sync"

	"github.com/brettbedarf/webfm"
	"github.com/brettbedarf/webfm/config"
)

// Provider creates an Authenticator from the server config.
type Provider interface {
	NewAuthenticator(cfg *config.Config) (webfm.Authenticator, error)
}

// Registry maps auth type names to providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register ties a provider to an auth type. The first registration of a type
// wins; later ones are ignored.
func (r *Registry) Register(authType string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[authType]; ok {
		return
	}
	r.providers[authType] = p
}

// GetProvider returns the provider registered for authType.
func (r *Registry) GetProvider(authType string) (Provider, error) {
	r.mu.RLock()
	p, ok := r.providers[authType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no auth provider for %q", authType)
	}
	return p, nil
}

// NewAuthenticator builds the authenticator selected by cfg.AuthType.
func (r *Registry) NewAuthenticator(cfg *config.Config) (webfm.Authenticator, error) {
	p, err := r.GetProvider(cfg.AuthType)
	if err != nil {
		return nil, err
	}
	return p.NewAuthenticator(cfg)
}
