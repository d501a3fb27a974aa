package auth

import (
	"errors"
	"fmt"

	"github.com/brettbedarf/webfm"
	"github.com/brettbedarf/webfm/config"
	"github.com/brettbedarf/webfm/internal/util"
	"golang.org/x/crypto/bcrypt"
)

// RegisterBuiltins registers all built-in providers by default
// or only the specific ones if keys are provided
func RegisterBuiltins(r *Registry, types ...string) {
	if len(types) == 0 {
		types = append(types, config.AllowAuthType, config.StaticAuthType)
	}

	for _, key := range types {
		switch key {
		case config.AllowAuthType:
			r.Register(key, AllowProvider{})
		case config.StaticAuthType:
			r.Register(key, StaticProvider{})
		}
	}
}

// AllowProvider accepts any credentials. The username is still used for
// impersonation.
type AllowProvider struct{}

func (AllowProvider) NewAuthenticator(*config.Config) (webfm.Authenticator, error) {
	return allowAll{}, nil
}

type allowAll struct{}

func (allowAll) Authenticate(string, string) bool { return true }

// StaticProvider checks passwords against the bcrypt hashes in config.Users.
type StaticProvider struct{}

func (StaticProvider) NewAuthenticator(cfg *config.Config) (webfm.Authenticator, error) {
	if len(cfg.Users) == 0 {
		return nil, errors.New("static auth requires at least one user")
	}
	users := make(map[string][]byte, len(cfg.Users))
	for name, hash := range cfg.Users {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("invalid bcrypt hash for user %q: %w", name, err)
		}
		users[name] = []byte(hash)
	}
	return &staticUsers{users: users, logger: util.GetLogger("Auth")}, nil
}

type staticUsers struct {
	users  map[string][]byte
	logger util.Logger
}

func (s *staticUsers) Authenticate(username, password string) bool {
	hash, ok := s.users[username]
	if !ok {
		return false
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		s.logger.Debug().Str("user", username).Msg("Password mismatch")
		return false
	}
	return true
}

// HashPassword returns the bcrypt hash stored in config.Users.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
