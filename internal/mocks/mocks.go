package mocks

import (
	"context"

	"github.com/brettbedarf/webfm"
	"github.com/brettbedarf/webfm/config"
	"github.com/stretchr/testify/mock"
)

// MockIdentityContext implements webfm.IdentityContext for testing across packages
type MockIdentityContext struct {
	mock.Mock
}

func (m *MockIdentityContext) Run(username string, fn func() error) error {
	args := m.Called(username, fn)

	// Handle function return types (for tests that need the work to run)
	if run, ok := args.Get(0).(func(string, func() error) error); ok {
		return run(username, fn)
	}
	return args.Error(0)
}

var _ webfm.IdentityContext = (*MockIdentityContext)(nil)

// MockExecutor implements webfm.Executor for testing across packages
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Do(ctx context.Context, username string, action webfm.Action) (*webfm.Result, error) {
	args := m.Called(ctx, username, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*webfm.Result), args.Error(1)
}

var _ webfm.Executor = (*MockExecutor)(nil)

// MockAuthenticator implements webfm.Authenticator for testing across packages
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(username, password string) bool {
	args := m.Called(username, password)
	return args.Bool(0)
}

var _ webfm.Authenticator = (*MockAuthenticator)(nil)

// MockAuthProvider implements auth.Provider for testing across packages
type MockAuthProvider struct {
	mock.Mock
}

func (m *MockAuthProvider) NewAuthenticator(cfg *config.Config) (webfm.Authenticator, error) {
	args := m.Called(cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(webfm.Authenticator), args.Error(1)
}
