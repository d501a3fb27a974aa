package webfm

import "context"

// IdentityContext runs filesystem work on behalf of an OS user.
type IdentityContext interface {
	// Run calls fn under the identity of username and restores the previous
	// identity before returning, even when fn fails or panics. An empty
	// username runs fn under the current identity.
	Run(username string, fn func() error) error
}

// Authenticator verifies HTTP credentials.
type Authenticator interface {
	Authenticate(username, password string) bool
}

// Executor executes a validated action on behalf of username.
type Executor interface {
	Do(ctx context.Context, username string, action Action) (*Result, error)
}
