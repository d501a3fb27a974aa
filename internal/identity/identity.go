// Package identity runs filesystem work under the identity of an OS user.
//
// Three strategies exist. The thread strategy (Linux) pins the calling
// goroutine to its OS thread and switches only that thread's filesystem
// uid/gid, so concurrent requests for different users do not interfere. The
// serial strategy switches the effective uid/gid of the whole process and
// therefore holds a process-wide lock for the duration of the work. The none
// strategy never switches.
//
// Work passed to Run must not start goroutines that touch the filesystem:
// they would run on other threads under the server's own identity.
package identity

import (
	"errors"

	"github.com/brettbedarf/webfm"
	"github.com/brettbedarf/webfm/config"
	"github.com/brettbedarf/webfm/internal/metrics"
	"github.com/brettbedarf/webfm/internal/util"
)

// ErrRestoreFailed is reported when the server identity could not be put
// back after work ran as another user. The caller must not reuse the
// goroutine's connection.
var ErrRestoreFailed = errors.New("failed to restore server identity")

// switcher runs fn as id and reports one of the metrics.Switch* results.
// When the switch is refused fn still runs, under the current identity.
type switcher interface {
	run(id Identity, fn func() error) (result string, err error)
	// runUnswitched calls fn as the server user without overlapping a
	// switch that changes the credentials fn would run with.
	runUnswitched(fn func() error) error
}

// Context implements webfm.IdentityContext.
type Context struct {
	mode     config.ImpersonationMode
	resolver *Resolver
	switcher switcher
	metrics  *metrics.Metrics
	logger   util.Logger
}

var _ webfm.IdentityContext = (*Context)(nil)

// New returns a Context using the given strategy. On platforms without
// per-thread credentials the thread strategy degrades to the serial one.
func New(mode config.ImpersonationMode, resolver *Resolver, m *metrics.Metrics) *Context {
	logger := util.GetLogger("Identity")
	c := &Context{
		mode:     mode,
		resolver: resolver,
		metrics:  m,
		logger:   logger,
	}
	switch mode {
	case config.ThreadImpersonation:
		c.switcher = newThreadSwitcher()
	case config.SerialImpersonation:
		c.switcher = newSerialSwitcher()
	default:
		c.mode = config.NoImpersonation
	}
	if c.switcher == nil && c.mode != config.NoImpersonation {
		logger.Warn().Str("mode", mode).Msg("Impersonation not supported on this platform, running as server user")
		c.mode = config.NoImpersonation
	}
	return c
}

// Mode returns the effective strategy.
func (c *Context) Mode() config.ImpersonationMode {
	return c.mode
}

// Run calls fn as username. Unknown users and refused switches are not
// errors: fn runs under the server's identity instead.
func (c *Context) Run(username string, fn func() error) error {
	if username == "" || c.switcher == nil {
		c.metrics.IdentitySwitch(metrics.SwitchSkipped)
		return c.runUnswitched(fn)
	}

	id, err := c.resolver.Lookup(username)
	if errors.Is(err, ErrUnknownUser) {
		c.logger.Debug().Str("user", username).Msg("Unknown user, running as server user")
		c.metrics.IdentitySwitch(metrics.SwitchUnknownUser)
		return c.runUnswitched(fn)
	}
	if err != nil {
		return &webfm.Error{Kind: webfm.Fatal, Op: "impersonate", Err: err}
	}

	result, err := c.switcher.run(id, fn)
	if result == metrics.SwitchRejected {
		c.logger.Debug().Str("user", username).Int("uid", id.UID).Int("gid", id.GID).
			Msg("Identity switch refused, ran as server user")
	}
	c.metrics.IdentitySwitch(result)
	return err
}

func (c *Context) runUnswitched(fn func() error) error {
	if c.switcher == nil {
		return fn()
	}
	return c.switcher.runUnswitched(fn)
}

func restoreError() error {
	return &webfm.Error{Kind: webfm.Fatal, Op: "impersonate", Err: ErrRestoreFailed}
}
