package identity

import (
	"errors"
	"os"
	"os/user"
	"testing"
	"time"

	"github.com/brettbedarf/webfm"
	"github.com/brettbedarf/webfm/config"
	"github.com/brettbedarf/webfm/internal/metrics"
	"github.com/brettbedarf/webfm/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_EmptyUsernameRunsDirectly(t *testing.T) {
	t.Parallel()

	c := New(config.ThreadImpersonation, newTestResolver(0, nil), nil)
	ran := false

	err := c.Run("", func() error { ran = true; return nil })

	require.NoError(t, err)
	assert.True(t, ran)
}

func TestContext_UnknownUserStillRuns(t *testing.T) {
	t.Parallel()

	for _, mode := range []string{config.ThreadImpersonation, config.SerialImpersonation, config.NoImpersonation} {
		t.Run(mode, func(t *testing.T) {
			c := New(mode, newTestResolver(0, nil), nil)
			ran := false

			err := c.Run("ghost", func() error { ran = true; return nil })

			require.NoError(t, err)
			assert.True(t, ran, "work must proceed under the original identity")
		})
	}
}

func TestContext_ResolverFailureIsFatal(t *testing.T) {
	t.Parallel()

	r := NewResolver(0)
	r.lookup = func(string) (*user.User, error) { return nil, errors.New("nss down") }
	c := New(config.ThreadImpersonation, r, nil)
	ran := false

	err := c.Run("alice", func() error { ran = true; return nil })

	require.Error(t, err)
	assert.Equal(t, webfm.Fatal, webfm.KindOf(err))
	assert.False(t, ran)
}

func TestContext_PropagatesWorkError(t *testing.T) {
	t.Parallel()

	c := New(config.NoImpersonation, newTestResolver(0, nil), nil)
	want := errors.New("work failed")

	err := c.Run("alice", func() error { return want })

	assert.ErrorIs(t, err, want)
}

func TestContext_SwitchToSelf(t *testing.T) {
	t.Parallel()

	self := currentUser(t)
	c := New(config.ThreadImpersonation, NewResolver(time.Minute), nil)

	err := c.Run(self.Username, func() error { return nil })

	require.NoError(t, err)
	assertOriginalIdentity(t)
}

func TestContext_RefusedSwitchRunsAsServer(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("switching to root is always permitted for root")
	}
	if _, err := user.Lookup("root"); err != nil {
		t.Skip("no root user in user database")
	}

	for _, mode := range []string{config.ThreadImpersonation, config.SerialImpersonation} {
		t.Run(mode, func(t *testing.T) {
			c := New(mode, NewResolver(0), nil)
			var uid int

			err := c.Run("root", func() error {
				uid = os.Geteuid()
				return nil
			})

			require.NoError(t, err)
			assert.Equal(t, os.Getuid(), uid)
			assertOriginalIdentity(t)
		})
	}
}

func TestContext_RestoresAfterPanic(t *testing.T) {
	t.Parallel()

	self := currentUser(t)
	c := New(config.ThreadImpersonation, NewResolver(0), nil)

	assert.PanicsWithValue(t, "boom", func() {
		_ = c.Run(self.Username, func() error { panic("boom") })
	})
	assertOriginalIdentity(t)
}

func TestContext_UnswitchedWorkGoesThroughSwitcher(t *testing.T) {
	t.Parallel()

	sw := &recordingSwitcher{}
	c := &Context{
		mode:     config.SerialImpersonation,
		resolver: newTestResolver(0, nil),
		switcher: sw,
		logger:   util.GetLogger("Identity"),
	}
	noop := func() error { return nil }

	require.NoError(t, c.Run("", noop))
	require.NoError(t, c.Run("ghost", noop))

	assert.Equal(t, 2, sw.unswitched, "anonymous and unknown users run inside the switcher")
	assert.Zero(t, sw.switched)
}

func TestContext_SerialUnswitchedWorkWaitsForSwitch(t *testing.T) {
	// not parallel: as root this changes the process euid
	target := currentUser(t)
	if os.Geteuid() == 0 {
		target = &user.User{Username: "alice", Uid: "65534", Gid: "65534"}
	}
	c := New(config.SerialImpersonation, newTestResolver(0, map[string]*user.User{target.Username: target}), nil)
	if c.Mode() != config.SerialImpersonation {
		t.Skip("serial impersonation unsupported on this platform")
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	holder := make(chan error, 1)
	go func() {
		holder <- c.Run(target.Username, func() error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	euids := make(chan int, 2)
	for _, name := range []string{"", "ghost"} {
		go func() {
			_ = c.Run(name, func() error {
				euids <- os.Geteuid()
				return nil
			})
		}()
	}

	assert.Never(t, func() bool { return len(euids) > 0 }, 100*time.Millisecond, 5*time.Millisecond,
		"work for anonymous and unknown users must wait while the process is switched")
	close(release)

	require.NoError(t, <-holder)
	for range 2 {
		assert.Equal(t, os.Getuid(), <-euids)
	}
	assertOriginalIdentity(t)
}

type recordingSwitcher struct {
	switched, unswitched int
}

func (s *recordingSwitcher) run(_ Identity, fn func() error) (string, error) {
	s.switched++
	return metrics.SwitchOK, fn()
}

func (s *recordingSwitcher) runUnswitched(fn func() error) error {
	s.unswitched++
	return fn()
}

func currentUser(t *testing.T) *user.User {
	t.Helper()
	u, err := user.Current()
	if err != nil {
		t.Skipf("current user unavailable: %v", err)
	}
	return u
}

func assertOriginalIdentity(t *testing.T) {
	t.Helper()
	assert.Equal(t, os.Getuid(), os.Geteuid(), "effective uid must be restored")
	assert.Equal(t, os.Getgid(), os.Getegid(), "effective gid must be restored")
}
