//go:build linux

package identity

import (
	"runtime"

	"github.com/brettbedarf/webfm/internal/metrics"
	"github.com/brettbedarf/webfm/internal/util"
	"golang.org/x/sys/unix"
)

// threadSwitcher changes the fsuid/fsgid of the current OS thread only.
type threadSwitcher struct {
	logger util.Logger
	// setfsuid and setfsgid return the previous id; -1 only queries it.
	setfsuid func(int) (int, error)
	setfsgid func(int) (int, error)
}

func newThreadSwitcher() switcher {
	return threadSwitcher{
		logger:   util.GetLogger("Identity"),
		setfsuid: unix.SetfsuidRetUid,
		setfsgid: unix.SetfsgidRetGid,
	}
}

// run reports ErrRestoreFailed when the thread keeps foreign credentials.
// That failure replaces fn's result, a panic included, and leaves the
// thread locked so the runtime discards it with the goroutine.
func (s threadSwitcher) run(id Identity, fn func() error) (result string, err error) {
	runtime.LockOSThread()

	// Group first: once fsuid drops privileges setfsgid is refused.
	prevGID, _ := s.setfsgid(id.GID)
	prevUID, _ := s.setfsuid(id.UID)

	defer func() {
		s.setfsuid(prevUID) //nolint:errcheck
		s.setfsgid(prevGID) //nolint:errcheck
		if s.fsuid() != prevUID || s.fsgid() != prevGID {
			if r := recover(); r != nil {
				s.logger.Error().Interface("panic", r).Msg("Work panicked before identity restore")
				result = metrics.SwitchOK
			}
			s.logger.Error().Int("uid", prevUID).Int("gid", prevGID).Msg("Failed to restore thread identity")
			err = restoreError()
			return
		}
		runtime.UnlockOSThread()
	}()

	if s.fsuid() != id.UID || s.fsgid() != id.GID {
		s.setfsuid(prevUID) //nolint:errcheck
		s.setfsgid(prevGID) //nolint:errcheck
		return metrics.SwitchRejected, fn()
	}
	return metrics.SwitchOK, fn()
}

// runUnswitched needs no coordination: other threads' credentials never
// apply to this one.
func (threadSwitcher) runUnswitched(fn func() error) error {
	return fn()
}

func (s threadSwitcher) fsuid() int {
	uid, _ := s.setfsuid(-1)
	return uid
}

func (s threadSwitcher) fsgid() int {
	gid, _ := s.setfsgid(-1)
	return gid
}

// setfs*(-1) is always rejected and returns the current value.
func currentFsuid() int {
	uid, _ := unix.SetfsuidRetUid(-1)
	return uid
}

func currentFsgid() int {
	gid, _ := unix.SetfsgidRetGid(-1)
	return gid
}
