//go:build unix

package identity

import (
	"os"
	"sync"
	"syscall"

	"github.com/brettbedarf/webfm/internal/metrics"
)

// serialMu guards the process credentials. Switched work holds it
// exclusively, work running as the server user shares it. It is shared by
// every serialSwitcher since the credentials are process wide.
var serialMu sync.RWMutex

// serialSwitcher changes the effective uid/gid of the whole process.
type serialSwitcher struct{}

func newSerialSwitcher() switcher {
	return serialSwitcher{}
}

func (serialSwitcher) run(id Identity, fn func() error) (result string, err error) {
	serialMu.Lock()
	defer serialMu.Unlock()

	prevUID, prevGID := os.Geteuid(), os.Getegid()
	if err := syscall.Setegid(id.GID); err != nil {
		return metrics.SwitchRejected, fn()
	}
	if err := syscall.Seteuid(id.UID); err != nil {
		syscall.Setegid(prevGID) //nolint:errcheck
		return metrics.SwitchRejected, fn()
	}
	defer func() {
		// uid first: regaining root is what permits resetting the group
		uidErr := syscall.Seteuid(prevUID)
		gidErr := syscall.Setegid(prevGID)
		if uidErr != nil || gidErr != nil {
			err = restoreError()
		}
	}()

	return metrics.SwitchOK, fn()
}

func (serialSwitcher) runUnswitched(fn func() error) error {
	serialMu.RLock()
	defer serialMu.RUnlock()
	return fn()
}
