//go:build !linux

package identity

func newThreadSwitcher() switcher {
	return newSerialSwitcher()
}
