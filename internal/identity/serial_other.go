//go:build !unix

package identity

func newSerialSwitcher() switcher {
	return nil
}
