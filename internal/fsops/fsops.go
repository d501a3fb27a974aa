// Package fsops implements the filesystem primitives behind the file
// manager actions. Every primitive maps client paths under the configured
// root, runs under the caller's identity and returns errors classified by
// webfm.Classify.
package fsops

import (
	"github.com/brettbedarf/webfm"
	"github.com/brettbedarf/webfm/internal/pathutil"
	"github.com/brettbedarf/webfm/internal/util"
)

// FS is the host directory tree served to clients.
type FS struct {
	root     string
	identity webfm.IdentityContext
	logger   util.Logger
}

// New returns an FS serving root. Work is attributed to users through id.
func New(root string, id webfm.IdentityContext) *FS {
	return &FS{
		root:     root,
		identity: id,
		logger:   util.GetLogger("FS"),
	}
}

// Root returns the host directory served as "/".
func (f *FS) Root() string {
	return f.root
}

// As returns a Session whose primitives run as username. An empty username
// runs as the server user.
func (f *FS) As(username string) *Session {
	return &Session{fs: f, username: username}
}

// Session binds the primitives to one user. It is cheap and meant to live
// for a single request.
type Session struct {
	fs       *FS
	username string
}

// do runs fn under the session identity.
func (s *Session) do(fn func() error) error {
	return s.fs.identity.Run(s.username, fn)
}

// host maps a client path to the host filesystem.
func (s *Session) host(p string) string {
	return pathutil.Resolve(s.fs.root, p)
}
