package fsops

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/brettbedarf/webfm"
	"github.com/brettbedarf/webfm/internal/pathutil"
)

// List returns the direct children of dir, sorted by name. Names starting
// with a dot are skipped unless showHidden is set.
func (s *Session) List(dir string, showHidden bool) ([]webfm.FileEntry, error) {
	dir = pathutil.Normalize(dir)
	entries := []webfm.FileEntry{}
	err := s.do(func() error {
		hostDir := s.host(dir)
		dirents, err := os.ReadDir(hostDir)
		if err != nil {
			return err
		}
		for _, d := range dirents {
			if !showHidden && strings.HasPrefix(d.Name(), ".") {
				continue
			}
			e, err := statEntry(filepath.Join(hostDir, d.Name()), pathutil.Join(dir, d.Name()))
			if errors.Is(err, fs.ErrNotExist) {
				// removed since the directory was read
				continue
			}
			if err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, webfm.Classify("list", dir, err)
	}
	s.fs.logger.Trace().Str("path", dir).Int("entries", len(entries)).Msg("Listed directory")
	return entries, nil
}

// Stat returns the entry at p. Symlinks describe themselves.
func (s *Session) Stat(p string) (webfm.FileEntry, error) {
	p = pathutil.Normalize(p)
	var e webfm.FileEntry
	err := s.do(func() (err error) {
		e, err = statEntry(s.host(p), p)
		return err
	})
	return e, webfm.Classify("stat", p, err)
}

// Exists reports whether anything, including a dangling symlink, exists at p.
func (s *Session) Exists(p string) (bool, error) {
	p = pathutil.Normalize(p)
	var exists bool
	err := s.do(func() error {
		_, err := os.Lstat(s.host(p))
		switch {
		case err == nil:
			exists = true
		case errors.Is(err, fs.ErrNotExist):
		default:
			return err
		}
		return nil
	})
	return exists, webfm.Classify("stat", p, err)
}

// MakeDir creates the directory p. Its parent must exist.
func (s *Session) MakeDir(p string) (webfm.FileEntry, error) {
	p = pathutil.Normalize(p)
	var e webfm.FileEntry
	err := s.do(func() error {
		h := s.host(p)
		if err := os.Mkdir(h, 0o777); err != nil {
			return err
		}
		var err error
		e, err = statEntry(h, p)
		return err
	})
	if err != nil {
		return webfm.FileEntry{}, webfm.Classify("mkdir", p, err)
	}
	s.fs.logger.Debug().Str("path", p).Str("user", s.username).Msg("Created directory")
	return e, nil
}

// Remove deletes p: files and symlinks are unlinked, directories removed
// recursively. A missing p is reported as NotFound.
func (s *Session) Remove(p string) error {
	p = pathutil.Normalize(p)
	if err := checkNotRoot("remove", p); err != nil {
		return err
	}
	err := s.do(func() error {
		h := s.host(p)
		info, err := os.Lstat(h)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return os.RemoveAll(h)
		}
		return os.Remove(h)
	})
	if err != nil {
		return webfm.Classify("remove", p, err)
	}
	s.fs.logger.Debug().Str("path", p).Str("user", s.username).Msg("Removed")
	return nil
}

// Rename renames src to dst without checking for an existing dst.
func (s *Session) Rename(src, dst string) (webfm.FileEntry, error) {
	src, dst = pathutil.Normalize(src), pathutil.Normalize(dst)
	var e webfm.FileEntry
	err := s.do(func() error {
		if err := os.Rename(s.host(src), s.host(dst)); err != nil {
			return err
		}
		var err error
		e, err = statEntry(s.host(dst), dst)
		return err
	})
	if err != nil {
		return webfm.FileEntry{}, webfm.Classify("rename", src, err)
	}
	s.fs.logger.Debug().Str("src", src).Str("dst", dst).Str("user", s.username).Msg("Renamed")
	return e, nil
}

// Move moves src into dstDir under a free name and returns the moved entry.
// Moves across filesystems fall back to copy and delete.
func (s *Session) Move(src, dstDir string) (webfm.FileEntry, error) {
	src, dstDir = pathutil.Normalize(src), pathutil.Normalize(dstDir)
	if err := checkNotRoot("move", src); err != nil {
		return webfm.FileEntry{}, err
	}
	var e webfm.FileEntry
	err := s.do(func() error {
		hsrc := s.host(src)
		if _, err := os.Lstat(hsrc); err != nil {
			return err
		}
		name, err := resolveDuplicate(s.host(dstDir), filepath.Base(hsrc))
		if err != nil {
			return err
		}
		hdst := filepath.Join(s.host(dstDir), name)
		if err := os.Rename(hsrc, hdst); err != nil {
			if !errors.Is(err, syscall.EXDEV) {
				return err
			}
			if err := copyTree(hsrc, hdst); err != nil {
				return err
			}
			if err := os.RemoveAll(hsrc); err != nil {
				return err
			}
		}
		e, err = statEntry(hdst, pathutil.Join(dstDir, name))
		return err
	})
	if err != nil {
		return webfm.FileEntry{}, webfm.Classify("move", src, err)
	}
	s.fs.logger.Debug().Str("src", src).Str("dst", e.Path).Str("user", s.username).Msg("Moved")
	return e, nil
}

// Copy copies src into dstDir under a free name and returns the new entry.
// Directories are copied recursively; modes and times are preserved and
// symlinks are copied as symlinks.
func (s *Session) Copy(src, dstDir string) (webfm.FileEntry, error) {
	src, dstDir = pathutil.Normalize(src), pathutil.Normalize(dstDir)
	if err := checkNotRoot("copy", src); err != nil {
		return webfm.FileEntry{}, err
	}
	if dstDir == src || strings.HasPrefix(dstDir, src+"/") {
		return webfm.FileEntry{}, webfm.InvalidInputError("copy", src, "cannot copy a directory into itself")
	}
	var e webfm.FileEntry
	err := s.do(func() error {
		hsrc := s.host(src)
		if _, err := os.Lstat(hsrc); err != nil {
			return err
		}
		name, err := resolveDuplicate(s.host(dstDir), filepath.Base(hsrc))
		if err != nil {
			return err
		}
		hdst := filepath.Join(s.host(dstDir), name)
		if err := copyTree(hsrc, hdst); err != nil {
			return err
		}
		e, err = statEntry(hdst, pathutil.Join(dstDir, name))
		return err
	})
	if err != nil {
		return webfm.FileEntry{}, webfm.Classify("copy", src, err)
	}
	s.fs.logger.Debug().Str("src", src).Str("dst", e.Path).Str("user", s.username).Msg("Copied")
	return e, nil
}

func checkNotRoot(op, p string) error {
	if p == "/" {
		return webfm.InvalidInputError(op, p, "not permitted on the root directory")
	}
	return nil
}
