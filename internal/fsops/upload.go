package fsops

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/brettbedarf/webfm"
	"github.com/brettbedarf/webfm/internal/pathutil"
)

// SaveUpload writes r to dir under the sanitized form of suggestedName and
// returns the new entry with the number of bytes written. Content is staged
// in a temporary file in dir and renamed into place, so readers never see a
// partial file. An existing file is only replaced when overwrite is set.
func (s *Session) SaveUpload(dir, suggestedName string, r io.Reader, overwrite bool) (webfm.FileEntry, int64, error) {
	dir = pathutil.Normalize(dir)
	name := pathutil.SanitizeName(suggestedName)
	if name == "" {
		return webfm.FileEntry{}, 0, webfm.InvalidInputError("upload", dir, "invalid file name")
	}
	p := pathutil.Join(dir, name)

	var (
		e       webfm.FileEntry
		written int64
	)
	err := s.do(func() error {
		final := s.host(p)
		if !overwrite {
			if _, err := os.Lstat(final); err == nil {
				return &fs.PathError{Op: "upload", Path: final, Err: fs.ErrExist}
			} else if !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}

		tmp, err := os.CreateTemp(s.host(dir), ".webfm-upload-*.tmp")
		if err != nil {
			return err
		}
		tmpName := tmp.Name()

		written, err = io.Copy(tmp, r)
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return err
		}
		// CreateTemp creates files with mode 0600
		if err := tmp.Chmod(0o644); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return err
		}
		if err := tmp.Close(); err != nil {
			os.Remove(tmpName)
			return err
		}
		if err := os.Rename(tmpName, final); err != nil {
			os.Remove(tmpName)
			return err
		}
		e, err = statEntry(final, p)
		return err
	})
	if err != nil {
		return webfm.FileEntry{}, 0, webfm.Classify("upload", p, err)
	}
	s.fs.logger.Debug().Str("path", p).Int64("bytes", written).Str("user", s.username).Msg("Saved upload")
	return e, written, nil
}

// RemoveUpload deletes the file a cancelled upload of suggestedName would
// have produced in dir. Nothing existing is not an error.
func (s *Session) RemoveUpload(dir, suggestedName string) error {
	dir = pathutil.Normalize(dir)
	name := pathutil.SanitizeName(suggestedName)
	if name == "" {
		return webfm.InvalidInputError("upload", dir, "invalid file name")
	}
	p := pathutil.Join(dir, name)
	err := s.do(func() error {
		err := os.Remove(s.host(p))
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	})
	return webfm.Classify("remove", p, err)
}
