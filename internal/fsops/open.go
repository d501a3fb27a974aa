package fsops

import (
	"io"
	"io/fs"
	"os"
	"syscall"

	"github.com/brettbedarf/webfm"
	"github.com/brettbedarf/webfm/internal/pathutil"
	"github.com/gabriel-vasile/mimetype"
)

// File is a regular file opened for download.
type File struct {
	*os.File
	Entry webfm.FileEntry
	// MIME is the content type detected from the leading bytes.
	MIME string
}

// Open opens the regular file at p for reading. The descriptor is obtained
// under the session identity; reading it later needs no further checks.
// Callers must Close the returned File.
func (s *Session) Open(p string) (*File, error) {
	p = pathutil.Normalize(p)
	var file *File
	err := s.do(func() error {
		h := s.host(p)
		f, err := os.Open(h)
		if err != nil {
			return err
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return err
		}
		if !info.Mode().IsRegular() {
			f.Close()
			errno := syscall.EINVAL
			if info.IsDir() {
				errno = syscall.EISDIR
			}
			return &fs.PathError{Op: "open", Path: h, Err: errno}
		}
		mtype, err := mimetype.DetectReader(f)
		if err != nil {
			f.Close()
			return err
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return err
		}
		file = &File{File: f, Entry: newEntry(info, h, p), MIME: mtype.String()}
		return nil
	})
	if err != nil {
		return nil, webfm.Classify("open", p, err)
	}
	return file, nil
}
