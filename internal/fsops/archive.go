package fsops

import (
	"archive/tar"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/brettbedarf/webfm"
	"github.com/brettbedarf/webfm/internal/pathutil"
	"github.com/klauspost/compress/gzip"
)

// Archive writes a gzip compressed tar of paths to w. Each path is stored
// under its base name; directory contents follow recursively beneath it.
func (s *Session) Archive(w io.Writer, paths []string) error {
	err := s.do(func() error {
		gz := gzip.NewWriter(w)
		tw := tar.NewWriter(gz)
		for _, p := range paths {
			p = pathutil.Normalize(p)
			name := path.Base(p)
			if p == "/" {
				name = filepath.Base(s.fs.root)
			}
			if err := addToArchive(tw, s.host(p), name); err != nil {
				return webfm.Classify("archive", p, err)
			}
		}
		if err := tw.Close(); err != nil {
			return err
		}
		return gz.Close()
	})
	if err != nil {
		return webfm.Classify("archive", "", err)
	}
	s.fs.logger.Debug().Strs("paths", paths).Str("user", s.username).Msg("Archived")
	return nil
}

func addToArchive(tw *tar.Writer, hostRoot, name string) error {
	return filepath.WalkDir(hostRoot, func(hp string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		var link string
		if info.Mode()&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(hp); err != nil {
				return err
			}
		}
		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(hostRoot, hp)
		if err != nil {
			return err
		}
		hdr.Name = path.Join(name, filepath.ToSlash(rel))
		if d.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		f, err := os.Open(hp)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
}
