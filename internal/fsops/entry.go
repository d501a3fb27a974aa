package fsops

import (
	"io/fs"
	"os"
	"path"

	"github.com/brettbedarf/webfm"
	"github.com/brettbedarf/webfm/internal/pathutil"
)

// statEntry builds the FileEntry of hostPath without following symlinks.
// clientPath must be normalized.
func statEntry(hostPath, clientPath string) (webfm.FileEntry, error) {
	info, err := os.Lstat(hostPath)
	if err != nil {
		return webfm.FileEntry{}, err
	}
	return newEntry(info, hostPath, clientPath), nil
}

func newEntry(info fs.FileInfo, hostPath, clientPath string) webfm.FileEntry {
	name := path.Base(clientPath)
	if clientPath == "/" {
		name = ""
	}
	e := webfm.FileEntry{
		Name:         name,
		Path:         clientPath,
		ParentPath:   pathutil.Parent(clientPath),
		IsFile:       info.Mode().IsRegular(),
		DateModified: info.ModTime(),
		DateCreated:  changeTime(info),
		FileType:     pathutil.Ext(name),
		Mode:         rawMode(info),
	}
	if info.IsDir() {
		e.HasChildren = hasChildren(hostPath)
	} else {
		e.Size = info.Size()
	}
	return e
}

// hasChildren reads at most one entry of dir. Unreadable directories report
// no children.
func hasChildren(dir string) bool {
	f, err := os.Open(dir)
	if err != nil {
		return false
	}
	defer f.Close()
	names, _ := f.Readdirnames(1)
	return len(names) > 0
}
