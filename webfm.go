// Package webfm holds the domain types shared by the file manager engine and
// its HTTP front end: directory entries, action requests, results and the
// error taxonomy.
package webfm

import "time"

// FileEntry is a point-in-time view of one filesystem entry. It is computed
// on every request and never cached.
type FileEntry struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`       // client path, always absolute
	ParentPath   string    `json:"filterPath"` // containing directory with a trailing slash
	Size         int64     `json:"size"`       // 0 for directories
	IsFile       bool      `json:"isFile"`     // regular files only
	DateModified time.Time `json:"dateModified"`
	DateCreated  time.Time `json:"dateCreated"` // inode change time
	FileType     string    `json:"type"`
	HasChildren  bool      `json:"hasChild"`
	Mode         uint32    `json:"mode"` // raw st_mode bits
}
