package webfm

import "time"

// Result is the response body of an action. Files is never nil so it always
// encodes as a JSON array.
type Result struct {
	CWD     *FileEntry   `json:"cwd,omitempty"`
	Files   []FileEntry  `json:"files"`
	Details *Details     `json:"details,omitempty"`
	Error   *ActionError `json:"error,omitempty"`
}

// NewResult returns a Result with an empty, non-nil file list.
func NewResult() *Result {
	return &Result{Files: []FileEntry{}}
}

// ActionError is the error object of a response body. Conflicts are carried
// inside a successful Result; failures are rendered with it on their own.
type ActionError struct {
	Code       int      `json:"code"`
	Message    string   `json:"message"`
	FileExists []string `json:"fileExists,omitempty"`
}

// Details describes either one entry or an aggregate of several.
type Details struct {
	Name          string     `json:"name"`
	Size          string     `json:"size"`
	Location      string     `json:"location"`
	Created       *time.Time `json:"created,omitempty"`
	Modified      *time.Time `json:"modified,omitempty"`
	IsFile        bool       `json:"isFile"`
	MultipleFiles bool       `json:"multipleFiles"`
}
