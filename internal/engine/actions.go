package engine

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/brettbedarf/webfm"
	"github.com/brettbedarf/webfm/internal/fsops"
	"github.com/brettbedarf/webfm/internal/pathutil"
	"github.com/brettbedarf/webfm/internal/util"
)

// session handles the actions of one request.
type session struct {
	fs     *fsops.Session
	logger util.Logger
}

var _ webfm.ActionHandler = (*session)(nil)

func (s *session) Read(a webfm.ReadAction) (*webfm.Result, error) {
	return s.list(a.Path, a.ShowHidden, func(string) bool { return true })
}

func (s *session) Search(a webfm.SearchAction) (*webfm.Result, error) {
	// clients send glob style "*term*"
	needle := strings.Trim(a.SearchString, "*")
	match := func(name string) bool { return strings.Contains(name, needle) }
	if !a.CaseSensitive {
		needle = strings.ToLower(needle)
		match = func(name string) bool { return strings.Contains(strings.ToLower(name), needle) }
	}
	return s.list(a.Path, a.ShowHidden, match)
}

func (s *session) list(dir string, showHidden bool, match func(name string) bool) (*webfm.Result, error) {
	cwd, err := s.fs.Stat(dir)
	if err != nil {
		return nil, err
	}
	entries, err := s.fs.List(dir, showHidden)
	if err != nil {
		return nil, err
	}
	res := webfm.NewResult()
	res.CWD = &cwd
	for _, e := range entries {
		if match(e.Name) {
			res.Files = append(res.Files, e)
		}
	}
	return res, nil
}

func (s *session) Create(a webfm.CreateAction) (*webfm.Result, error) {
	if err := validNames("create", a.Path, a.Name); err != nil {
		return nil, err
	}
	e, err := s.fs.MakeDir(pathutil.Join(a.Path, a.Name))
	if err != nil {
		return nil, err
	}
	res := webfm.NewResult()
	res.Files = append(res.Files, e)
	return res, nil
}

// Delete removes the names in order and stops at the first failure. Names
// before it stay removed; names after it are not attempted.
func (s *session) Delete(a webfm.DeleteAction) (*webfm.Result, error) {
	if err := validNames("delete", a.Path, a.Names...); err != nil {
		return nil, err
	}
	res := webfm.NewResult()
	for _, name := range a.Names {
		p := pathutil.Join(a.Path, name)
		e, err := s.fs.Stat(p)
		if err != nil {
			return nil, s.partial("delete", len(res.Files), len(a.Names), err)
		}
		if err := s.fs.Remove(p); err != nil {
			return nil, s.partial("delete", len(res.Files), len(a.Names), err)
		}
		res.Files = append(res.Files, e)
	}
	return res, nil
}

// Rename refuses to replace an existing entry and reports that as a
// conflict rather than an error.
func (s *session) Rename(a webfm.RenameAction) (*webfm.Result, error) {
	if err := validNames("rename", a.Path, a.Name, a.NewName); err != nil {
		return nil, err
	}
	dst := pathutil.Join(a.Path, a.NewName)
	exists, err := s.fs.Exists(dst)
	if err != nil {
		return nil, err
	}
	res := webfm.NewResult()
	if exists {
		res.Error = &webfm.ActionError{
			Code:    http.StatusBadRequest,
			Message: fmt.Sprintf("Cannot rename %s to %s: destination already exists.", a.Name, a.NewName),
		}
		return res, nil
	}
	e, err := s.fs.Rename(pathutil.Join(a.Path, a.Name), dst)
	if err != nil {
		return nil, err
	}
	res.Files = append(res.Files, e)
	return res, nil
}

func (s *session) Details(a webfm.DetailsAction) (*webfm.Result, error) {
	if len(a.Names) == 0 {
		return nil, webfm.InvalidInputError("details", a.Path, "missing data")
	}
	if err := validNames("details", a.Path, a.Names...); err != nil {
		return nil, err
	}
	entries := make([]webfm.FileEntry, 0, len(a.Names))
	for _, name := range a.Names {
		e, err := s.fs.Stat(pathutil.Join(a.Path, name))
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	res := webfm.NewResult()
	if len(entries) == 1 {
		e := entries[0]
		res.Details = &webfm.Details{
			Name:     e.Name,
			Size:     pathutil.HumanSize(e.Size),
			Location: e.Path,
			Created:  &e.DateCreated,
			Modified: &e.DateModified,
			IsFile:   e.IsFile,
		}
		return res, nil
	}

	var total int64
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		total += e.Size
		names = append(names, e.Name)
	}
	res.Details = &webfm.Details{
		Name:          strings.Join(names, ", "),
		Size:          pathutil.HumanSize(total),
		Location:      "All in " + pathutil.Normalize(a.Path),
		MultipleFiles: true,
	}
	return res, nil
}

// Copy never overwrites: every copy lands under a free name.
func (s *session) Copy(a webfm.CopyAction) (*webfm.Result, error) {
	if err := validNames("copy", a.Path, a.Names...); err != nil {
		return nil, err
	}
	res := webfm.NewResult()
	for _, name := range a.Names {
		e, err := s.fs.Copy(pathutil.Join(a.Path, name), a.TargetPath)
		if err != nil {
			return nil, s.partial("copy", len(res.Files), len(a.Names), err)
		}
		res.Files = append(res.Files, e)
	}
	return res, nil
}

// Move skips names that already exist in the target unless the caller
// listed them in RenameFiles, in which case they move under a free name.
// Skipped names are reported together with the moved files.
func (s *session) Move(a webfm.MoveAction) (*webfm.Result, error) {
	if err := validNames("move", a.Path, a.Names...); err != nil {
		return nil, err
	}
	res := webfm.NewResult()
	var conflicts []string
	for _, name := range a.Names {
		exists, err := s.fs.Exists(pathutil.Join(a.TargetPath, name))
		if err != nil {
			return nil, s.partial("move", len(res.Files), len(a.Names), err)
		}
		if exists && !slices.Contains(a.RenameFiles, name) {
			conflicts = append(conflicts, name)
			continue
		}
		e, err := s.fs.Move(pathutil.Join(a.Path, name), a.TargetPath)
		if err != nil {
			return nil, s.partial("move", len(res.Files), len(a.Names), err)
		}
		res.Files = append(res.Files, e)
	}
	if len(conflicts) > 0 {
		res.Error = &webfm.ActionError{
			Code:       http.StatusBadRequest,
			Message:    "File Already Exists",
			FileExists: conflicts,
		}
	}
	return res, nil
}

// partial logs how far a multi-name action got before err and returns err
// unchanged.
func (s *session) partial(op string, done, total int, err error) error {
	if done > 0 {
		s.logger.Info().Str("op", op).Int("done", done).Int("total", total).Err(err).
			Msg("Stopped after partial completion")
	}
	return err
}

func validNames(op, dir string, names ...string) error {
	for _, name := range names {
		if err := pathutil.ValidName(name); err != nil {
			return webfm.InvalidInputError(op, pathutil.Normalize(dir), err.Error())
		}
	}
	return nil
}
