package webfm

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"syscall"
)

// Kind is the closed set of failure categories surfaced by the file manager.
type Kind int

const (
	// Fatal is any failure that could not be classified. It is the zero value
	// so an uninitialized Kind never masquerades as a client error.
	Fatal Kind = iota
	NotFound
	PermissionDenied
	AlreadyExists
	IsADirectory
	NotADirectory
	InvalidInput
	IO
	Conflict
)

var kindNames = [...]string{
	Fatal:            "fatal",
	NotFound:         "not found",
	PermissionDenied: "permission denied",
	AlreadyExists:    "already exists",
	IsADirectory:     "is a directory",
	NotADirectory:    "not a directory",
	InvalidInput:     "invalid input",
	IO:               "i/o error",
	Conflict:         "conflict",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// HTTPStatus returns the response status used when an error of this kind
// reaches the HTTP boundary.
func (k Kind) HTTPStatus() int {
	switch k {
	case PermissionDenied:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case AlreadyExists, IsADirectory, NotADirectory, InvalidInput, IO, Conflict:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure. Path is always the client-visible path,
// never the location on the host.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

// Sentinels for use with errors.Is. They match any *Error of the same Kind.
var (
	ErrNotFound         = &Error{Kind: NotFound}
	ErrPermissionDenied = &Error{Kind: PermissionDenied}
	ErrAlreadyExists    = &Error{Kind: AlreadyExists}
	ErrIsADirectory     = &Error{Kind: IsADirectory}
	ErrNotADirectory    = &Error{Kind: NotADirectory}
	ErrInvalidInput     = &Error{Kind: InvalidInput}
	ErrIO               = &Error{Kind: IO}
	ErrFatal            = &Error{Kind: Fatal}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Err != nil {
		msg = underlyingError(e.Err).Error()
	}
	switch {
	case e.Op != "" && e.Path != "":
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, msg)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Path, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind. Op and Path are
// ignored so the package sentinels match every classified error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of err, or Fatal when err carries no classification.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Fatal
}

// InvalidInputError builds a structural validation failure.
func InvalidInputError(op, path, msg string) *Error {
	return &Error{Kind: InvalidInput, Op: op, Path: path, Err: errors.New(msg)}
}

// Classify wraps an operating system failure into an *Error. Classification
// is done on the failure itself (errno and io/fs sentinels), never on message
// text. Errors that are already classified pass through unchanged.
func Classify(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	return &Error{Kind: classify(err), Op: op, Path: path, Err: err}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NotFound
	case errors.Is(err, fs.ErrPermission):
		return PermissionDenied
	case errors.Is(err, fs.ErrExist):
		// ENOTEMPTY also reports as fs.ErrExist
		return AlreadyExists
	case errors.Is(err, syscall.EISDIR):
		return IsADirectory
	case errors.Is(err, syscall.ENOTDIR):
		return NotADirectory
	}

	var (
		pathErr *fs.PathError
		linkErr *os.LinkError
		sysErr  *os.SyscallError
		errno   syscall.Errno
	)
	switch {
	case errors.As(err, &pathErr), errors.As(err, &linkErr),
		errors.As(err, &sysErr), errors.As(err, &errno):
		return IO
	}
	return Fatal
}

// underlyingError strips the os wrappers that embed host paths.
func underlyingError(err error) error {
	switch e := err.(type) {
	case *fs.PathError:
		return e.Err
	case *os.LinkError:
		return e.Err
	case *os.SyscallError:
		return e.Err
	}
	return err
}
