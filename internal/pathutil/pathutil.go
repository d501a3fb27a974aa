// Package pathutil converts client supplied paths and names into safe,
// canonical forms and formats sizes for display.
//
// Client paths are slash separated and always interpreted relative to the
// served root: "/" is the root itself and ".." can never climb above it.
package pathutil

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Normalize returns the canonical absolute form of a client path. Dot
// segments are resolved lexically and anchored at "/", so the result never
// escapes the root.
func Normalize(p string) string {
	return path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
}

// Join joins a single name onto a client directory path.
func Join(dir, name string) string {
	return path.Join(Normalize(dir), name)
}

// Parent returns the containing directory of a client path with a trailing
// slash. The parent of "/" is "/".
func Parent(p string) string {
	dir := path.Dir(Normalize(p))
	if dir == "/" {
		return dir
	}
	return dir + "/"
}

// Resolve maps a client path onto the host filesystem under root.
//
// Containment is lexical: symlinks inside root that point outside it are
// followed by the operations that open them.
func Resolve(root, p string) string {
	return filepath.Join(root, filepath.FromSlash(Normalize(p)))
}

// ValidName reports whether name is usable as a single path component.
func ValidName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("name is empty")
	case name == "." || name == "..":
		return fmt.Errorf("name %q is reserved", name)
	case strings.ContainsAny(name, "/\x00"):
		return fmt.Errorf("name %q must not contain a path separator", name)
	}
	return nil
}

// Ext returns the extension of name including the leading dot. Leading dots
// of hidden files and a trailing dot are not extensions.
func Ext(name string) string {
	stripped := strings.TrimLeft(name, ".")
	i := strings.LastIndexByte(stripped, '.')
	if i < 0 || i == len(stripped)-1 {
		return ""
	}
	return stripped[i:]
}

// SplitExt splits name into base and extension so that base+ext == name.
// Leading dots belong to the base.
func SplitExt(name string) (base, ext string) {
	lead := len(name) - len(strings.TrimLeft(name, "."))
	i := strings.LastIndexByte(name, '.')
	if i < lead {
		return name, ""
	}
	return name[:i], name[i:]
}

// DuplicateName returns the n-th numbered variant of name: "f.txt" becomes
// "f (n).txt". n == 0 returns name unchanged.
func DuplicateName(name string, n int) string {
	if n == 0 {
		return name
	}
	base, ext := SplitExt(name)
	return fmt.Sprintf("%s (%d)%s", base, n, ext)
}

var sizeUnits = [...]string{"", "K", "M", "G", "T", "P", "E", "Z"}

// HumanSize formats a byte count with binary (1024) steps and no decimals,
// e.g. "0 B", "2 KB", "1 GB".
func HumanSize(n int64) string {
	num := float64(n)
	for _, unit := range sizeUnits {
		if num > -1024 && num < 1024 {
			return fmt.Sprintf("%.0f %sB", num, unit)
		}
		num /= 1024
	}
	return fmt.Sprintf("%.0f YB", num)
}
