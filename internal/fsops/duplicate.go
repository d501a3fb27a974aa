package fsops

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/brettbedarf/webfm/internal/pathutil"
)

// resolveDuplicate returns the first free numbered variant of name in the
// host directory dir. Each candidate is distinct and dir holds finitely many
// entries, so the loop ends.
func resolveDuplicate(dir, name string) (string, error) {
	for n := 0; ; n++ {
		candidate := pathutil.DuplicateName(name, n)
		_, err := os.Lstat(filepath.Join(dir, candidate))
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
}
