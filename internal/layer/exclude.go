package layer

import (
	"path/filepath"
	"strings"
)

// Excluded reports whether path is excludeRoot itself or lies beneath it.
// Both arguments must be absolute and clean. It performs no I/O.
func Excluded(path, excludeRoot string) bool {
	if excludeRoot == "" {
		return false
	}
	rel, err := filepath.Rel(excludeRoot, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ResolvePath returns the absolute form of p with symlinks evaluated. Paths
// that do not exist yet (an output directory before the first run) are
// resolved through their deepest existing ancestor, so they compare
// correctly with walked paths.
func ResolvePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}

	cur, rest := abs, ""
	for {
		if real, err := filepath.EvalSymlinks(cur); err == nil {
			return filepath.Join(real, rest), nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(cur), rest)
		cur = parent
	}
}
