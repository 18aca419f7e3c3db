package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Path resolves a caller-supplied path to an absolute path anchored under
// the instance root. Traversal components are neutralized by rooting the
// path before joining, so the result is always the root itself or a
// descendant of it. Absolute arguments are re-anchored rather than honored.
//
// Path is a pure join/normalize and never fails; symlink defense happens in
// verifyReal at the operations that follow.
func (fs *Filesystem) Path(p string) string {
	return filepath.Join(fs.root, filepath.Join(string(os.PathSeparator), p))
}

// IsSelf reports whether target is equal to or nested under source. Both
// arguments are resolved under the instance root first. Used to reject
// moving a tree into itself, compressing a directory into itself, and
// similar recursive operations.
func (fs *Filesystem) IsSelf(target, source string) bool {
	t := fs.Path(target)
	s := fs.Path(source)
	return t == s || strings.HasPrefix(t, s+string(os.PathSeparator))
}

// realRoot returns the symlink-resolved instance root. When the root itself
// cannot be resolved (for example, it does not exist yet) the raw root is
// used.
func (fs *Filesystem) realRoot() string {
	r, err := filepath.EvalSymlinks(fs.root)
	if err != nil {
		return filepath.Clean(fs.root)
	}
	return r
}

// verifyReal checks that abs, after resolving symlinks, still lives inside
// the instance root. Paths that do not exist yet pass; the join in Path
// already anchors them, and a symlinked parent is caught by resolving the
// deepest existing ancestor.
func (fs *Filesystem) verifyReal(abs string) error {
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			parent := filepath.Dir(abs)
			if parent == abs {
				return fmt.Errorf("%s: %w", abs, ErrOutsideRoot)
			}
			return fs.verifyReal(parent)
		}
		return fmt.Errorf("resolve %s: %w", abs, err)
	}

	root := fs.realRoot()
	if resolved == root || strings.HasPrefix(resolved, root+string(os.PathSeparator)) {
		return nil
	}
	return fmt.Errorf("%s: %w", abs, ErrOutsideRoot)
}
