package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
)

// walkConfig is shared by every recursive traversal: symlinks are never
// followed, so a link cannot drag a walk outside the sandbox.
var walkConfig = fastwalk.Config{Follow: false}

// copyTree duplicates a directory tree. Parent directories are created per
// entry, so the concurrent walk order does not matter.
func (fs *Filesystem) copyTree(src, dst string, opts CopyOptions) error {
	err := fastwalk.Walk(&walkConfig, src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			// Sockets, devices and symlinks are not replicated.
			return nil
		}
		return copyFile(path, target, info, opts)
	})
	if err != nil {
		return fmt.Errorf("copy tree %s: %w", src, err)
	}
	return nil
}

// DiskUsage returns the total size in bytes of all regular files under the
// resolved path.
func (fs *Filesystem) DiskUsage(p string) (int64, error) {
	abs := fs.Path(p)

	var total atomic.Int64
	err := fastwalk.Walk(&walkConfig, abs, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Mode().IsRegular() {
			total.Add(info.Size())
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("disk usage %s: %w", p, err)
	}
	return total.Load(), nil
}
