package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// Write writes the full content to the resolved path, creating parent
// directories as needed. When the target is the watched configuration file
// the attached reconciler is told to expect the change, so the watcher does
// not treat the daemon's own write as an external edit.
func (fs *Filesystem) Write(p string, data []byte) error {
	abs := fs.Path(p)

	if fs.rec != nil && abs == fs.rec.path {
		fs.rec.expectOwnWrite()
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", p, err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	return nil
}

// Read returns the whole content of a regular file. Files larger than the
// configured read limit are rejected with ErrTooLarge so a request cannot
// pull an unbounded log into memory.
func (fs *Filesystem) Read(p string) (string, error) {
	abs := fs.Path(p)

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", p, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s: %w", p, ErrNotAFile)
	}
	if info.Size() > fs.settings.ReadLimit {
		return "", fmt.Errorf("%s (%d bytes): %w", p, info.Size(), ErrTooLarge)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", p, err)
	}
	return string(data), nil
}

// ReadTail returns at most the last maxBytes bytes of a regular file. A
// non-positive maxBytes uses the configured default. Unlike Read there is
// no size ceiling; the call is bounded by construction.
func (fs *Filesystem) ReadTail(p string, maxBytes int64) (string, error) {
	abs := fs.Path(p)

	if maxBytes <= 0 {
		maxBytes = fs.settings.TailBytes
	}

	f, err := os.Open(abs)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", p, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", p, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s: %w", p, ErrNotAFile)
	}

	if offset := info.Size() - maxBytes; offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return "", fmt.Errorf("seek %s: %w", p, err)
		}
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", p, err)
	}
	return string(data), nil
}

// Stat returns metadata for the resolved path. MIME detection is best
// effort; a failure degrades to "unknown" instead of propagating.
func (fs *Filesystem) Stat(p string) (Metadata, error) {
	md, err := metadataFor(fs.Path(p))
	if err != nil {
		return Metadata{}, fmt.Errorf("stat %s: %w", p, err)
	}
	return md, nil
}

// Delete recursively removes the resolved target. Removing the instance
// root itself is always rejected; a missing target counts as success.
func (fs *Filesystem) Delete(p string) error {
	abs := fs.Path(p)

	if abs == filepath.Clean(fs.root) {
		return fmt.Errorf("%s: %w", p, ErrProtectedPath)
	}
	// A symlink at the target pointing back at the root must not expose
	// the root to removal either.
	if resolved, err := filepath.EvalSymlinks(abs); err == nil && resolved == fs.realRoot() {
		return fmt.Errorf("%s: %w", p, ErrProtectedPath)
	}

	if err := os.RemoveAll(abs); err != nil {
		return fmt.Errorf("delete %s: %w", p, err)
	}
	return nil
}

// CopyOptions controls Copy behavior. Both flags default to false.
type CopyOptions struct {
	// Clobber allows overwriting an existing destination.
	Clobber bool
	// PreserveTimestamps carries the source modification time over to the
	// destination.
	PreserveTimestamps bool
}

// Copy duplicates a file or directory tree inside the sandbox. An existing
// destination fails with ErrDestinationExists unless Clobber is set.
func (fs *Filesystem) Copy(p, newPath string, opts CopyOptions) error {
	src := fs.Path(p)
	dst := fs.Path(newPath)

	if !opts.Clobber {
		if _, err := os.Lstat(dst); err == nil {
			return fmt.Errorf("%s: %w", newPath, ErrDestinationExists)
		}
	}

	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", p, err)
	}

	if info.IsDir() {
		if fs.IsSelf(newPath, p) {
			return fmt.Errorf("copy %s to %s: %w", p, newPath, ErrSelfTarget)
		}
		return fs.copyTree(src, dst, opts)
	}
	return copyFile(src, dst, info, opts)
}

// copyFile streams one regular file.
func copyFile(src, dst string, info os.FileInfo, opts CopyOptions) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", dst, err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}

	if opts.PreserveTimestamps {
		if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
			return fmt.Errorf("preserve times on %s: %w", dst, err)
		}
	}
	return nil
}

// Mkdir creates a directory (and any missing parents) inside the sandbox.
func (fs *Filesystem) Mkdir(p string) error {
	if err := os.MkdirAll(fs.Path(p), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", p, err)
	}
	return nil
}

// metadataFor builds Metadata from an absolute path. Lstat is used so
// symlinks describe themselves rather than their targets.
func metadataFor(abs string) (Metadata, error) {
	info, err := os.Lstat(abs)
	if err != nil {
		return Metadata{}, err
	}

	md := Metadata{
		Name:      info.Name(),
		Created:   createdTime(info),
		Modified:  info.ModTime(),
		Size:      info.Size(),
		Directory: info.IsDir(),
		File:      info.Mode().IsRegular(),
		Symlink:   info.Mode()&os.ModeSymlink != 0,
		Mime:      mimeUnknown,
	}

	if md.File {
		if mtype, err := mimetype.DetectFile(abs); err == nil {
			md.Mime = mtype.String()
		}
	}
	return md, nil
}

// logOpError records a degraded, non-fatal condition for operators.
func (fs *Filesystem) logOpError(op, path string, err error) {
	fs.log.Warn("filesystem operation degraded",
		zap.String("op", op),
		zap.String("path", path),
		zap.Error(err),
	)
}
