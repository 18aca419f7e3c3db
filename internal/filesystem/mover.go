package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Move relocates one path or an index-aligned batch of paths. Every pair is
// containment-checked before any rename starts; execution then fans out
// with the configured concurrency ceiling. A pair whose destination already
// exists succeeds without renaming, so a retried batch is idempotent and
// nothing on disk is ever overwritten. Any other failure aborts the batch
// with the first error; completed renames stay in place.
func (fs *Filesystem) Move(ctx context.Context, initial, ending PathArg) error {
	pairs, err := pairPaths(initial, ending)
	if err != nil {
		return err
	}

	for _, pair := range pairs {
		if fs.IsSelf(pair[1], pair[0]) {
			return fmt.Errorf("move %s to %s: %w", pair[0], pair[1], ErrSelfTarget)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fs.settings.Concurrency)

	for _, pair := range pairs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return fs.moveOne(pair[0], pair[1])
		})
	}
	return g.Wait()
}

// moveOne executes a single rename, creating the destination's parent.
// Renames never clobber: an occupied destination is the benign collision
// (a retried batch whose rename already landed) and the pair succeeds
// without touching either path.
func (fs *Filesystem) moveOne(from, to string) error {
	src := fs.Path(from)
	dst := fs.Path(to)

	if _, err := os.Lstat(dst); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", to, err)
	}

	if err := os.Rename(src, dst); err != nil {
		// A concurrent retry may have landed the rename between the
		// existence check and here.
		if moveAlreadyApplied(src, dst) {
			return nil
		}
		return fmt.Errorf("move %s to %s: %w", from, to, err)
	}
	return nil
}

// moveAlreadyApplied reports the idempotent-retry signature: the
// destination exists and the source no longer does.
func moveAlreadyApplied(src, dst string) bool {
	if _, err := os.Lstat(dst); err != nil {
		return false
	}
	_, err := os.Lstat(src)
	return os.IsNotExist(err)
}
