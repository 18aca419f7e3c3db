package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// List returns metadata for the immediate children of a directory. Stat and
// MIME detection fan out per entry under the configured concurrency
// ceiling; a MIME failure degrades to "unknown" while a stat failure aborts
// the whole listing. The result order is deterministic regardless of how
// the filesystem returned the entries: case-insensitive by name, ties
// broken by creation time.
func (fs *Filesystem) List(ctx context.Context, p string) ([]Metadata, error) {
	abs := fs.Path(p)

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", p, ErrNotADirectory)
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", p, err)
	}

	out := make([]Metadata, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fs.settings.Concurrency)

	for i, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			md, err := metadataFor(filepath.Join(abs, entry.Name()))
			if err != nil {
				return fmt.Errorf("stat %s: %w", entry.Name(), err)
			}
			out[i] = md
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list %s: %w", p, err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a := strings.ToLower(out[i].Name)
		b := strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].Created.Before(out[j].Created)
	})
	return out, nil
}
