package filesystem

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	archivePrefix    = "archive-"
	archiveExtension = ".tar.gz"
)

// newArchiveName generates a unique archive filename for one compress call.
func newArchiveName() string {
	token := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return archivePrefix + token + archiveExtension
}

// Compress packs one or more sources into a fresh tar.gz inside toDir and
// returns the generated archive filename.
//
// A single source whose subtree contains toDir is rejected with
// ErrSelfTarget. In batch form such sources are silently skipped instead;
// the survivors are packed with names relative to the instance root and the
// archive name is returned even when entries were dropped. When every
// candidate is dropped the call fails with ErrNoValidEntries.
func (fs *Filesystem) Compress(ctx context.Context, files PathArg, toDir string) (string, error) {
	type entry struct {
		abs  string // absolute path of the source
		base string // entry names are recorded relative to this directory
	}

	var entries []entry
	if files.IsBatch() {
		for _, src := range files.Paths() {
			if fs.IsSelf(toDir, src) {
				fs.log.Debug("skipping self-referential archive source",
					zap.String("source", src),
					zap.String("destination", toDir),
				)
				continue
			}
			entries = append(entries, entry{abs: fs.Path(src), base: fs.root})
		}
		if len(entries) == 0 {
			return "", fmt.Errorf("compress into %s: %w", toDir, ErrNoValidEntries)
		}
	} else {
		paths := files.Paths()
		if len(paths) == 0 {
			return "", fmt.Errorf("compress into %s: %w", toDir, ErrInvalidArgument)
		}
		src := paths[0]
		if fs.IsSelf(toDir, src) {
			return "", fmt.Errorf("compress %s into %s: %w", src, toDir, ErrSelfTarget)
		}
		abs := fs.Path(src)
		entries = append(entries, entry{abs: abs, base: filepath.Dir(abs)})
	}

	destDir := fs.Path(toDir)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", toDir, err)
	}

	name := newArchiveName()
	out, err := os.Create(filepath.Join(destDir, name))
	if err != nil {
		return "", fmt.Errorf("create archive in %s: %w", toDir, err)
	}
	defer out.Close()

	gw := gzip.NewWriter(out)
	tw := tar.NewWriter(gw)

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := fs.packTree(ctx, tw, e.abs, e.base); err != nil {
			return "", fmt.Errorf("pack %s: %w", e.abs, err)
		}
	}

	if err := tw.Close(); err != nil {
		return "", fmt.Errorf("finalize archive %s: %w", name, err)
	}
	if err := gw.Close(); err != nil {
		return "", fmt.Errorf("finalize archive %s: %w", name, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("finalize archive %s: %w", name, err)
	}
	return name, nil
}

// packTree writes one file or directory tree into the archive with entry
// names relative to base. A regular-file source is packed directly; only
// directories are walked. The walk runs callbacks concurrently, so writes
// to the shared tar stream are serialized.
func (fs *Filesystem) packTree(ctx context.Context, tw *tar.Writer, abs, base string) error {
	info, err := os.Lstat(abs)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			// Device nodes and symlinks are not carried into archives.
			return nil
		}
		return packEntry(tw, abs, base, info)
	}

	var mu sync.Mutex

	return fastwalk.Walk(&walkConfig, abs, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !d.IsDir() && !info.Mode().IsRegular() {
			return nil
		}

		mu.Lock()
		defer mu.Unlock()
		return packEntry(tw, path, base, info)
	})
}

// packEntry writes one header, and for a regular file its content, into
// the tar stream with the name recorded relative to base.
func packEntry(tw *tar.Writer, path, base string, info os.FileInfo) error {
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == "." {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = filepath.ToSlash(rel)

	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	if info.IsDir() {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}

// Decompress unpacks one archive or a batch of archives, each into the
// directory that contains it, stripping exactly one leading path component
// from every entry. Batches run with the configured concurrency ceiling.
func (fs *Filesystem) Decompress(ctx context.Context, files PathArg) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fs.settings.Concurrency)

	for _, archive := range files.Paths() {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return fs.extractOne(ctx, archive)
		})
	}
	return g.Wait()
}

// extractOne unpacks a single archive into its containing directory.
func (fs *Filesystem) extractOne(ctx context.Context, archive string) error {
	abs := fs.Path(archive)
	destDir := filepath.Dir(abs)

	if err := fs.verifyReal(destDir); err != nil {
		return fmt.Errorf("extract %s: %w", archive, err)
	}

	f, err := os.Open(abs)
	if err != nil {
		return fmt.Errorf("open %s: %w", archive, err)
	}
	defer f.Close()

	tr, closer, err := tarReaderFor(archive, f)
	if err != nil {
		return fmt.Errorf("open %s: %w", archive, err)
	}
	if closer != nil {
		defer closer()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", archive, err)
		}

		name := stripLeadingComponent(header.Name)
		if name == "" {
			continue
		}

		target := filepath.Join(destDir, filepath.FromSlash(name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			// Entry tries to slip outside the destination.
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("extract %s: %w", archive, err)
			}
		case tar.TypeReg:
			if err := writeExtracted(target, tr, header); err != nil {
				return fmt.Errorf("extract %s: %w", archive, err)
			}
		default:
			fs.logOpError("decompress", archive,
				fmt.Errorf("unsupported entry type %q for %s", header.Typeflag, header.Name))
		}
	}
}

// writeExtracted materializes one regular file from the tar stream.
func writeExtracted(target string, tr *tar.Reader, header *tar.Header) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	mode := os.FileMode(header.Mode).Perm()
	if mode == 0 {
		mode = 0o644
	}

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, tr); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// tarReaderFor wraps the archive stream with the matching decompressor
// based on the filename, mirroring how the daemon names its own archives.
func tarReaderFor(name string, f *os.File) (*tar.Reader, func(), error) {
	switch {
	case strings.HasSuffix(name, ".gz") || strings.HasSuffix(name, ".tgz"):
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, nil, err
		}
		return tar.NewReader(gr), func() { gr.Close() }, nil
	case strings.HasSuffix(name, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, nil, err
		}
		return tar.NewReader(zr), zr.Close, nil
	default:
		return tar.NewReader(f), nil, nil
	}
}

// stripLeadingComponent drops the first path element of a tar entry name,
// honoring the convention that an archive carries one top-level folder.
func stripLeadingComponent(name string) string {
	name = strings.TrimPrefix(filepath.ToSlash(name), "./")
	name = strings.TrimPrefix(name, "/")
	_, rest, found := strings.Cut(name, "/")
	if !found {
		return ""
	}
	return strings.TrimSuffix(rest, "/")
}
