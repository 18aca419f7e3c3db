package filesystem

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ferrumhost/warden/internal/config"
	"github.com/ferrumhost/warden/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCreatesParents(t *testing.T) {
	fs := newTestFS(t)

	require.NoError(t, fs.Write("deep/nested/file.txt", []byte("hello")))

	data, err := os.ReadFile(fs.Path("deep/nested/file.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestReadRoundTrip(t *testing.T) {
	fs := newTestFS(t)

	require.NoError(t, fs.Write("server.log", []byte("line one\nline two\n")))

	content, err := fs.Read("server.log")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", content)
}

func TestReadRejectsDirectories(t *testing.T) {
	fs := newTestFS(t)

	require.NoError(t, fs.Mkdir("logs"))

	_, err := fs.Read("logs")
	assert.ErrorIs(t, err, ErrNotAFile)
}

func TestReadMissingFile(t *testing.T) {
	fs := newTestFS(t)

	_, err := fs.Read("absent.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadSizeCeiling(t *testing.T) {
	fs := New(t.TempDir(), config.FilesConfig{ReadLimit: 64}, logging.NewNop())

	require.NoError(t, fs.Write("exact.bin", bytes.Repeat([]byte("x"), 64)))
	require.NoError(t, fs.Write("over.bin", bytes.Repeat([]byte("x"), 65)))

	content, err := fs.Read("exact.bin")
	require.NoError(t, err)
	assert.Len(t, content, 64)

	_, err = fs.Read("over.bin")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestReadTailSmallFileReturnsWhole(t *testing.T) {
	fs := newTestFS(t)

	content := strings.Repeat("a", 50)
	require.NoError(t, fs.Write("short.log", []byte(content)))

	tail, err := fs.ReadTail("short.log", 100)
	require.NoError(t, err)
	assert.Equal(t, content, tail)
}

func TestReadTailReturnsExactSuffix(t *testing.T) {
	fs := newTestFS(t)

	content := make([]byte, 1000)
	for i := range content {
		content[i] = byte('a' + i%26)
	}
	require.NoError(t, fs.Write("long.log", content))

	tail, err := fs.ReadTail("long.log", 100)
	require.NoError(t, err)
	assert.Len(t, tail, 100)

	full, err := fs.Read("long.log")
	require.NoError(t, err)
	assert.Equal(t, full[len(full)-100:], tail)
}

func TestReadTailDefaultsWhenUnset(t *testing.T) {
	fs := New(t.TempDir(), config.FilesConfig{TailBytes: 10}, logging.NewNop())

	require.NoError(t, fs.Write("app.log", []byte("0123456789abcdef")))

	tail, err := fs.ReadTail("app.log", 0)
	require.NoError(t, err)
	assert.Equal(t, "6789abcdef", tail)
}

func TestReadTailHasNoSizeCeiling(t *testing.T) {
	fs := New(t.TempDir(), config.FilesConfig{ReadLimit: 8}, logging.NewNop())

	require.NoError(t, fs.Write("big.log", []byte("well beyond the read limit")))

	_, err := fs.Read("big.log")
	require.ErrorIs(t, err, ErrTooLarge)

	tail, err := fs.ReadTail("big.log", 5)
	require.NoError(t, err)
	assert.Equal(t, "limit", tail)
}

func TestStatMetadata(t *testing.T) {
	fs := newTestFS(t)

	require.NoError(t, fs.Write("notes.txt", []byte("plain text content")))
	require.NoError(t, fs.Mkdir("saves"))

	md, err := fs.Stat("notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", md.Name)
	assert.Equal(t, int64(18), md.Size)
	assert.True(t, md.File)
	assert.False(t, md.Directory)
	assert.False(t, md.Symlink)
	assert.True(t, strings.HasPrefix(md.Mime, "text/plain"), "got mime %q", md.Mime)
	assert.False(t, md.Modified.IsZero())
	assert.False(t, md.Created.IsZero())

	md, err = fs.Stat("saves")
	require.NoError(t, err)
	assert.True(t, md.Directory)
	assert.False(t, md.File)
	assert.Equal(t, mimeUnknown, md.Mime)
}

func TestStatSymlink(t *testing.T) {
	fs := newTestFS(t)

	require.NoError(t, fs.Write("target.txt", []byte("x")))
	require.NoError(t, os.Symlink(fs.Path("target.txt"), fs.Path("link.txt")))

	md, err := fs.Stat("link.txt")
	require.NoError(t, err)
	assert.True(t, md.Symlink)
	assert.False(t, md.Directory)
}

func TestStatMissingPath(t *testing.T) {
	fs := newTestFS(t)

	_, err := fs.Stat("missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDeleteProtectsRoot(t *testing.T) {
	fs := newTestFS(t)

	tests := []string{"", ".", "/", "a/.."}
	for _, p := range tests {
		t.Run("path "+p, func(t *testing.T) {
			assert.ErrorIs(t, fs.Delete(p), ErrProtectedPath)
		})
	}

	// The root must still be there.
	_, err := os.Stat(fs.Root())
	assert.NoError(t, err)
}

func TestDeleteProtectsRootBehindSymlink(t *testing.T) {
	fs := newTestFS(t)

	require.NoError(t, os.Symlink(fs.Root(), fs.Path("self")))

	assert.ErrorIs(t, fs.Delete("self"), ErrProtectedPath)

	_, err := os.Stat(fs.Root())
	assert.NoError(t, err)
}

func TestDeleteRecursiveAndIdempotent(t *testing.T) {
	fs := newTestFS(t)

	require.NoError(t, fs.Write("world/region/chunk.dat", []byte("data")))

	require.NoError(t, fs.Delete("world"))
	_, err := os.Stat(fs.Path("world"))
	assert.True(t, os.IsNotExist(err))

	// Deleting a missing target counts as success.
	assert.NoError(t, fs.Delete("world"))
}

func TestCopyFile(t *testing.T) {
	fs := newTestFS(t)

	require.NoError(t, fs.Write("config/server.properties", []byte("motd=hello")))

	require.NoError(t, fs.Copy("config/server.properties", "backup/server.properties", CopyOptions{}))

	content, err := fs.Read("backup/server.properties")
	require.NoError(t, err)
	assert.Equal(t, "motd=hello", content)
}

func TestCopyRefusesExistingDestination(t *testing.T) {
	fs := newTestFS(t)

	require.NoError(t, fs.Write("a.txt", []byte("one")))
	require.NoError(t, fs.Write("b.txt", []byte("two")))

	err := fs.Copy("a.txt", "b.txt", CopyOptions{})
	assert.ErrorIs(t, err, ErrDestinationExists)

	require.NoError(t, fs.Copy("a.txt", "b.txt", CopyOptions{Clobber: true}))
	content, err := fs.Read("b.txt")
	require.NoError(t, err)
	assert.Equal(t, "one", content)
}

func TestCopyPreservesTimestamps(t *testing.T) {
	fs := newTestFS(t)

	require.NoError(t, fs.Write("old.txt", []byte("aged")))
	stamp := time.Now().Add(-48 * time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(fs.Path("old.txt"), stamp, stamp))

	require.NoError(t, fs.Copy("old.txt", "kept.txt", CopyOptions{PreserveTimestamps: true}))
	require.NoError(t, fs.Copy("old.txt", "fresh.txt", CopyOptions{}))

	kept, err := os.Stat(fs.Path("kept.txt"))
	require.NoError(t, err)
	assert.Equal(t, stamp, kept.ModTime().Truncate(time.Second))

	fresh, err := os.Stat(fs.Path("fresh.txt"))
	require.NoError(t, err)
	assert.NotEqual(t, stamp, fresh.ModTime().Truncate(time.Second))
}

func TestCopyDirectoryTree(t *testing.T) {
	fs := newTestFS(t)

	require.NoError(t, fs.Write("world/level.dat", []byte("level")))
	require.NoError(t, fs.Write("world/region/r.0.0.mca", []byte("region")))

	require.NoError(t, fs.Copy("world", "world_backup", CopyOptions{}))

	content, err := fs.Read("world_backup/region/r.0.0.mca")
	require.NoError(t, err)
	assert.Equal(t, "region", content)
}

func TestCopyTreeIntoItselfRejected(t *testing.T) {
	fs := newTestFS(t)

	require.NoError(t, fs.Write("world/level.dat", []byte("level")))

	err := fs.Copy("world", "world/backup", CopyOptions{})
	assert.ErrorIs(t, err, ErrSelfTarget)

	_, statErr := os.Stat(fs.Path("world/backup"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDiskUsage(t *testing.T) {
	fs := newTestFS(t)

	require.NoError(t, fs.Write("a/one.bin", bytes.Repeat([]byte("x"), 100)))
	require.NoError(t, fs.Write("a/b/two.bin", bytes.Repeat([]byte("y"), 150)))

	total, err := fs.DiskUsage("a")
	require.NoError(t, err)
	assert.Equal(t, int64(250), total)
}
