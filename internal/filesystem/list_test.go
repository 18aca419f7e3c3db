package filesystem

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCaseInsensitiveOrdering(t *testing.T) {
	fs := newTestFS(t)
	ctx := context.Background()

	for _, name := range []string{"Banana", "apple", "Cherry"} {
		require.NoError(t, fs.Write(name, []byte(name)))
	}

	entries, err := fs.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	names := []string{entries[0].Name, entries[1].Name, entries[2].Name}
	assert.Equal(t, []string{"apple", "Banana", "Cherry"}, names)
}

func TestListMetadataShape(t *testing.T) {
	fs := newTestFS(t)
	ctx := context.Background()

	require.NoError(t, fs.Write("readme.txt", []byte("hello world")))
	require.NoError(t, fs.Mkdir("mods"))

	entries, err := fs.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byName := map[string]Metadata{}
	for _, e := range entries {
		byName[e.Name] = e
	}

	dir := byName["mods"]
	assert.True(t, dir.Directory)
	assert.False(t, dir.File)
	assert.Equal(t, mimeUnknown, dir.Mime)

	file := byName["readme.txt"]
	assert.True(t, file.File)
	assert.Equal(t, int64(11), file.Size)
	assert.True(t, strings.HasPrefix(file.Mime, "text/plain"), "got mime %q", file.Mime)
}

func TestListIsOneLevelOnly(t *testing.T) {
	fs := newTestFS(t)
	ctx := context.Background()

	require.NoError(t, fs.Write("outer/inner/deep.txt", []byte("deep")))

	entries, err := fs.List(ctx, "outer")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "inner", entries[0].Name)
	assert.True(t, entries[0].Directory)
}

func TestListRejectsFiles(t *testing.T) {
	fs := newTestFS(t)
	ctx := context.Background()

	require.NoError(t, fs.Write("single.txt", []byte("x")))

	_, err := fs.List(ctx, "single.txt")
	assert.ErrorIs(t, err, ErrNotADirectory)
}

func TestListManyEntries(t *testing.T) {
	fs := newTestFS(t)
	ctx := context.Background()

	// Well past the fan-out ceiling.
	for i := 0; i < 40; i++ {
		require.NoError(t, fs.Write(fmt.Sprintf("file%02d.txt", i), []byte("x")))
	}

	entries, err := fs.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 40)

	for i := 1; i < len(entries); i++ {
		assert.LessOrEqual(t,
			strings.ToLower(entries[i-1].Name),
			strings.ToLower(entries[i].Name),
		)
	}
}
