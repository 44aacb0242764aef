package exportstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "exports.db")
	s, err := Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrateIdempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestPutGetRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	entries := []Entry{
		{Name: "Circle", Kind: "class", Path: "geometry.Circle"},
		{Name: "area", Kind: "function", Path: "geometry.area"},
	}
	require.NoError(t, s.Put("geometry", "hash-1", entries))

	got, hash, ok, err := s.Get("geometry")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hash-1", hash)
	assert.Equal(t, entries, got)
}

func TestGetMissingLibrary(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, _, ok, err := s.Get("nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutReplacesPreviousSurface(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.Put("lib", "h1", []Entry{{Name: "Old", Kind: "interface", Path: "lib.Old"}}))
	require.NoError(t, s.Put("lib", "h2", []Entry{{Name: "New", Kind: "enum", Path: "lib.New"}}))

	got, hash, ok, err := s.Get("lib")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "h2", hash)
	require.Len(t, got, 1)
	assert.Equal(t, "New", got[0].Name)
}

func TestFresh(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.Put("lib", "h1", nil))

	fresh, err := s.Fresh("lib", "h1")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = s.Fresh("lib", "h2")
	require.NoError(t, err)
	assert.False(t, fresh)

	fresh, err = s.Fresh("unknown", "h1")
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestEvict(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.Put("lib", "h1", []Entry{{Name: "X", Kind: "class", Path: "lib.X"}}))
	require.NoError(t, s.Evict("lib"))

	_, _, ok, err := s.Get("lib")
	require.NoError(t, err)
	assert.False(t, ok)
}
