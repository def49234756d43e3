package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MikhailRaia/pyth/internal/model"
	"github.com/MikhailRaia/pyth/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_ReplaysJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "links.jsonl")
	ctx := context.Background()

	s, err := NewStorage(path)
	require.NoError(t, err)

	require.NoError(t, s.Create(ctx, model.Link{Link: "abc", Target: "https://example.com", Password: "pw"}))
	require.NoError(t, s.Create(ctx, model.Link{Link: "gone", Target: "https://gone.com", Password: "pw"}))
	require.NoError(t, s.Rename(ctx, "abc", "xyz"))
	require.NoError(t, s.UpdateTarget(ctx, "xyz", "https://changed.com"))
	require.NoError(t, s.Delete(ctx, "gone"))

	reopened, err := NewStorage(path)
	require.NoError(t, err)

	got, err := reopened.Get(ctx, "xyz")
	require.NoError(t, err)
	assert.Equal(t, "https://changed.com", got.Target)
	assert.Equal(t, "pw", got.Password)

	_, err = reopened.Get(ctx, "abc")
	assert.ErrorIs(t, err, storage.ErrLinkNotFound)
	_, err = reopened.Get(ctx, "gone")
	assert.ErrorIs(t, err, storage.ErrLinkNotFound)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, strings.Count(string(data), "\n"))
}

func TestStorage_Conflicts(t *testing.T) {
	s, err := NewStorage(filepath.Join(t.TempDir(), "links.jsonl"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, model.Link{Link: "a", Target: "https://a.com"}))
	require.NoError(t, s.Create(ctx, model.Link{Link: "b", Target: "https://b.com"}))

	assert.ErrorIs(t, s.Create(ctx, model.Link{Link: "a"}), storage.ErrLinkExists)
	assert.ErrorIs(t, s.Rename(ctx, "a", "b"), storage.ErrLinkExists)
	assert.ErrorIs(t, s.Rename(ctx, "c", "d"), storage.ErrLinkNotFound)
	assert.ErrorIs(t, s.UpdateTarget(ctx, "c", "https://c.com"), storage.ErrLinkNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "c"), storage.ErrLinkNotFound)
	assert.NoError(t, s.Ping(ctx))
}

func TestNewStorage_CorruptJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{not json}\n"), 0644))

	_, err := NewStorage(path)
	assert.Error(t, err)
}
