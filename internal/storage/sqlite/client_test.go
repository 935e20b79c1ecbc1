package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krug-analyzer/backend/internal/history"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(filepath.Join(t.TempDir(), "krug.db"))
	require.NoError(t, err)
	require.NoError(t, c.InitSchema())
	t.Cleanup(func() { c.Close() })
	return c
}

func TestLoadMissingKey(t *testing.T) {
	c := newTestClient(t)
	_, err := c.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, history.ErrNotFound)
}

func TestSaveOverwrites(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, "settings", []byte(`{"a":1}`)))
	require.NoError(t, c.Save(ctx, "settings", []byte(`{"a":2}`)))

	got, err := c.Load(ctx, "settings")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(got))
	assert.NoError(t, c.Ping(ctx))
}

func TestBacksSettingsStore(t *testing.T) {
	c := newTestClient(t)
	store := history.NewSettingsStore(c)

	s, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
}
