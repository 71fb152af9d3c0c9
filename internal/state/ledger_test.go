package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteLedger(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	l, err := OpenSQLite(filepath.Join(dir, "state", "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	out := filepath.Join(dir, "cat-100px.jpg")
	require.NoError(t, os.WriteFile(out, []byte("x"), 0o600))

	fresh, err := l.Fresh(ctx, "img", "cat.jpg", "abc")
	require.NoError(t, err)
	assert.False(t, fresh, "unknown source")

	require.NoError(t, l.Record(ctx, "img", "cat.jpg", "abc", []string{out}))
	fresh, err = l.Fresh(ctx, "img", "cat.jpg", "abc")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = l.Fresh(ctx, "img", "cat.jpg", "def")
	require.NoError(t, err)
	assert.False(t, fresh, "changed hash")

	require.NoError(t, os.Remove(out))
	fresh, err = l.Fresh(ctx, "img", "cat.jpg", "abc")
	require.NoError(t, err)
	assert.False(t, fresh, "missing output")

	require.NoError(t, l.Record(ctx, "img", "cat.jpg", "abc", nil))
	require.NoError(t, l.Forget(ctx, "img"))
	fresh, err = l.Fresh(ctx, "img", "cat.jpg", "abc")
	require.NoError(t, err)
	assert.False(t, fresh, "forgotten")
}

func TestHashFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(p, []byte("pixels"), 0o600))

	h1, err := HashFile(p)
	require.NoError(t, err)
	h2, err := HashFile(p)
	require.NoError(t, err)
	h3, err := HashFile(p, "variants-v2")
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Equal(t, HashBytes([]byte("pixels")), h1)
}

func TestNoopLedger(t *testing.T) {
	var l Ledger = NoopLedger{}
	fresh, err := l.Fresh(context.Background(), "img", "a", "b")
	require.NoError(t, err)
	assert.False(t, fresh)
}
