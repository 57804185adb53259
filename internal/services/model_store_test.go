package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileModelStore(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "models")
	s := NewFileModelStore(dir)

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, ErrNoModelState)

	require.NoError(t, s.Save(ctx, []byte(`{"version":1}`)))
	require.NoError(t, s.Save(ctx, []byte(`{"version":2}`)))

	data, err := s.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":2}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files are cleaned up")
	assert.Equal(t, modelStateFile, entries[0].Name())
}

func TestRedisModelStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()

	s, err := NewRedisModelStore(RedisModelStoreConfig{Addr: addr, Key: "osassistant:test:model_state"})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(ctx, []byte(`{"version":1}`)))
	data, err := s.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1}`, string(data))
	assert.NoError(t, s.Ping(ctx))
}
