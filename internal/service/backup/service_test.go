package backup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/harvest/internal/repository/blob"
)

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 5, 3, 0, 9, 0, time.UTC)

	t.Run("nothing to copy", func(t *testing.T) {
		store := blob.NewMemoryStore()
		svc := NewService(store, "harvest_data.csv", "backups/", nil)

		key, err := svc.Snapshot(ctx, now)
		require.NoError(t, err)
		assert.Empty(t, key)
		assert.Empty(t, store.Keys())
	})

	t.Run("copies content", func(t *testing.T) {
		store := blob.NewMemoryStore()
		require.NoError(t, store.Put(ctx, "harvest_data.csv", []byte("ID\n1\n")))
		svc := NewService(store, "harvest_data.csv", "backups/", nil)

		key, err := svc.Snapshot(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, "backups/harvest_data-20240305-030009.csv", key)

		obj, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "ID\n1\n", string(obj.Data))
	})

	t.Run("read failure", func(t *testing.T) {
		svc := NewService(brokenStore{}, "harvest_data.csv", "backups/", nil)
		_, err := svc.Snapshot(ctx, now)
		assert.Error(t, err)
	})
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (blob.Object, error) {
	return blob.Object{}, errors.New("unavailable")
}

func (brokenStore) Put(context.Context, string, []byte, ...blob.PutOption) error {
	return errors.New("unavailable")
}
