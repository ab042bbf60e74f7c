//go:build integration

package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guestpass/internal/admission/models"
	"guestpass/pkg/testutil/containers"
)

func TestRedisStore_Integration(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedis(rc.Client)
	ctx := context.Background()

	t.Run("redeem to capacity then deny", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		at := time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC)

		record, applied, err := store.Redeem(ctx, "KRGC100001", 1, "gate-a", at)
		require.NoError(t, err)
		require.True(t, applied)
		assert.Equal(t, 1, record.ScanCount)
		assert.Equal(t, models.StatusRedeemed, record.Status)

		record, applied, err = store.Redeem(ctx, "KRGC100001", 1, "gate-b", at.Add(time.Minute))
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, "gate-a", record.LastScannedBy)
	})

	t.Run("get round trips the stored record", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		at := time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)

		_, _, err := store.Redeem(ctx, "KRGC100002", 3, "gate-a", at)
		require.NoError(t, err)

		record, err := store.Get(ctx, "KRGC100002")
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, "KRGC100002", record.CredentialCode)
		assert.Equal(t, 1, record.ScanCount)
		assert.Equal(t, 3, record.Capacity)
		assert.True(t, at.Equal(record.LastScannedAt))
	})

	t.Run("get unknown code returns nil", func(t *testing.T) {
		record, err := store.Get(ctx, "KRGC999999")
		require.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("concurrent redeems never exceed capacity", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		const capacity = 3
		const workers = 20

		var wg sync.WaitGroup
		var granted atomic.Int64
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, applied, err := store.Redeem(ctx, "KRGC100003", capacity, "gate-a", time.Now())
				require.NoError(t, err)
				if applied {
					granted.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(capacity), granted.Load())

		record, err := store.Get(ctx, "KRGC100003")
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, capacity, record.ScanCount)
		assert.True(t, record.InvariantsHold())
	})
}
