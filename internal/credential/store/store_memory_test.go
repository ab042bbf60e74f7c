package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guestpass/internal/credential/models"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("FindByCode for missing code returns nil", func(t *testing.T) {
		s := NewInMemory()
		cred, err := s.FindByCode(ctx, "KRGC000000")
		require.NoError(t, err)
		assert.Nil(t, cred)
	})

	t.Run("Save rejects duplicate codes", func(t *testing.T) {
		s := NewInMemory()
		cred := models.Credential{Code: "KRGC123456", OwnerRef: "o1", Capacity: 2}
		require.NoError(t, s.Save(ctx, cred))

		err := s.Save(ctx, cred)
		assert.ErrorIs(t, err, ErrCodeTaken)
	})

	t.Run("returned credential is a copy", func(t *testing.T) {
		s := NewInMemory()
		require.NoError(t, s.Save(ctx, models.Credential{Code: "KRGC1", OwnerRef: "o1", Capacity: 2}))

		got, err := s.FindByCode(ctx, "KRGC1")
		require.NoError(t, err)
		got.Capacity = 99

		again, err := s.FindByCode(ctx, "KRGC1")
		require.NoError(t, err)
		assert.Equal(t, 2, again.Capacity)
	})

	t.Run("ListByOwner filters by owner", func(t *testing.T) {
		s := NewInMemory()
		require.NoError(t, s.Save(ctx, models.Credential{Code: "KRGC1", OwnerRef: "a", Capacity: 1}))
		require.NoError(t, s.Save(ctx, models.Credential{Code: "KRGC2", OwnerRef: "a", Capacity: 1}))
		require.NoError(t, s.Save(ctx, models.Credential{Code: "KRGC3", OwnerRef: "b", Capacity: 1}))

		creds, err := s.ListByOwner(ctx, "a")
		require.NoError(t, err)
		assert.Len(t, creds, 2)
	})

	t.Run("Delete removes the credential", func(t *testing.T) {
		s := NewInMemory()
		require.NoError(t, s.Save(ctx, models.Credential{Code: "KRGC1", OwnerRef: "a", Capacity: 1}))
		require.NoError(t, s.Delete(ctx, "KRGC1"))

		cred, err := s.FindByCode(ctx, "KRGC1")
		require.NoError(t, err)
		assert.Nil(t, cred)
	})
}

func TestInMemoryStore_ConcurrentSave(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)

	taken := make(chan bool, goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			err := s.Save(ctx, models.Credential{Code: "KRGC777777", OwnerRef: "o", Capacity: 1})
			taken <- err == nil
		}()
	}
	wg.Wait()
	close(taken)

	wins := 0
	for ok := range taken {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent Save may win for a code")
}
