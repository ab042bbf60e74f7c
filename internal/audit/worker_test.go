package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSink struct{}

func (failingSink) Emit(context.Context, Event) error {
	return errors.New("sink down")
}

func TestChannelPublisher_WorkerDrainsToSinks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := NewChannelPublisher(16, nil)
	store := NewMemoryStore()
	worker := NewWorker(pub.Inbox(), nil, NewStorePublisher(store))
	go worker.Run(ctx)

	require.NoError(t, pub.Emit(ctx, Event{Action: ActionCredentialIssued, CredentialCode: "KRGC111111"}))
	require.NoError(t, pub.Emit(ctx, Event{Action: ActionAdmissionGranted, CredentialCode: "KRGC111111"}))

	require.Eventually(t, func() bool {
		return len(store.All()) == 2
	}, time.Second, 10*time.Millisecond)

	events := store.All()
	assert.Equal(t, ActionCredentialIssued, events[0].Action)
	assert.Equal(t, ActionAdmissionGranted, events[1].Action)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestChannelPublisher_FullInboxDropsInsteadOfBlocking(t *testing.T) {
	pub := NewChannelPublisher(1, nil)
	ctx := context.Background()

	// No worker draining: the second emit must return immediately.
	done := make(chan struct{})
	go func() {
		_ = pub.Emit(ctx, Event{Action: ActionAdmissionGranted})
		_ = pub.Emit(ctx, Event{Action: ActionAdmissionGranted})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a full inbox")
	}
}

func TestWorker_SinkFailureDoesNotStopDraining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := NewChannelPublisher(16, nil)
	store := NewMemoryStore()
	// The failing sink runs first; the store sink must still receive.
	worker := NewWorker(pub.Inbox(), nil, failingSink{}, NewStorePublisher(store))
	go worker.Run(ctx)

	require.NoError(t, pub.Emit(ctx, Event{Action: ActionCardsPurged, OwnerRef: "owner-1"}))

	require.Eventually(t, func() bool {
		return len(store.All()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryStore_ListByCredential(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, Event{Action: ActionCredentialIssued, CredentialCode: "KRGC1"}))
	require.NoError(t, store.Append(ctx, Event{Action: ActionCredentialIssued, CredentialCode: "KRGC2"}))
	require.NoError(t, store.Append(ctx, Event{Action: ActionAdmissionGranted, CredentialCode: "KRGC1"}))

	events, err := store.ListByCredential(ctx, "KRGC1")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
