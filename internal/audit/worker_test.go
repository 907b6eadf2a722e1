package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorkerFansOutToSinks(t *testing.T) {
	inbox := make(chan Event, 8)
	primary := NewInMemoryStore()
	secondary := NewInMemoryStore()
	worker := NewWorker(inbox, discardLogger(), primary, secondary)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	pub := NewPublisher(inbox, discardLogger())
	pub.Emit(ctx, Event{
		SubjectID:   "parent-1",
		Action:      ActionConsentGranted,
		ConsentType: "analytics",
		Version:     "2025-07",
	})

	require.Eventually(t, func() bool {
		events, err := primary.ListBySubject(context.Background(), "parent-1")
		return err == nil && len(events) == 1
	}, 2*time.Second, 10*time.Millisecond)

	events, err := secondary.ListBySubject(context.Background(), "parent-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestWorkerSurvivesFailingSink(t *testing.T) {
	inbox := make(chan Event, 8)
	store := NewInMemoryStore()
	worker := NewWorker(inbox, discardLogger(), failingSink{}, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	inbox <- Event{ID: "evt-1", Timestamp: time.Now(), SubjectID: "parent-1", Action: ActionConsentDeclined}

	require.Eventually(t, func() bool {
		events, err := store.ListBySubject(context.Background(), "parent-1")
		return err == nil && len(events) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPublisherDropsWhenInboxFull(t *testing.T) {
	inbox := make(chan Event, 1)
	pub := NewPublisher(inbox, discardLogger())

	ctx := context.Background()
	pub.Emit(ctx, Event{Action: ActionConsentGranted})
	// No worker draining: the second emit must not block.
	doneCh := make(chan struct{})
	go func() {
		pub.Emit(ctx, Event{Action: ActionConsentGranted})
		close(doneCh)
	}()
	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full inbox")
	}
}

type failingSink struct{}

func (failingSink) Append(context.Context, Event) error {
	return errors.New("sink down")
}
