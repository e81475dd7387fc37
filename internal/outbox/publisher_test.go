package outbox_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/event-registration/internal/adapters/crdb"
	"github.com/robertarktes/event-registration/internal/observability"
	"github.com/robertarktes/event-registration/internal/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeStore struct {
	mu      sync.Mutex
	pending []crdb.OutboxRecord
	done    []string
}

func (s *fakeStore) PublishPending(ctx context.Context, limit int, publish func(context.Context, crdb.OutboxRecord) error) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	var kept []crdb.OutboxRecord
	for i, rec := range s.pending {
		if i >= limit {
			kept = append(kept, rec)
			continue
		}
		if err := publish(ctx, rec); err != nil {
			kept = append(kept, rec)
			continue
		}
		s.done = append(s.done, rec.DedupeKey)
		n++
	}
	s.pending = kept
	return n, nil
}

type fakeBroker struct {
	mu   sync.Mutex
	keys []string
	fail map[string]bool
}

func (b *fakeBroker) Publish(_ context.Context, key string, msg amqp.Publishing) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail[msg.MessageId] {
		return errors.New("channel closed")
	}
	b.keys = append(b.keys, key)
	return nil
}

func record(eventType, key string) crdb.OutboxRecord {
	return crdb.OutboxRecord{
		ID:        uuid.New(),
		EventType: eventType,
		DedupeKey: key,
		Payload:   []byte(`{}`),
		CreatedAt: time.Now().Add(-time.Second),
	}
}

func TestPublisher_FlushKeepsFailedRecords(t *testing.T) {
	store := &fakeStore{pending: []crdb.OutboxRecord{
		record(crdb.EventRegistrationConfirmed, "a"),
		record(crdb.EventFormSubmitted, "b"),
	}}
	broker := &fakeBroker{fail: map[string]bool{"b": true}}
	p := outbox.NewPublisher(store, broker, observability.NewDiscardLogger())

	n, err := p.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{crdb.EventRegistrationConfirmed}, broker.keys)
	require.Len(t, store.pending, 1)
	assert.Equal(t, "b", store.pending[0].DedupeKey)

	delete(broker.fail, "b")
	n, err = p.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"a", "b"}, store.done)
}

func TestPublisher_RunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &fakeStore{pending: []crdb.OutboxRecord{record(crdb.EventFormSubmitted, "a")}}
	p := outbox.NewPublisher(store, &fakeBroker{}, observability.NewDiscardLogger()).WithInterval(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.done) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
