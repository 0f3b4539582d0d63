package queue

import (
	"context"
	"errors"
	"io"
	"log"
	"sync/atomic"
	"testing"
	"time"

	"github.com/creatorpulse/creatorpulse-back/internal/domain"
)

func TestLocalQueueDeliversMessages(t *testing.T) {
	queue := NewLocalQueue(8, 3, log.New(io.Discard, "", 0))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan domain.QueueMessage, 1)
	go func() {
		_ = queue.Consume(ctx, func(_ context.Context, message domain.QueueMessage) error {
			received <- message
			return nil
		})
	}()

	message := domain.QueueMessage{
		JobID:       "job-1",
		Kind:        domain.JobKindAnalysis,
		VideoID:     "video-1",
		RequestedAt: time.Now().UTC(),
	}
	if err := queue.Enqueue(ctx, message); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case got := <-received:
		if got.JobID != "job-1" || got.Kind != domain.JobKindAnalysis {
			t.Fatalf("unexpected message %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("message was not delivered")
	}
}

func TestLocalQueueRetriesThenMovesToDLQ(t *testing.T) {
	queue := NewLocalQueue(8, 3, log.New(io.Discard, "", 0))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var attempts atomic.Int32
	go func() {
		_ = queue.Consume(ctx, func(_ context.Context, _ domain.QueueMessage) error {
			attempts.Add(1)
			return errors.New("handler failure")
		})
	}()

	if err := queue.Enqueue(ctx, domain.QueueMessage{JobID: "job-1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for queue.DLQSize() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("message never reached the DLQ, attempts=%d", attempts.Load())
		}
		time.Sleep(20 * time.Millisecond)
	}

	if got := attempts.Load(); got != 3 {
		t.Fatalf("expected 3 attempts before DLQ, got %d", got)
	}
}

func TestLocalQueueSupportsMultipleConsumers(t *testing.T) {
	queue := NewLocalQueue(32, 3, log.New(io.Discard, "", 0))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var handled atomic.Int32
	for i := 0; i < 3; i++ {
		go func() {
			_ = queue.Consume(ctx, func(_ context.Context, _ domain.QueueMessage) error {
				handled.Add(1)
				return nil
			})
		}()
	}

	for i := 0; i < 12; i++ {
		if err := queue.Enqueue(ctx, domain.QueueMessage{JobID: "job"}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for handled.Load() < 12 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d of 12 messages handled", handled.Load())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
