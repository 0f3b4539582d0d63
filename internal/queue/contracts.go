package queue

import (
	"context"

	"github.com/creatorpulse/creatorpulse-back/internal/domain"
)

// Producer sends async jobs to a queue backend.
type Producer interface {
	Enqueue(ctx context.Context, message domain.QueueMessage) error
}

// Consumer receives async jobs and executes handlers. A single Consume call
// processes messages sequentially; callers wanting bounded concurrency run
// multiple Consume loops.
type Consumer interface {
	Consume(ctx context.Context, handler func(context.Context, domain.QueueMessage) error) error
}
