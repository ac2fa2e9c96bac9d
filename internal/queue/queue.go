package queue

import (
	"context"
	"errors"
)

// ErrEmpty is returned by Dequeue when no work item is waiting.
var ErrEmpty = errors.New("queue is empty")

// WorkQueue carries opaque work-item identifiers to background consumers.
// Delivery is at least once; ordering is not guaranteed. Implementations are
// injected into services, never reached through package globals.
type WorkQueue interface {
	Enqueue(ctx context.Context, id string) error
	Dequeue(ctx context.Context) (string, error)
	Length(ctx context.Context) (int64, error)
}

// Noop discards enqueued items. Used in compositions without a broker,
// e.g. the migrate and seed commands.
type Noop struct{}

func (Noop) Enqueue(ctx context.Context, id string) error { return nil }

func (Noop) Dequeue(ctx context.Context) (string, error) { return "", ErrEmpty }

func (Noop) Length(ctx context.Context) (int64, error) { return 0, nil }
