package fetcher

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// DefaultLimit caps concurrent outbound operations process-wide.
const DefaultLimit = 10

// Queue is the admission gate for outbound I/O. Every HTTP request and
// every file download runs inside a queue slot, so the limit bounds
// total concurrent transfers regardless of call site. Waiters are
// served in FIFO order; a failing task releases its slot like any other.
//
// A single Queue is constructed at wiring time and shared by the
// client and downloader. It is safe for concurrent use.
type Queue struct {
	sem *semaphore.Weighted
}

func NewQueue(limit int) *Queue {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Queue{sem: semaphore.NewWeighted(int64(limit))}
}

// Do runs fn once a slot is free. It returns the context error if ctx
// is done before admission, otherwise fn's error.
func (q *Queue) Do(ctx context.Context, fn func() error) error {
	if err := q.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer q.sem.Release(1)
	return fn()
}
