// Package ingest implements the write buffering between the collector's
// HTTP surface and the durable time-series store: a bounded queue per
// payload kind, drained by a batching flusher.
package ingest

import (
	"context"
	"time"

	"github.com/moniflow/moniflow/internal/core/domain"
	"github.com/moniflow/moniflow/pkg/observability"
)

// Queue is a bounded FIFO buffer for one payload kind. Enqueue applies
// backpressure up to a short timeout and then reports the queue as full;
// the HTTP layer maps that to a 503.
type Queue[T any] struct {
	name    string
	items   chan T
	metrics *observability.Metrics
}

// NewQueue creates a bounded queue with the given capacity.
func NewQueue[T any](name string, capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Queue[T]{
		name:    name,
		items:   make(chan T, capacity),
		metrics: observability.GetMetrics(),
	}
}

// Enqueue adds an item, waiting up to wait for capacity. A full queue
// returns domain.ErrQueueFull; a cancelled context returns its error.
func (q *Queue[T]) Enqueue(ctx context.Context, item T, wait time.Duration) error {
	select {
	case q.items <- item:
		q.metrics.QueueDepth.WithLabelValues(q.name).Set(float64(len(q.items)))
		return nil
	default:
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case q.items <- item:
		q.metrics.QueueDepth.WithLabelValues(q.name).Set(float64(len(q.items)))
		return nil
	case <-timer.C:
		q.metrics.EnqueueDropsTotal.WithLabelValues(q.name).Inc()
		return domain.ErrQueueFull
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue removes the oldest item, waiting up to wait for one to arrive.
// An empty queue reports ok=false after the wait elapses.
func (q *Queue[T]) Dequeue(ctx context.Context, wait time.Duration) (T, bool) {
	var zero T

	select {
	case item := <-q.items:
		q.metrics.QueueDepth.WithLabelValues(q.name).Set(float64(len(q.items)))
		return item, true
	default:
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case item := <-q.items:
		q.metrics.QueueDepth.WithLabelValues(q.name).Set(float64(len(q.items)))
		return item, true
	case <-timer.C:
		return zero, false
	case <-ctx.Done():
		return zero, false
	}
}

// Len returns the current queue depth.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Name returns the queue's metric label.
func (q *Queue[T]) Name() string {
	return q.name
}
