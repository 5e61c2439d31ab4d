package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/moniflow/moniflow/pkg/observability"
)

const (
	// DefaultBatchSize is the flush threshold when none is configured.
	DefaultBatchSize = 10
	// DefaultFlushInterval is the age-based flush trigger.
	DefaultFlushInterval = 5 * time.Second

	// itemWait bounds how long one dequeue attempt blocks, so the age
	// check runs at least once a second even when the queue is idle.
	itemWait = time.Second
)

// WriteFunc ships one collected batch to the durable store.
type WriteFunc[T any] func(ctx context.Context, batch []T) error

// Flusher drains a queue into fixed-size batches and writes them out when
// a batch fills or the flush interval elapses with items pending. A
// failed write drops the batch after logging; ingestion is lossy by
// contract, the hot cache path is the low-latency source of truth.
type Flusher[T any] struct {
	queue    *Queue[T]
	write    WriteFunc[T]
	size     int
	interval time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewFlusher creates a flusher for the queue. Non-positive size or
// interval fall back to the defaults.
func NewFlusher[T any](queue *Queue[T], write WriteFunc[T], size int, interval time.Duration, logger *slog.Logger) *Flusher[T] {
	if size <= 0 {
		size = DefaultBatchSize
	}
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	return &Flusher[T]{
		queue:    queue,
		write:    write,
		size:     size,
		interval: interval,
		logger:   logger,
		metrics:  observability.GetMetrics(),
	}
}

// Run drains the queue until the context is cancelled. Whatever is
// buffered at cancellation gets one final flush attempt.
func (f *Flusher[T]) Run(ctx context.Context) {
	for {
		batch := f.collect(ctx)

		if ctx.Err() != nil {
			if final := append(batch, f.drain()...); len(final) > 0 {
				// The run context is gone; give the final write its own
				// deadline so shutdown cannot hang on a slow store.
				flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				f.flush(flushCtx, final)
				cancel()
			}
			return
		}

		if len(batch) > 0 {
			f.flush(ctx, batch)
		}
	}
}

// collect gathers one batch: it returns when the batch fills, when the
// flush interval elapses with items buffered, or when the queue stays
// idle for one dequeue wait.
func (f *Flusher[T]) collect(ctx context.Context) []T {
	batch := make([]T, 0, f.size)
	deadline := time.Now().Add(f.interval)

	for len(batch) < f.size {
		if len(batch) > 0 && time.Now().After(deadline) {
			break
		}
		item, ok := f.queue.Dequeue(ctx, itemWait)
		if !ok {
			break
		}
		batch = append(batch, item)
	}
	return batch
}

// drain empties whatever remains without waiting.
func (f *Flusher[T]) drain() []T {
	var out []T
	for {
		item, ok := f.queue.Dequeue(context.Background(), 0)
		if !ok {
			return out
		}
		out = append(out, item)
	}
}

func (f *Flusher[T]) flush(ctx context.Context, batch []T) {
	batchID := uuid.NewString()
	start := time.Now()

	err := f.write(ctx, batch)
	f.metrics.FlushDuration.WithLabelValues(f.queue.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		// Dropped, not retried. The durable store is best-effort; alert
		// evaluation reads the hot cache and is unaffected.
		f.metrics.FlushesTotal.WithLabelValues(f.queue.Name(), "error").Inc()
		f.logger.Error("flush failed, dropping batch",
			"queue", f.queue.Name(), "batch_id", batchID, "items", len(batch), "error", err)
		return
	}

	f.metrics.FlushesTotal.WithLabelValues(f.queue.Name(), "ok").Inc()
	f.metrics.FlushedItemsTotal.WithLabelValues(f.queue.Name()).Add(float64(len(batch)))
	f.logger.Debug("flushed batch",
		"queue", f.queue.Name(), "batch_id", batchID, "items", len(batch),
		"duration", time.Since(start))
}
