// Package worker drains the upload queue into the ingestion service.
//
// There is exactly one worker: races are numbered in arrival order, so
// ingestion must stay serialized even though reads run concurrently.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/alpine/internal/domain/model"
	"github.com/okian/alpine/pkg/logger"
	"github.com/okian/alpine/pkg/metrics"
)

// Ingester stores one uploaded result file.
type Ingester interface {
	IngestUpload(ctx context.Context, u model.Upload) error
}

// Queue defines how the worker receives uploads.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Upload
}

// InMemoryWorker processes uploads one at a time.
type InMemoryWorker struct {
	queue    Queue
	ingester Ingester
	name     string

	onFailure func(ctx context.Context, u model.Upload, err error)

	processed atomic.Int64
	failed    atomic.Int64

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, ingester Ingester, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		ingester: ingester,
		name:     "ingest",
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("worker")
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run processes uploads until the queue closes, ctx ends or Shutdown forces a stop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	uploads := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case u, ok := <-uploads:
			if !ok {
				return
			}
			_ = w.process(ctx, u)
		}
	}
}

// Shutdown waits for Run to drain a closed queue. If ctx ends first the
// worker is stopped without finishing the backlog.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.stopOnce.Do(func() { close(w.stop) })
		w.logger.Warn(ctx, "shutdown timed out, abandoning queued uploads")
		return fmt.Errorf("worker shutdown: %w", ctx.Err())
	}
}

// Processed returns how many uploads were ingested.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

// Failed returns how many uploads failed to ingest.
func (w *InMemoryWorker) Failed() int64 { return w.failed.Load() }

func (w *InMemoryWorker) process(ctx context.Context, u model.Upload) error {
	start := time.Now()
	metrics.UpdateWorkerActiveCount(1)
	defer func() {
		metrics.UpdateWorkerActiveCount(0)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.ingester.IngestUpload(ctx, u); err != nil {
		w.failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "ingest_error")
		w.logger.Error(ctx, "upload ingestion failed",
			logger.String("upload_id", u.ID),
			logger.String("name", u.Name),
			logger.Error(err),
		)
		if w.onFailure != nil {
			w.onFailure(ctx, u, err)
		}
		return fmt.Errorf("ingest %s: %w", u.Name, err)
	}

	w.processed.Add(1)
	w.logger.Info(ctx, "upload ingested",
		logger.String("upload_id", u.ID),
		logger.String("name", u.Name),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}
