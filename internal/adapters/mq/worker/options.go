package worker

import (
	"context"

	"github.com/okian/alpine/internal/domain/model"
	"github.com/okian/alpine/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithFailureHook runs fn after an upload fails to ingest, for example to
// forget its digest so the file can be sent again.
func WithFailureHook(fn func(ctx context.Context, u model.Upload, err error)) Option {
	return func(w *InMemoryWorker) {
		w.onFailure = fn
	}
}
