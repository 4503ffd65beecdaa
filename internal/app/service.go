// Package service ties the scoring engine to storage, ingestion and export.
// It implements the dependencies required by the HTTP API and the ingest CLI.
package service

import (
	"context"
	"io"
	"sync"

	eventqueue "github.com/okian/alpine/internal/adapters/mq/queue"
	"github.com/okian/alpine/internal/adapters/mq/worker"
	"github.com/okian/alpine/internal/adapters/export"
	"github.com/okian/alpine/internal/adapters/repository"
	"github.com/okian/alpine/internal/domain/dedupe"
	"github.com/okian/alpine/internal/domain/model"
	"github.com/okian/alpine/internal/domain/standings"
	"github.com/okian/alpine/pkg/logger"
	"github.com/okian/alpine/pkg/metrics"
)

// Service implements the standings, ingestion and export operations.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	counter   repository.Counter
	publisher export.Publisher

	// Upload pipeline, built by Start
	deduper dedupe.Deduper
	queue   *eventqueue.InMemoryQueue
	worker  *worker.InMemoryWorker

	// ingestMu keeps race ids in arrival order across the CLI and the worker.
	ingestMu sync.Mutex

	// Configuration
	queueSize        int
	dedupeSize       int
	maxUploadBytes   int
	exhibitionPrefix string

	// closers release connections owned by the service, after the store.
	closers []io.Closer

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the result store. The default is an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCounter sets the race id counter. The default derives ids from the store.
func WithCounter(counter repository.Counter) Option {
	return func(s *Service) {
		if counter != nil {
			s.counter = counter
		}
	}
}

// WithPublisher sets where PublishAll writes exports.
func WithPublisher(p export.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithQueueSize sets the maximum number of pending uploads.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many upload digests are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxUploadBytes caps the size of one uploaded file.
func WithMaxUploadBytes(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithExhibitionPrefix sets the school name prefix that marks the
// exhibition team. An empty prefix disables exhibition handling.
func WithExhibitionPrefix(prefix string) Option {
	return func(s *Service) {
		s.exhibitionPrefix = prefix
	}
}

// WithCloser hands a connection to the service to release on Stop.
func WithCloser(c io.Closer) Option {
	return func(s *Service) {
		if c != nil {
			s.closers = append(s.closers, c)
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Read and batch ingestion operations work right
// away; uploads need Start.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:        64,
		dedupeSize:       10000,
		maxUploadBytes:   4 << 20,
		exhibitionPrefix: standings.DefaultExhibitionPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.counter == nil {
		s.counter = repository.NewStoreCounter(s.store)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start builds the upload pipeline and starts the ingest worker.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting standings service...")

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.worker = worker.NewInMemoryWorker(s.queue, s,
		worker.WithLogger(s.logger),
		worker.WithFailureHook(func(ctx context.Context, u model.Upload, _ error) {
			// let the same file be sent again once the problem is fixed
			s.deduper.Unrecord(ctx, u.Digest)
		}),
	)
	go s.worker.Run(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "standings service started",
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("exhibitionPrefix", s.exhibitionPrefix),
	)
	return nil
}

// Stop closes the upload queue, waits for the worker to drain it until ctx
// ends, then closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info(ctx, "stopping standings service...")

	var err error
	if s.started {
		_ = s.queue.Close()
		err = s.worker.Shutdown(ctx)
		s.started = false
	}
	if cerr := s.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	for _, c := range s.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	s.closers = nil

	s.logger.Info(ctx, "standings service stopped")
	return err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"queueCapacity":    s.queueSize,
		"dedupeSize":       s.dedupeSize,
		"exhibitionPrefix": s.exhibitionPrefix,
		"publisher":        s.publisher != nil,
	}

	if s.started {
		queueLen := s.queue.Len()
		stats["queueLength"] = queueLen
		stats["uploadsSeen"] = s.deduper.Size()
		stats["uploadsProcessed"] = s.worker.Processed()
		stats["uploadsFailed"] = s.worker.Failed()
		metrics.UpdateQueueSize(queueLen)
	}

	if summary, err := s.store.Summary(ctx); err == nil {
		stats["events"] = summary.EventCount
		stats["races"] = summary.RaceCount
		stats["results"] = summary.ResultCount
	}

	return stats
}
