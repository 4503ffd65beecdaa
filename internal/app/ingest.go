package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"
	eventqueue "github.com/okian/alpine/internal/adapters/mq/queue"
	"github.com/okian/alpine/internal/adapters/parser"
	"github.com/okian/alpine/internal/adapters/repository"
	"github.com/okian/alpine/internal/domain/dedupe"
	"github.com/okian/alpine/internal/domain/model"
	"github.com/okian/alpine/internal/domain/types"
	"github.com/okian/alpine/pkg/logger"
	"github.com/okian/alpine/pkg/metrics"
)

// Batch is one parsed result file ready to be stored.
type Batch struct {
	Name      string
	EventDate string // empty when the file name has no date prefix
	Location  string
	Run       int // 1 or 2 for a qualifier run, 0 for a regular race
	Records   []model.PlacementRecord
}

// Categories returns the categories present in the batch in first-seen order.
func (b Batch) Categories() []types.Category {
	var cats []types.Category
	for _, r := range b.Records {
		if !slices.Contains(cats, r.Category()) {
			cats = append(cats, r.Category())
		}
	}
	return cats
}

// IngestReport describes what happened to one batch.
type IngestReport struct {
	Name     string `json:"name"`
	EventID  int64  `json:"event_id,omitempty"`
	RaceID   int    `json:"race_id,omitempty"` // 0 for qualifier runs
	Run      int    `json:"run,omitempty"`
	Inserted int    `json:"inserted"`
	Skipped  int    `json:"skipped"`
}

func validRun(run int) bool {
	return run == 0 || run == repository.Run1 || run == repository.Run2
}

// ParseBatch reads one result file. Qualifier runs keep their non-finishers.
func ParseBatch(r io.Reader, name string, run int, location string) (Batch, error) {
	if !validRun(run) {
		return Batch{}, fmt.Errorf("%w: run %d", ErrBadRequest, run)
	}
	var opts []parser.Option
	if run != 0 {
		opts = append(opts, parser.WithNonFinishers())
	}
	records, err := parser.Parse(r, name, opts...)
	if err != nil {
		return Batch{}, err
	}
	date, _ := parser.EventDate(name)
	return Batch{
		Name:      name,
		EventDate: date,
		Location:  location,
		Run:       run,
		Records:   records,
	}, nil
}

// NextRaceID returns the race id the next regular batch would most likely
// get. It reserves nothing and is only meant for previews.
func (s *Service) NextRaceID(ctx context.Context) (int, error) {
	maxID, err := s.store.MaxRaceID(ctx)
	if err != nil {
		return 0, err
	}
	return maxID + 1, nil
}

// Ingest stores batches in order. Regular batches each become one race with
// a freshly reserved race id; qualifier runs are stored against their race
// day and flag it for every sport they contain. A batch without an event
// date is reported with ErrNoEventDate and the rest still go in.
func (s *Service) Ingest(ctx context.Context, batches []Batch) ([]IngestReport, error) {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	var (
		reports []IngestReport
		errs    []error
	)

	regular := 0
	for _, b := range batches {
		if b.Run == 0 && b.EventDate != "" && len(b.Records) > 0 {
			regular++
		}
	}
	nextID := 0
	if regular > 0 {
		first, err := s.counter.Reserve(ctx, regular)
		if err != nil {
			return nil, fmt.Errorf("reserve race ids: %w", err)
		}
		nextID = first
	}

	for _, b := range batches {
		if b.EventDate == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrNoEventDate, b.Name))
			s.logger.Warn(ctx, "skipping file without event date", logger.String("name", b.Name))
			continue
		}
		if len(b.Records) == 0 {
			s.logger.Warn(ctx, "skipping file without results", logger.String("name", b.Name))
			reports = append(reports, IngestReport{Name: b.Name, Run: b.Run})
			continue
		}

		var (
			rep IngestReport
			err error
		)
		if b.Run == 0 {
			rep, err = s.ingestRace(ctx, b, nextID)
			nextID++
		} else {
			rep, err = s.ingestRun(ctx, b)
		}
		if err != nil {
			metrics.RecordErrorByComponent("service", "ingest_error")
			return reports, fmt.Errorf("ingest %s: %w", b.Name, err)
		}
		reports = append(reports, rep)
	}
	return reports, errors.Join(errs...)
}

func (s *Service) ingestRace(ctx context.Context, b Batch, raceID int) (IngestReport, error) {
	eventID, err := s.store.GetOrCreateEvent(ctx, b.EventDate, b.Location)
	if err != nil {
		return IngestReport{}, err
	}
	inserted, skipped, err := s.store.InsertResults(ctx, eventID, raceID, b.Records)
	if err != nil {
		return IngestReport{}, err
	}
	for _, cat := range b.Categories() {
		metrics.RecordRaceIngested(cat.Slug())
	}
	metrics.RecordResultsStored(inserted, skipped)
	s.logger.Info(ctx, "race stored",
		logger.String("name", b.Name),
		logger.Int("race_id", raceID),
		logger.Int("inserted", inserted),
		logger.Int("skipped", skipped),
	)
	return IngestReport{
		Name:     b.Name,
		EventID:  eventID,
		RaceID:   raceID,
		Inserted: inserted,
		Skipped:  skipped,
	}, nil
}

func (s *Service) ingestRun(ctx context.Context, b Batch) (IngestReport, error) {
	eventID, err := s.store.GetOrCreateEvent(ctx, b.EventDate, b.Location)
	if err != nil {
		return IngestReport{}, err
	}
	inserted, skipped, err := s.store.InsertRun(ctx, eventID, b.Run, b.Records)
	if err != nil {
		return IngestReport{}, err
	}
	var sports []types.Sport
	for _, cat := range b.Categories() {
		if !slices.Contains(sports, cat.Sport) {
			sports = append(sports, cat.Sport)
		}
	}
	for _, sport := range sports {
		if err := s.store.FlagQualifier(ctx, eventID, sport); err != nil {
			return IngestReport{}, err
		}
	}
	metrics.RecordResultsStored(inserted, skipped)
	s.logger.Info(ctx, "qualifier run stored",
		logger.String("name", b.Name),
		logger.Int("run", b.Run),
		logger.Int64("event_id", eventID),
		logger.Int("inserted", inserted),
		logger.Int("skipped", skipped),
	)
	return IngestReport{
		Name:     b.Name,
		EventID:  eventID,
		Run:      b.Run,
		Inserted: inserted,
		Skipped:  skipped,
	}, nil
}

// IngestUpload parses and stores one queued upload. It is called by the
// ingest worker.
func (s *Service) IngestUpload(ctx context.Context, u model.Upload) error {
	b, err := ParseBatch(bytes.NewReader(u.Body), u.Name, u.Run, u.Location)
	if err != nil {
		return err
	}
	_, err = s.Ingest(ctx, []Batch{b})
	return err
}

// SubmitUpload queues a result file for ingestion. A file whose content was
// already accepted for the same race date and run is reported as a duplicate
// and not queued again.
func (s *Service) SubmitUpload(ctx context.Context, name string, body []byte, run int, location string) (model.Upload, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return model.Upload{}, false, ErrNotStarted
	}
	switch {
	case name == "":
		return model.Upload{}, false, fmt.Errorf("%w: missing file name", ErrBadRequest)
	case len(body) == 0:
		return model.Upload{}, false, fmt.Errorf("%w: empty file", ErrBadRequest)
	case len(body) > s.maxUploadBytes:
		return model.Upload{}, false, fmt.Errorf("%w: file exceeds %d bytes", ErrBadRequest, s.maxUploadBytes)
	case !validRun(run):
		return model.Upload{}, false, fmt.Errorf("%w: run %d", ErrBadRequest, run)
	}
	date, err := parser.EventDate(name)
	if err != nil {
		return model.Upload{}, false, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	u := model.Upload{
		ID:         uuid.NewString(),
		Name:       name,
		Digest:     dedupe.Digest(date, run, body),
		Run:        run,
		Location:   location,
		Body:       body,
		ReceivedAt: time.Now().UTC(),
	}

	if s.deduper.SeenAndRecord(ctx, u.Digest) {
		metrics.RecordUploadDuplicate()
		s.logger.Debug(ctx, "duplicate upload, skipping",
			logger.String("name", name),
			logger.String("digest", u.Digest),
		)
		return u, true, nil
	}

	if err := s.queue.Enqueue(ctx, u); err != nil {
		s.deduper.Unrecord(ctx, u.Digest)
		if errors.Is(err, eventqueue.ErrFull) {
			return model.Upload{}, false, ErrBackpressure
		}
		return model.Upload{}, false, fmt.Errorf("enqueue upload: %w", err)
	}

	metrics.RecordUploadAccepted()
	metrics.UpdateQueueSize(s.queue.Len())
	s.logger.Info(ctx, "upload accepted",
		logger.String("upload_id", u.ID),
		logger.String("name", name),
		logger.Int("run", run),
	)
	return u, false, nil
}
