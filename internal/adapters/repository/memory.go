package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/okian/alpine/internal/domain/model"
	"github.com/okian/alpine/internal/domain/types"
	"github.com/okian/alpine/pkg/metrics"
)

// MemoryStore keeps the season in process memory. It backs the service when
// no database is configured and every unit test that needs a Store.
type MemoryStore struct {
	mu sync.RWMutex

	events      []model.Event // id is index+1
	eventByDate map[string]int64

	results    []model.PlacementRecord
	resultKeys map[resultKey]struct{}

	qualifiers map[types.Sport][]int64
	runs       map[int64]map[int][]model.PlacementRecord
	runKeys    map[int64]map[int]map[resultKey]struct{}

	closed bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		eventByDate: make(map[string]int64),
		resultKeys:  make(map[resultKey]struct{}),
		qualifiers:  make(map[types.Sport][]int64),
		runs:        make(map[int64]map[int][]model.PlacementRecord),
		runKeys:     make(map[int64]map[int]map[resultKey]struct{}),
	}
}

func observe(op string, start time.Time) {
	metrics.RecordRepositoryQueryLatency(op, float64(time.Since(start).Microseconds())/1000)
}

// GetOrCreateEvent implements Store.
func (s *MemoryStore) GetOrCreateEvent(_ context.Context, date, location string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if id, ok := s.eventByDate[date]; ok {
		return id, nil
	}
	id := int64(len(s.events) + 1)
	s.events = append(s.events, model.Event{ID: id, EventDate: date, Location: location})
	s.eventByDate[date] = id
	return id, nil
}

// MaxRaceID implements Store.
func (s *MemoryStore) MaxRaceID(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	maxID := 0
	for _, r := range s.results {
		maxID = max(maxID, r.RaceID)
	}
	return maxID, nil
}

// InsertResults implements Store.
func (s *MemoryStore) InsertResults(_ context.Context, eventID int64, raceID int, records []model.PlacementRecord) (int, int, error) {
	defer observe("insert_results", time.Now())
	if raceID < 1 {
		return 0, 0, ErrInvalidRace
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, 0, ErrClosed
	}
	ev, ok := s.event(eventID)
	if !ok {
		return 0, 0, ErrEventNotFound
	}

	inserted, skipped := 0, 0
	for _, r := range records {
		k := keyOf(raceID, r)
		if _, dup := s.resultKeys[k]; dup {
			skipped++
			continue
		}
		s.resultKeys[k] = struct{}{}
		r.RaceID = raceID
		r.RaceNumber = 0
		r.EventDate = ev.EventDate
		s.results = append(s.results, r)
		inserted++
	}
	return inserted, skipped, nil
}

// CategoryResults implements Store.
func (s *MemoryStore) CategoryResults(_ context.Context, cat types.Category) ([]model.PlacementRecord, error) {
	defer observe("category_results", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.PlacementRecord{}
	for _, r := range s.results {
		if r.Category() == cat {
			out = append(out, r)
		}
	}
	return numberRaces(out), nil
}

// SportResults implements Store.
func (s *MemoryStore) SportResults(_ context.Context, gender types.Gender, sport types.Sport) ([]model.PlacementRecord, error) {
	defer observe("sport_results", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.PlacementRecord{}
	for _, r := range s.results {
		if r.Gender == gender && r.Sport == sport {
			out = append(out, r)
		}
	}
	return numberRaces(out), nil
}

// Races implements Store.
func (s *MemoryStore) Races(_ context.Context) ([]model.RaceInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type raceKey struct {
		id  int
		cat types.Category
	}
	seen := make(map[raceKey]struct{})
	races := []model.RaceInfo{}
	for _, r := range s.results {
		k := raceKey{r.RaceID, r.Category()}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		races = append(races, model.RaceInfo{RaceID: r.RaceID, Category: k.cat, EventDate: r.EventDate})
	}
	return model.NumberRaces(races), nil
}

// Summary implements Store.
func (s *MemoryStore) Summary(_ context.Context) (model.SeasonSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := model.SeasonSummary{EventCount: len(s.events), ResultCount: len(s.results)}
	ids := make(map[int]struct{})
	for _, r := range s.results {
		ids[r.RaceID] = struct{}{}
	}
	sum.RaceCount = len(ids)
	for _, ev := range s.events {
		if ev.EventDate > sum.LastEventDate {
			sum.LastEventDate = ev.EventDate
		}
	}
	return sum, nil
}

// FlagQualifier implements Store.
func (s *MemoryStore) FlagQualifier(_ context.Context, eventID int64, sport types.Sport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.event(eventID); !ok {
		return ErrEventNotFound
	}
	if !slices.Contains(s.qualifiers[sport], eventID) {
		s.qualifiers[sport] = append(s.qualifiers[sport], eventID)
	}
	return nil
}

// QualifierEvent implements Store.
func (s *MemoryStore) QualifierEvent(_ context.Context, sport types.Sport) (*model.QualifierEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *model.QualifierEvent
	for _, id := range s.qualifiers[sport] {
		ev, _ := s.event(id)
		if latest == nil || ev.EventDate > latest.EventDate {
			latest = &model.QualifierEvent{EventID: id, Sport: sport, EventDate: ev.EventDate}
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

// InsertRun implements Store.
func (s *MemoryStore) InsertRun(_ context.Context, eventID int64, run int, records []model.PlacementRecord) (int, int, error) {
	if !validRun(run) {
		return 0, 0, ErrInvalidRun
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, 0, ErrClosed
	}
	ev, ok := s.event(eventID)
	if !ok {
		return 0, 0, ErrEventNotFound
	}
	if s.runs[eventID] == nil {
		s.runs[eventID] = make(map[int][]model.PlacementRecord)
		s.runKeys[eventID] = make(map[int]map[resultKey]struct{})
	}
	if s.runKeys[eventID][run] == nil {
		s.runKeys[eventID][run] = make(map[resultKey]struct{})
	}

	inserted, skipped := 0, 0
	for _, r := range records {
		k := keyOf(0, r)
		if _, dup := s.runKeys[eventID][run][k]; dup {
			skipped++
			continue
		}
		s.runKeys[eventID][run][k] = struct{}{}
		r.EventDate = ev.EventDate
		s.runs[eventID][run] = append(s.runs[eventID][run], r)
		inserted++
	}
	return inserted, skipped, nil
}

// QualifierRuns implements Store.
func (s *MemoryStore) QualifierRuns(_ context.Context, eventID int64, cat types.Category) ([]model.PlacementRecord, []model.PlacementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pick := func(run int) []model.PlacementRecord {
		var out []model.PlacementRecord
		for _, r := range s.runs[eventID][run] {
			if r.Category() == cat {
				out = append(out, r)
			}
		}
		return out
	}
	return pick(Run1), pick(Run2), nil
}

// Close implements Store. Later writes fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) event(id int64) (model.Event, bool) {
	if id < 1 || int(id) > len(s.events) {
		return model.Event{}, false
	}
	return s.events[id-1], true
}
