// Package repository persists race days, placement records and qualifier
// runs, and hands snapshots back to the scoring code.
package repository

import (
	"context"

	"github.com/okian/alpine/internal/domain/model"
	"github.com/okian/alpine/internal/domain/types"
)

// Qualifier run numbers.
const (
	Run1 = 1
	Run2 = 2
)

// Store provides read/write access to the season's results.
//
// Records returned by the read methods carry RaceNumber, numbered 1..K within
// each category in ascending RaceID order.
type Store interface {
	// GetOrCreateEvent returns the id of the race day on date, creating it when absent.
	GetOrCreateEvent(ctx context.Context, date, location string) (int64, error)
	// MaxRaceID returns the highest stored race id, or 0 for an empty season.
	MaxRaceID(ctx context.Context) (int, error)
	// InsertResults stores one race's records in a single batch. Records that
	// repeat an athlete already stored for the same race and category are
	// skipped and counted rather than failing the batch.
	InsertResults(ctx context.Context, eventID int64, raceID int, records []model.PlacementRecord) (inserted, skipped int, err error)

	// CategoryResults returns every record of one individual category.
	CategoryResults(ctx context.Context, cat types.Category) ([]model.PlacementRecord, error)
	// SportResults returns the records of both divisions of a gender and sport.
	SportResults(ctx context.Context, gender types.Gender, sport types.Sport) ([]model.PlacementRecord, error)
	// Races lists every stored race per category, numbered within its category.
	Races(ctx context.Context) ([]model.RaceInfo, error)
	// Summary returns season-wide counts.
	Summary(ctx context.Context) (model.SeasonSummary, error)

	// FlagQualifier marks a race day as the two-run qualifier for a sport.
	FlagQualifier(ctx context.Context, eventID int64, sport types.Sport) error
	// QualifierEvent returns the latest flagged race day for a sport, or
	// ErrNotFound when none is flagged.
	QualifierEvent(ctx context.Context, sport types.Sport) (*model.QualifierEvent, error)
	// InsertRun stores one qualifier run, non-finishers included.
	InsertRun(ctx context.Context, eventID int64, run int, records []model.PlacementRecord) (inserted, skipped int, err error)
	// QualifierRuns returns both runs of a flagged race day for one category.
	// A run with no stored records comes back nil.
	QualifierRuns(ctx context.Context, eventID int64, cat types.Category) (run1, run2 []model.PlacementRecord, err error)

	Close() error
}

// Counter hands out global race ids.
type Counter interface {
	// Reserve claims n consecutive race ids and returns the first.
	Reserve(ctx context.Context, n int) (int, error)
}

// resultKey is the uniqueness key of a stored record.
type resultKey struct {
	raceID  int
	cat     types.Category
	athlete model.AthleteKey
}

func keyOf(raceID int, r model.PlacementRecord) resultKey {
	return resultKey{raceID: raceID, cat: r.Category(), athlete: r.Athlete()}
}

// numberRaces fills RaceNumber per category, keeping the input order.
func numberRaces(records []model.PlacementRecord) []model.PlacementRecord {
	byCat := make(map[types.Category][]model.PlacementRecord)
	for _, r := range records {
		byCat[r.Category()] = append(byCat[r.Category()], r)
	}
	seqs := make(map[types.Category]model.RaceSequence, len(byCat))
	for cat, recs := range byCat {
		seqs[cat] = model.NewRaceSequence(recs)
	}
	out := make([]model.PlacementRecord, len(records))
	for i, r := range records {
		r.RaceNumber = seqs[r.Category()][r.RaceID]
		out[i] = r
	}
	return out
}

func validRun(run int) bool { return run == Run1 || run == Run2 }
