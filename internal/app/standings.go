package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/okian/alpine/internal/adapters/repository"
	"github.com/okian/alpine/internal/domain/model"
	"github.com/okian/alpine/internal/domain/qualifier"
	"github.com/okian/alpine/internal/domain/standings"
	"github.com/okian/alpine/internal/domain/types"
	"github.com/okian/alpine/pkg/metrics"
)

const (
	kindIndividual = "individual"
	kindTeam       = "team"
	kindQualifier  = "qualifier"
)

func observeLeaderboard(kind string, start time.Time) {
	metrics.RecordLeaderboardComputed(kind)
	metrics.RecordLeaderboardLatency(kind, float64(time.Since(start).Microseconds())/1000)
}

// Individual returns the season leaderboard of one category.
func (s *Service) Individual(ctx context.Context, cat types.Category) (standings.Leaderboard, error) {
	start := time.Now()
	records, err := s.store.CategoryResults(ctx, cat)
	if err != nil {
		return standings.Leaderboard{}, fmt.Errorf("load %s results: %w", cat.Slug(), err)
	}
	board := standings.IndividualLeaderboard(records)
	observeLeaderboard(kindIndividual, start)
	return board, nil
}

// Team returns the team leaderboard of one gender and sport, both divisions pooled.
func (s *Service) Team(ctx context.Context, gender types.Gender, sport types.Sport) ([]standings.TeamStanding, error) {
	start := time.Now()
	records, err := s.store.SportResults(ctx, gender, sport)
	if err != nil {
		return nil, fmt.Errorf("load %s %s results: %w", gender, sport, err)
	}
	rows := standings.Team(records, standings.WithExhibitionPrefix(s.exhibitionPrefix))
	observeLeaderboard(kindTeam, start)
	return rows, nil
}

// Qualifiers scores the latest qualifier race day of the category's sport.
// Without a flagged day the result has HasData false.
func (s *Service) Qualifiers(ctx context.Context, cat types.Category) (qualifier.Result, error) {
	start := time.Now()
	event, err := s.store.QualifierEvent(ctx, cat.Sport)
	if errors.Is(err, repository.ErrNotFound) {
		return qualifier.Compute(nil, nil, nil), nil
	}
	if err != nil {
		return qualifier.Result{}, fmt.Errorf("load %s qualifier: %w", cat.Sport, err)
	}
	run1, run2, err := s.store.QualifierRuns(ctx, event.EventID, cat)
	if err != nil {
		return qualifier.Result{}, fmt.Errorf("load %s qualifier runs: %w", cat.Slug(), err)
	}
	res := qualifier.Compute(event, run1, run2)
	observeLeaderboard(kindQualifier, start)
	return res, nil
}

// Summary returns season-wide counts.
func (s *Service) Summary(ctx context.Context) (model.SeasonSummary, error) {
	return s.store.Summary(ctx)
}

// Races lists every stored race, numbered within its category.
func (s *Service) Races(ctx context.Context) ([]model.RaceInfo, error) {
	return s.store.Races(ctx)
}

// RaceResults returns one race of a category in finishing order. raceNumber
// is the 1..K number within the category, not the global race id.
func (s *Service) RaceResults(ctx context.Context, cat types.Category, raceNumber int) ([]model.PlacementRecord, error) {
	if raceNumber < 1 {
		return nil, fmt.Errorf("%w: race number %d", ErrBadRequest, raceNumber)
	}
	records, err := s.store.CategoryResults(ctx, cat)
	if err != nil {
		return nil, fmt.Errorf("load %s results: %w", cat.Slug(), err)
	}
	var out []model.PlacementRecord
	for _, r := range records {
		if r.RaceNumber == raceNumber {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s race %d", ErrRaceNotFound, cat.Slug(), raceNumber)
	}
	slices.SortStableFunc(out, func(a, b model.PlacementRecord) int {
		return cmp.Compare(a.Place, b.Place)
	})
	return out, nil
}
