package model

import (
	"cmp"
	"slices"

	"github.com/okian/alpine/internal/domain/types"
)

// Event is a race day.
type Event struct {
	ID        int64  `json:"id"`
	EventDate string `json:"event_date"`
	Location  string `json:"location,omitempty"`
}

// QualifierEvent marks a race day whose two runs decide qualification for a sport.
type QualifierEvent struct {
	EventID   int64       `json:"event_id"`
	Sport     types.Sport `json:"sport"`
	EventDate string      `json:"event_date"`
}

// RaceInfo describes one race in one category.
type RaceInfo struct {
	RaceID    int            `json:"race_id"`
	Sequence  int            `json:"race_number"`
	Category  types.Category `json:"category"`
	EventDate string         `json:"event_date"`
}

// SeasonSummary aggregates counts over everything stored.
type SeasonSummary struct {
	EventCount    int    `json:"event_count"`
	ResultCount   int    `json:"result_count"`
	RaceCount     int    `json:"race_count"`
	LastEventDate string `json:"last_event_date,omitempty"`
}

// NumberRaces assigns per-category sequence numbers to races ordered by RaceID.
// Input order does not matter.
func NumberRaces(races []RaceInfo) []RaceInfo {
	out := make([]RaceInfo, len(races))
	copy(out, races)
	slices.SortStableFunc(out, func(a, b RaceInfo) int {
		if c := cmp.Compare(a.RaceID, b.RaceID); c != 0 {
			return c
		}
		return cmp.Compare(a.Category.Slug(), b.Category.Slug())
	})
	next := make(map[types.Category]int)
	for i := range out {
		next[out[i].Category]++
		out[i].Sequence = next[out[i].Category]
	}
	return out
}
