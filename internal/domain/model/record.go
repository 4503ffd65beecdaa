// Package model contains domain models passed between layers.
package model

import (
	"sort"

	"github.com/okian/alpine/internal/domain/types"
)

// Non-finish statuses recorded by the timing system.
const (
	StatusDNS = "DNS"
	StatusDNF = "DNF"
	StatusDQ  = "DQ"
	StatusDSQ = "DSQ"
)

// PlacementRecord is one athlete's result in one race.
type PlacementRecord struct {
	FirstName string
	LastName  string
	School    string

	Gender   types.Gender
	Sport    types.Sport
	Division types.Division

	RaceID     int // global, monotonic across the season
	RaceNumber int // 1..K within the record's category, set when read back

	Place       int      // 0 when the athlete has no place
	TimeSeconds *float64 // nil when the timing system gave no usable time
	Points      int
	EventDate   string // YYYY-MM-DD
	Status      string // empty for finishers
}

// Category returns the individual category the record belongs to.
func (r PlacementRecord) Category() types.Category {
	return types.Category{Gender: r.Gender, Sport: r.Sport, Division: r.Division}
}

// Athlete returns the athlete identity key.
func (r PlacementRecord) Athlete() AthleteKey {
	return AthleteKey{FirstName: r.FirstName, LastName: r.LastName}
}

// Finished reports whether the record is a placed finish.
func (r PlacementRecord) Finished() bool {
	return r.Status == "" && r.Place > 0
}

// Time returns the elapsed time, or 0 when absent.
func (r PlacementRecord) Time() float64 {
	if r.TimeSeconds == nil {
		return 0
	}
	return *r.TimeSeconds
}

// AthleteKey is the exact-match athlete identity.
type AthleteKey struct {
	FirstName string
	LastName  string
}

// Name renders "First Last".
func (k AthleteKey) Name() string {
	return k.FirstName + " " + k.LastName
}

// RaceSequence maps global race ids to a 1..K sequence in ascending id order.
type RaceSequence map[int]int

// NewRaceSequence numbers the distinct race ids found in records.
func NewRaceSequence(records []PlacementRecord) RaceSequence {
	ids := make([]int, 0, len(records))
	seen := make(map[int]struct{}, len(records))
	for _, r := range records {
		if _, ok := seen[r.RaceID]; ok {
			continue
		}
		seen[r.RaceID] = struct{}{}
		ids = append(ids, r.RaceID)
	}
	sort.Ints(ids)
	seq := make(RaceSequence, len(ids))
	for i, id := range ids {
		seq[id] = i + 1
	}
	return seq
}

// Apply returns a copy of records with RaceNumber filled in.
func (s RaceSequence) Apply(records []PlacementRecord) []PlacementRecord {
	out := make([]PlacementRecord, len(records))
	for i, r := range records {
		r.RaceNumber = s[r.RaceID]
		out[i] = r
	}
	return out
}

// Len is the number of races in the sequence.
func (s RaceSequence) Len() int { return len(s) }
