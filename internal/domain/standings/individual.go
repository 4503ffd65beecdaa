package standings

import (
	"cmp"
	"slices"

	"github.com/okian/alpine/internal/domain/model"
)

// Drop-score rule: once a category has held DropScoreRaceThreshold races an
// athlete's best CountedLateSeason results count, before that CountedEarlySeason.
const (
	DropScoreRaceThreshold = 6
	CountedEarlySeason     = 3
	CountedLateSeason      = 4
)

// Result is one race result as shown on an athlete's row.
type Result struct {
	RaceNumber int  `json:"race_number"`
	RaceID     int  `json:"race_id"`
	Points     int  `json:"points"`
	Counted    bool `json:"counted"`
}

// AthleteStanding is one row of an individual leaderboard.
type AthleteStanding struct {
	Rank        int      `json:"rank"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	School      string   `json:"school"`
	TotalPoints int      `json:"total_points"`
	RaceCount   int      `json:"race_count"`
	Counting    []Result `json:"top_results"`
	Results     []Result `json:"all_results"`
}

// CountingResults returns how many results count for a category that has held raceCount races.
func CountingResults(raceCount int) int {
	if raceCount >= DropScoreRaceThreshold {
		return CountedLateSeason
	}
	return CountedEarlySeason
}

// Leaderboard is an individual leaderboard together with the number of races
// the category has held, which decides how many results count.
type Leaderboard struct {
	RaceCount int
	Counting  int
	Athletes  []AthleteStanding
}

// RaceCount returns the number of distinct races in records, including races
// whose entrants never scored.
func RaceCount(records []model.PlacementRecord) int {
	races := make(map[int]struct{})
	for _, r := range records {
		races[r.RaceID] = struct{}{}
	}
	return len(races)
}

// IndividualLeaderboard builds the leaderboard of one category and reports
// the race count it was scored against.
func IndividualLeaderboard(records []model.PlacementRecord) Leaderboard {
	k := RaceCount(records)
	return Leaderboard{
		RaceCount: k,
		Counting:  CountingResults(k),
		Athletes:  Individual(records),
	}
}

// athlete is the working state for one athlete while ranking.
type athlete struct {
	key        model.AthleteKey
	school     string
	schoolRace int
	results    []Result    // input order
	byRace     map[int]int // race id -> points, for head-to-head
	desc       []int       // all points, highest first
	total      int
}

// Individual builds the leaderboard for one category. records must all belong
// to the same category and carry RaceNumber.
func Individual(records []model.PlacementRecord) []AthleteStanding {
	if len(records) == 0 {
		return []AthleteStanding{}
	}

	byKey := make(map[model.AthleteKey]*athlete)
	var order []*athlete
	for _, r := range records {
		a, ok := byKey[r.Athlete()]
		if !ok {
			a = &athlete{key: r.Athlete(), byRace: make(map[int]int)}
			byKey[r.Athlete()] = a
			order = append(order, a)
		}
		if a.school == "" || r.RaceID >= a.schoolRace {
			a.school, a.schoolRace = r.School, r.RaceID
		}
		a.results = append(a.results, Result{RaceNumber: r.RaceNumber, RaceID: r.RaceID, Points: r.Points})
		a.byRace[r.RaceID] += r.Points
	}
	top := CountingResults(RaceCount(records))

	scored := make([]*athlete, 0, len(order))
	for _, a := range order {
		if !a.selectCounting(top) {
			continue
		}
		scored = append(scored, a)
	}

	slices.SortStableFunc(scored, func(a, b *athlete) int {
		if c := cmp.Compare(a.key.LastName, b.key.LastName); c != 0 {
			return c
		}
		return cmp.Compare(a.key.FirstName, b.key.FirstName)
	})
	slices.SortStableFunc(scored, compareAthletes)
	ranks := competitionRanks(len(scored), func(prev, cur int) bool {
		return compareAthletes(scored[prev], scored[cur]) == 0
	})

	out := make([]AthleteStanding, len(scored))
	for i, a := range scored {
		out[i] = a.standing(ranks[i])
	}
	return out
}

// selectCounting marks the best top results as counted and computes the total.
// It reports false for athletes who did not score.
func (a *athlete) selectCounting(top int) bool {
	idx := make([]int, len(a.results))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(i, j int) int {
		ri, rj := a.results[i], a.results[j]
		if c := cmp.Compare(rj.Points, ri.Points); c != 0 {
			return c
		}
		return cmp.Compare(ri.RaceNumber, rj.RaceNumber)
	})
	if len(idx) == 0 || a.results[idx[0]].Points == 0 {
		return false
	}

	a.desc = make([]int, len(idx))
	for n, i := range idx {
		a.desc[n] = a.results[i].Points
		if n < top {
			a.results[i].Counted = true
			a.total += a.results[i].Points
		}
	}
	return a.total > 0
}

func (a *athlete) standing(rank int) AthleteStanding {
	all := slices.Clone(a.results)
	slices.SortStableFunc(all, func(x, y Result) int { return cmp.Compare(x.RaceNumber, y.RaceNumber) })
	counting := make([]Result, 0, len(all))
	for _, r := range all {
		if r.Counted {
			counting = append(counting, r)
		}
	}
	return AthleteStanding{
		Rank:        rank,
		FirstName:   a.key.FirstName,
		LastName:    a.key.LastName,
		School:      a.school,
		TotalPoints: a.total,
		RaceCount:   len(all),
		Counting:    counting,
		Results:     all,
	}
}

// compareAthletes orders a before b when it returns a negative number.
// Chain: total, head-to-head in shared races, best results position by
// position, number of results. Zero means a true tie.
func compareAthletes(a, b *athlete) int {
	if c := cmp.Compare(b.total, a.total); c != 0 {
		return c
	}
	if c := headToHead(a, b); c != 0 {
		return c
	}
	n := min(len(a.desc), len(b.desc))
	for i := 0; i < n; i++ {
		if c := cmp.Compare(b.desc[i], a.desc[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(b.desc), len(a.desc))
}

func headToHead(a, b *athlete) int {
	var sumA, sumB int
	for race, pa := range a.byRace {
		pb, ok := b.byRace[race]
		if !ok {
			continue
		}
		sumA += pa
		sumB += pb
	}
	return cmp.Compare(sumB, sumA)
}
