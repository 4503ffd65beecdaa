// Package qualifier scores two-run qualifying events, where schools and
// individuals advance on the lowest sum of finishing places.
package qualifier

import (
	"cmp"
	"slices"

	"github.com/okian/alpine/internal/domain/model"
)

// TeamFinishers is the number of best finishers per run that make a team score.
const TeamFinishers = 3

// Finisher is one run result that counted toward a team score.
type Finisher struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Place       int     `json:"place"`
	TimeSeconds float64 `json:"time_seconds"`
}

// TeamResult is one school in the combined team ranking.
type TeamResult struct {
	Rank        int        `json:"rank"`
	School      string     `json:"school"`
	TotalPlaces int        `json:"total_places"`
	TotalTime   float64    `json:"total_time"`
	Run1        []Finisher `json:"run1_top3"`
	Run2        []Finisher `json:"run2_top3"`
}

// IndividualResult is one athlete in the combined individual ranking.
type IndividualResult struct {
	Rank           int     `json:"rank"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	School         string  `json:"school"`
	Run1Place      int     `json:"run1_place"`
	Run2Place      int     `json:"run2_place"`
	CombinedPlaces int     `json:"combined_places"`
	TotalTime      float64 `json:"total_time"`
}

// Result bundles both rankings for one category of a qualifying event.
type Result struct {
	EventDate  string             `json:"event_date,omitempty"`
	Team       []TeamResult       `json:"team"`
	Individual []IndividualResult `json:"individual"`
	HasData    bool               `json:"has_data"`
}

// Compute scores a flagged event. A nil event or a missing run yields a
// result with HasData false instead of an error.
func Compute(event *model.QualifierEvent, run1, run2 []model.PlacementRecord) Result {
	res := Result{Team: []TeamResult{}, Individual: []IndividualResult{}}
	if event == nil {
		return res
	}
	res.EventDate = event.EventDate
	if run1 == nil || run2 == nil {
		return res
	}
	res.Team = Team(run1, run2)
	winner := ""
	if len(res.Team) > 0 {
		winner = res.Team[0].School
	}
	res.Individual = Individual(run1, run2, winner)
	res.HasData = true
	return res
}

// Team ranks schools that placed at least three finishers in both runs.
func Team(run1, run2 []model.PlacementRecord) []TeamResult {
	first := bySchool(run1)
	second := bySchool(run2)

	teams := []TeamResult{}
	for school, r1 := range first {
		r2, ok := second[school]
		if !ok || len(r1) < TeamFinishers || len(r2) < TeamFinishers {
			continue
		}
		t := TeamResult{School: school}
		t.Run1, t.TotalPlaces, t.TotalTime = best(r1, t.TotalPlaces, t.TotalTime)
		t.Run2, t.TotalPlaces, t.TotalTime = best(r2, t.TotalPlaces, t.TotalTime)
		teams = append(teams, t)
	}

	slices.SortFunc(teams, func(a, b TeamResult) int {
		if c := cmp.Compare(a.TotalPlaces, b.TotalPlaces); c != 0 {
			return c
		}
		if c := cmp.Compare(a.TotalTime, b.TotalTime); c != 0 {
			return c
		}
		return cmp.Compare(a.School, b.School)
	})
	for i := range teams {
		if i > 0 && teams[i].TotalPlaces == teams[i-1].TotalPlaces && teams[i].TotalTime == teams[i-1].TotalTime {
			teams[i].Rank = teams[i-1].Rank
			continue
		}
		teams[i].Rank = i + 1
	}
	return teams
}

// Individual ranks athletes who finished both runs, leaving out the winning
// school's athletes. An empty winningSchool excludes nobody.
func Individual(run1, run2 []model.PlacementRecord, winningSchool string) []IndividualResult {
	second := make(map[model.AthleteKey]model.PlacementRecord)
	for _, r := range run2 {
		if r.Finished() {
			second[r.Athlete()] = r
		}
	}

	out := []IndividualResult{}
	for _, r1 := range run1 {
		if !r1.Finished() {
			continue
		}
		r2, ok := second[r1.Athlete()]
		if !ok {
			continue
		}
		if winningSchool != "" && r1.School == winningSchool {
			continue
		}
		out = append(out, IndividualResult{
			FirstName:      r1.FirstName,
			LastName:       r1.LastName,
			School:         r1.School,
			Run1Place:      r1.Place,
			Run2Place:      r2.Place,
			CombinedPlaces: r1.Place + r2.Place,
			TotalTime:      r1.Time() + r2.Time(),
		})
	}

	slices.SortStableFunc(out, func(a, b IndividualResult) int {
		if c := cmp.Compare(a.CombinedPlaces, b.CombinedPlaces); c != 0 {
			return c
		}
		return cmp.Compare(a.TotalTime, b.TotalTime)
	})
	for i := range out {
		if i > 0 && out[i].CombinedPlaces == out[i-1].CombinedPlaces && out[i].TotalTime == out[i-1].TotalTime {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}

func bySchool(run []model.PlacementRecord) map[string][]model.PlacementRecord {
	m := make(map[string][]model.PlacementRecord)
	for _, r := range run {
		if r.Finished() {
			m[r.School] = append(m[r.School], r)
		}
	}
	return m
}

// best adds a school's three lowest places in one run to the running totals.
func best(run []model.PlacementRecord, places int, seconds float64) ([]Finisher, int, float64) {
	sorted := slices.Clone(run)
	slices.SortStableFunc(sorted, func(a, b model.PlacementRecord) int { return cmp.Compare(a.Place, b.Place) })
	top := make([]Finisher, 0, TeamFinishers)
	for _, r := range sorted[:TeamFinishers] {
		top = append(top, Finisher{
			FirstName:   r.FirstName,
			LastName:    r.LastName,
			Place:       r.Place,
			TimeSeconds: r.Time(),
		})
		places += r.Place
		seconds += r.Time()
	}
	return top, places, seconds
}
