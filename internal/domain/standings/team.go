package standings

import (
	"cmp"
	"slices"
	"strings"

	"github.com/okian/alpine/internal/domain/model"
	"github.com/okian/alpine/internal/domain/types"
)

// Team caps from the association bylaws.
const (
	MaxScoresPerAthlete = 4
	MaxScoresPerTeam    = 12
)

// DefaultExhibitionPrefix names the school entry that is shown but never ranked.
const DefaultExhibitionPrefix = "Exhibition"

// ContributingScore is one result that counted toward a school's total.
type ContributingScore struct {
	Score       int            `json:"score"`
	AthleteName string         `json:"athlete_name"`
	RaceNumber  int            `json:"race_number"`
	Division    types.Division `json:"division"`
}

// TeamStanding is one row of a team leaderboard. Rank 0 means the school is
// displayed but excluded from ranking.
type TeamStanding struct {
	Rank         int                 `json:"rank"`
	School       string              `json:"school"`
	TotalPoints  float64             `json:"total_points"`
	Contributing []ContributingScore `json:"contributing_scores"`
}

// Ranked reports whether the school holds a rank.
func (t TeamStanding) Ranked() bool { return t.Rank > 0 }

// TeamOption configures Team.
type TeamOption func(*teamConfig)

type teamConfig struct {
	exhibitionPrefix string
}

// WithExhibitionPrefix sets the literal school-name prefix that marks the
// exhibition entry. An empty prefix disables the exception.
func WithExhibitionPrefix(prefix string) TeamOption {
	return func(c *teamConfig) {
		c.exhibitionPrefix = prefix
	}
}

// Team builds the team leaderboard for one gender and sport from records of
// both divisions.
func Team(records []model.PlacementRecord, opts ...TeamOption) []TeamStanding {
	cfg := teamConfig{exhibitionPrefix: DefaultExhibitionPrefix}
	for _, opt := range opts {
		opt(&cfg)
	}

	type athleteKey struct {
		school string
		model.AthleteKey
	}
	var schools []string
	bySchool := make(map[string][]athleteKey)
	byAthlete := make(map[athleteKey][]model.PlacementRecord)
	for _, r := range records {
		key := athleteKey{school: r.School, AthleteKey: r.Athlete()}
		if _, ok := bySchool[r.School]; !ok {
			schools = append(schools, r.School)
		}
		if _, ok := byAthlete[key]; !ok {
			bySchool[r.School] = append(bySchool[r.School], key)
		}
		byAthlete[key] = append(byAthlete[key], r)
	}

	teams := make([]TeamStanding, 0, len(schools))
	for _, school := range schools {
		var pool []ContributingScore
		for _, key := range bySchool[school] {
			pool = append(pool, athleteScores(byAthlete[key])...)
		}
		slices.SortStableFunc(pool, func(a, b ContributingScore) int { return cmp.Compare(b.Score, a.Score) })
		if len(pool) > MaxScoresPerTeam {
			pool = pool[:MaxScoresPerTeam]
		}
		var total float64
		for _, s := range pool {
			total += float64(s.Score)
		}
		if total == 0 {
			continue
		}
		teams = append(teams, TeamStanding{School: school, TotalPoints: total, Contributing: pool})
	}

	slices.SortStableFunc(teams, func(a, b TeamStanding) int {
		if c := cmp.Compare(b.TotalPoints, a.TotalPoints); c != 0 {
			return c
		}
		return cmp.Compare(a.School, b.School)
	})
	assignTeamRanks(teams, cfg.exhibitionPrefix)
	return teams
}

// athleteScores returns an athlete's best scores, capped per athlete, or nil
// when every result is zero.
func athleteScores(results []model.PlacementRecord) []ContributingScore {
	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b model.PlacementRecord) int { return cmp.Compare(b.Points, a.Points) })
	if len(sorted) == 0 || sorted[0].Points == 0 {
		return nil
	}
	if len(sorted) > MaxScoresPerAthlete {
		sorted = sorted[:MaxScoresPerAthlete]
	}
	out := make([]ContributingScore, len(sorted))
	for i, r := range sorted {
		out[i] = ContributingScore{
			Score:       r.Points,
			AthleteName: r.Athlete().Name(),
			RaceNumber:  r.RaceNumber,
			Division:    r.Division,
		}
	}
	return out
}

// assignTeamRanks ranks sorted teams by total, skipping the exhibition entry.
func assignTeamRanks(teams []TeamStanding, exhibitionPrefix string) {
	ranked := make([]int, 0, len(teams))
	for i := range teams {
		if exhibitionPrefix != "" && strings.HasPrefix(teams[i].School, exhibitionPrefix) {
			teams[i].Rank = 0
			continue
		}
		ranked = append(ranked, i)
	}
	ranks := competitionRanks(len(ranked), func(prev, cur int) bool {
		return teams[ranked[prev]].TotalPoints == teams[ranked[cur]].TotalPoints
	})
	for n, i := range ranked {
		teams[i].Rank = ranks[n]
	}
}
