// Package export renders leaderboards as CSV and publishes them to object
// storage.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/alpine/internal/domain/standings"
	"github.com/okian/alpine/internal/domain/types"
)

// ContentType is the media type of every export.
const ContentType = "text/csv"

// FormatPoints renders a team total in its shortest form: 120 not 120.0,
// 12.5 not 12.50.
func FormatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// IndividualFilename names the export of one category.
func IndividualFilename(cat types.Category) string {
	return cat.Slug() + "_individual.csv"
}

// TeamFilename names the team export of one gender and sport.
func TeamFilename(gender types.Gender, sport types.Sport) string {
	return string(gender) + "_" + string(sport) + "_team.csv"
}

// WriteIndividual writes an individual leaderboard in leaderboard order with
// one column per race the category has held. Races an athlete missed are
// left blank.
func WriteIndividual(w io.Writer, board standings.Leaderboard) error {
	races := board.RaceCount
	rows := board.Athletes

	cw := csv.NewWriter(w)
	header := make([]string, 0, races+5)
	header = append(header, "place", "first_name", "last_name", "school")
	for i := 1; i <= races; i++ {
		header = append(header, "race_"+strconv.Itoa(i))
	}
	header = append(header, "total_points")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteCSV, err)
	}

	for _, a := range rows {
		byRace := make(map[int]int, len(a.Results))
		for _, r := range a.Results {
			byRace[r.RaceNumber] = r.Points
		}
		row := make([]string, 0, len(header))
		row = append(row, strconv.Itoa(a.Rank), a.FirstName, a.LastName, a.School)
		for i := 1; i <= races; i++ {
			if p, ok := byRace[i]; ok {
				row = append(row, strconv.Itoa(p))
			} else {
				row = append(row, "")
			}
		}
		row = append(row, strconv.Itoa(a.TotalPoints))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteCSV, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteCSV, err)
	}
	return nil
}

// WriteTeam writes a team leaderboard. The exhibition entry keeps place 0.
func WriteTeam(w io.Writer, rows []standings.TeamStanding) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"place", "school", "total_points", "contributing_scores"}); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteCSV, err)
	}
	for _, t := range rows {
		scores := make([]string, len(t.Contributing))
		for i, c := range t.Contributing {
			scores[i] = fmt.Sprintf("%d %s (R%d %s)", c.Score, c.AthleteName, c.RaceNumber, c.Division)
		}
		row := []string{strconv.Itoa(t.Rank), t.School, FormatPoints(t.TotalPoints), strings.Join(scores, "; ")}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteCSV, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteCSV, err)
	}
	return nil
}
