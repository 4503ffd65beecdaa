// Package parser reads race result exports from the timing system.
//
// An export starts with a title row, followed by one or more header rows whose
// first cell is "place" and data rows of at least nine columns:
//
//	place, bib, _, first name, last name, school, category, time, notes
//
// The category cell carries gender, sport and division, for example
// "SKI (Boys): Open Div" or "BOARD (Girls): High School Div".
package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/alpine/internal/domain/model"
	"github.com/okian/alpine/internal/domain/points"
	"github.com/okian/alpine/internal/domain/types"
)

// NoTime is the sentinel the timing system writes for runs without a time.
const NoTime = 998.0

const minColumns = 9

const (
	colPlace    = 0
	colFirst    = 3
	colLast     = 4
	colSchool   = 5
	colCategory = 6
	colTime     = 7
	colNotes    = 8
)

var datePrefix = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})`)

// EventDate extracts the race date from a file name such as
// "20260212-1-boys_ski.csv".
func EventDate(name string) (string, error) {
	m := datePrefix.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrNoEventDate, name)
	}
	return m[1] + "-" + m[2] + "-" + m[3], nil
}

// Parse reads one export and returns its placement records with points
// assigned. Rows that cannot be classified are skipped rather than reported.
func Parse(r io.Reader, name string, opts ...Option) ([]model.PlacementRecord, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	date := o.eventDate
	if date == "" {
		date, _ = EventDate(name)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadCSV, name, err)
	}

	start := 0
	if len(rows) > 0 && !isHeader(rows[0]) {
		start = 1
	}

	records := []model.PlacementRecord{}
	for _, row := range rows[min(start, len(rows)):] {
		if isBlank(row) || isHeader(row) {
			continue
		}
		rec, ok := parseRow(row, o.keepNonFinishers)
		if !ok {
			continue
		}
		rec.EventDate = date
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string, keepNonFinishers bool) (model.PlacementRecord, bool) {
	if len(row) < minColumns {
		return model.PlacementRecord{}, false
	}
	cell := func(i int) string { return strings.TrimSpace(row[i]) }

	rec := model.PlacementRecord{
		FirstName: cell(colFirst),
		LastName:  cell(colLast),
		School:    cell(colSchool),
	}
	if rec.FirstName == "" && rec.LastName == "" {
		return model.PlacementRecord{}, false
	}
	cat, ok := Classify(cell(colCategory))
	if !ok {
		return model.PlacementRecord{}, false
	}
	rec.Gender, rec.Sport, rec.Division = cat.Gender, cat.Sport, cat.Division

	placeStr, timeStr := cell(colPlace), cell(colTime)
	if t, err := strconv.ParseFloat(timeStr, 64); err == nil && t < NoTime {
		rec.TimeSeconds = &t
	}

	if status := nonFinish(placeStr, timeStr, cell(colNotes)); status != "" {
		if !keepNonFinishers {
			return model.PlacementRecord{}, false
		}
		rec.Status = status
		rec.TimeSeconds = nil
		return rec, true
	}

	place, err := strconv.Atoi(placeStr)
	if err != nil {
		return model.PlacementRecord{}, false
	}
	rec.Place = place
	rec.Points = points.ForPlace(place, rec.Division)
	return rec, true
}

// Classify reads gender, sport and division from a category cell.
func Classify(s string) (types.Category, bool) {
	s = strings.ToUpper(s)
	var c types.Category

	switch {
	case strings.Contains(s, "BOY"):
		c.Gender = types.Boys
	case strings.Contains(s, "GIRL"):
		c.Gender = types.Girls
	default:
		return c, false
	}

	switch {
	case strings.Contains(s, "BOARD"):
		c.Sport = types.Snowboard
	case strings.Contains(s, "SKI"):
		c.Sport = types.Ski
	default:
		return c, false
	}

	switch {
	case strings.Contains(s, "OPEN"):
		c.Division = types.Open
	case strings.Contains(s, "HIGH SCHOOL"):
		c.Division = types.HS
	default:
		return c, false
	}
	return c, true
}

var statusKeywords = []string{model.StatusDNS, model.StatusDNF, model.StatusDSQ, model.StatusDQ}

// nonFinish returns the status of a row that did not finish, or "" for a finisher.
func nonFinish(place, timeStr, notes string) string {
	upper := strings.ToUpper(notes)
	for _, kw := range statusKeywords {
		if strings.Contains(upper, kw) {
			return kw
		}
	}
	t, err := strconv.ParseFloat(timeStr, 64)
	if timeStr != "" && err == nil && t >= NoTime {
		return model.StatusDNF
	}
	if place == "" && (timeStr == "" || err != nil) {
		return model.StatusDNF
	}
	return ""
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func isHeader(row []string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "place")
}
