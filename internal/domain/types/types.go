// Package types contains the category vocabulary shared across the application.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCategory is returned when a gender, sport or division string is not recognised.
var ErrInvalidCategory = errors.New("invalid category")

// Gender of a race category.
type Gender string

// Sport of a race category.
type Sport string

// Division of a race category. Individual standings are kept per division,
// team standings merge both.
type Division string

const (
	Boys  Gender = "boys"
	Girls Gender = "girls"

	Ski       Sport = "ski"
	Snowboard Sport = "snowboard"

	HS   Division = "HS"
	Open Division = "OPEN"
)

// Genders, Sports and Divisions list the valid values in display order.
var (
	Genders   = []Gender{Girls, Boys}
	Sports    = []Sport{Ski, Snowboard}
	Divisions = []Division{HS, Open}
)

// ParseGender accepts "boys" or "girls" in any case.
func ParseGender(s string) (Gender, error) {
	switch Gender(strings.ToLower(strings.TrimSpace(s))) {
	case Boys:
		return Boys, nil
	case Girls:
		return Girls, nil
	}
	return "", fmt.Errorf("gender %q: %w", s, ErrInvalidCategory)
}

// ParseSport accepts "ski" or "snowboard" in any case.
func ParseSport(s string) (Sport, error) {
	switch Sport(strings.ToLower(strings.TrimSpace(s))) {
	case Ski:
		return Ski, nil
	case Snowboard:
		return Snowboard, nil
	}
	return "", fmt.Errorf("sport %q: %w", s, ErrInvalidCategory)
}

// ParseDivision accepts "hs" or "open" in any case.
func ParseDivision(s string) (Division, error) {
	switch Division(strings.ToUpper(strings.TrimSpace(s))) {
	case HS:
		return HS, nil
	case Open:
		return Open, nil
	}
	return "", fmt.Errorf("division %q: %w", s, ErrInvalidCategory)
}

// Slug is the lower-case form used in URLs and file names.
func (d Division) Slug() string { return strings.ToLower(string(d)) }

// Category identifies one individual leaderboard.
type Category struct {
	Gender   Gender   `json:"gender"`
	Sport    Sport    `json:"sport"`
	Division Division `json:"division"`
}

// ParseCategory validates all three parts.
func ParseCategory(gender, sport, division string) (Category, error) {
	g, err := ParseGender(gender)
	if err != nil {
		return Category{}, err
	}
	s, err := ParseSport(sport)
	if err != nil {
		return Category{}, err
	}
	d, err := ParseDivision(division)
	if err != nil {
		return Category{}, err
	}
	return Category{Gender: g, Sport: s, Division: d}, nil
}

// AllCategories returns every category in display order.
func AllCategories() []Category {
	out := make([]Category, 0, len(Genders)*len(Sports)*len(Divisions))
	for _, s := range Sports {
		for _, g := range Genders {
			for _, d := range Divisions {
				out = append(out, Category{Gender: g, Sport: s, Division: d})
			}
		}
	}
	return out
}

// Slug renders e.g. "girls_ski_hs".
func (c Category) Slug() string {
	return string(c.Gender) + "_" + string(c.Sport) + "_" + c.Division.Slug()
}

// Label renders e.g. "Girls Ski (HS)".
func (c Category) Label() string {
	return title(string(c.Gender)) + " " + title(string(c.Sport)) + " (" + string(c.Division) + ")"
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
