package parser

import "errors"

var (
	// ErrReadCSV is returned when the input is not readable as CSV.
	ErrReadCSV = errors.New("parser: read csv")
	// ErrNoEventDate is returned by EventDate when a file name carries no date.
	ErrNoEventDate = errors.New("parser: no event date in file name")
)
