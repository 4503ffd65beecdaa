package export

import "errors"

var (
	// ErrWriteCSV wraps failures writing CSV output.
	ErrWriteCSV = errors.New("export: write csv")
	// ErrPublisherConfig is returned when the object store settings are incomplete.
	ErrPublisherConfig = errors.New("export: invalid publisher config")
)
