package repository

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrEventNotFound  = errors.New("event not found")
	ErrInvalidRace    = errors.New("invalid race id")
	ErrInvalidRun     = errors.New("invalid qualifier run")
	ErrInvalidReserve = errors.New("invalid race id reservation")
	ErrClosed         = errors.New("store closed")
)
