package service

import "errors"

var (
	// ErrNotStarted is returned by upload operations before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrBadRequest wraps caller mistakes the API reports as 400.
	ErrBadRequest = errors.New("bad request")
	// ErrBackpressure means the upload queue is full.
	ErrBackpressure = errors.New("upload queue full")
	// ErrRaceNotFound means a category has no race with the requested number.
	ErrRaceNotFound = errors.New("race not found")
	// ErrNoEventDate means a result file name carries no YYYYMMDD prefix.
	ErrNoEventDate = errors.New("no event date")
	// ErrNoPublisher is returned by PublishAll when no publisher is configured.
	ErrNoPublisher = errors.New("no export publisher configured")
)
