package config

import "errors"

// Errors returned by Load and Validate; wrapped with the failing detail.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
