package api

import "github.com/okian/alpine/pkg/logger"

type options struct {
	corsOrigins    []string
	maxUploadBytes int64
	logger         logger.Logger
}

// Option configures a Server.
type Option func(*options)

// WithCORSOrigins sets the browser origins allowed to call the API.
func WithCORSOrigins(origins []string) Option {
	return func(o *options) {
		if len(origins) > 0 {
			o.corsOrigins = origins
		}
	}
}

// WithMaxUploadBytes caps how much of an upload body is read.
func WithMaxUploadBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxUploadBytes = n
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
