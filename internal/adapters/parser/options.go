package parser

// Option configures Parse.
type Option func(*options)

type options struct {
	keepNonFinishers bool
	eventDate        string
}

// WithNonFinishers keeps DNS, DNF and disqualified rows with their Status set
// and Place 0. Two-run qualifier scoring needs them; season scoring does not.
func WithNonFinishers() Option {
	return func(o *options) {
		o.keepNonFinishers = true
	}
}

// WithEventDate overrides the date taken from the file name.
func WithEventDate(date string) Option {
	return func(o *options) {
		o.eventDate = date
	}
}
