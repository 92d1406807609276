package pipeline

import "errors"

// Fatal source errors. Row-level problems are never reported as errors; they
// only show up in LoadReport counts.
var (
	ErrSourceNotFound  = errors.New("source not found")
	ErrMalformedSource = errors.New("malformed source")
	ErrInvalidFilter   = errors.New("invalid filter")
)

func IsSourceError(err error) bool {
	return errors.Is(err, ErrSourceNotFound) || errors.Is(err, ErrMalformedSource)
}
