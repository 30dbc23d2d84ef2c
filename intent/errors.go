package intent

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
	// ErrExtractorRequired is returned when a parser is built without an extractor
	ErrExtractorRequired = errors.New("extractor is required")
)
