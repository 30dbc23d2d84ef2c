package rank

import "errors"

var (
	// ErrInvalidWeights is returned by Weights.Validate.
	ErrInvalidWeights = errors.New("invalid scoring weights")
)
