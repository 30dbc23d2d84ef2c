package extract

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidDate is returned for date text that is not a valid date.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidSubDayPolicy is returned by ParseSubDayPolicy.
	ErrInvalidSubDayPolicy = errors.New("invalid sub-day policy")
)

// SubDayPolicy decides what happens to time-of-day and sub-day duration
// tokens. Due dates are compared per day, so these tokens never become a
// date filter.
type SubDayPolicy int

const (
	// SubDayKeep leaves the token in the residual so it becomes a keyword.
	SubDayKeep SubDayPolicy = iota
	// SubDayDrop removes the token from the query entirely.
	SubDayDrop
)

func (p SubDayPolicy) String() string {
	if p == SubDayDrop {
		return "drop"
	}
	return "keep"
}

// ParseSubDayPolicy converts "keep" or "drop" to a SubDayPolicy.
func ParseSubDayPolicy(s string) (SubDayPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "keep":
		return SubDayKeep, nil
	case "drop":
		return SubDayDrop, nil
	}
	return SubDayKeep, fmt.Errorf("%w: %q", ErrInvalidSubDayPolicy, s)
}

// Options tune extraction.
type Options struct {
	SubDay SubDayPolicy
}
