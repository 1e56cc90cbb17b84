package domain

import (
	"fmt"

	"golang.org/x/net/idna"
)

// Target is a single apex domain accepted as scan input. ASCII holds the
// IDN-encoded, lowercase form used for cache keys and scope checks; Original
// preserves what the operator typed, for logging.
type Target struct {
	ASCII    string
	Original string
}

// NewTarget normalizes and IDN-encodes raw into a Target. An error is
// returned when raw is not a syntactically valid domain once normalized.
func NewTarget(raw string) (Target, error) {
	normalized := Normalize(raw)
	if !IsValid(normalized) {
		return Target{}, fmt.Errorf("domain: invalid target %q", raw)
	}
	ascii, err := idna.ToASCII(normalized)
	if err != nil {
		return Target{}, fmt.Errorf("domain: idn encode %q: %w", raw, err)
	}
	return Target{ASCII: ascii, Original: raw}, nil
}
