package selection

import (
	"errors"
	"fmt"
)

var (
	// ErrParseAmbiguity marks a ranking response that yielded no trustworthy
	// identifiers. The affected group contributes no vote.
	ErrParseAmbiguity = errors.New("ranking response is ambiguous")

	// ErrInsufficientCandidates reports that fewer than TopK candidates survived.
	// It is informational; Reduce never returns it as an error.
	ErrInsufficientCandidates = errors.New("insufficient candidates")
)

// ParseError describes a structured ranking that named an identifier outside
// the group it was asked about.
type ParseError struct {
	Identifier int
	Reason     string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("ranking identifier %d rejected: %s", e.Identifier, e.Reason)
}

// Unwrap makes every ParseError match ErrParseAmbiguity.
func (e *ParseError) Unwrap() error {
	return ErrParseAmbiguity
}
