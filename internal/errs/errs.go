// Package errs defines the tagged error kinds used to decide whether a
// failure skips a single item or aborts the process.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for aggregation in cycle statistics.
type Kind string

const (
	// KindSourceFetch marks a per-adapter fetch failure. Non-fatal: the
	// adapter yields an empty result for the cycle.
	KindSourceFetch Kind = "SOURCE_FETCH"
	// KindScoring marks a per-posting scoring failure. Non-fatal: the
	// posting is dropped from the current cycle.
	KindScoring Kind = "SCORING"
	// KindDelivery marks an outreach or application send failure. Recorded,
	// never retried within the same cycle.
	KindDelivery Kind = "DELIVERY"
	// KindState marks corrupt or unreadable persistent state. Fatal at
	// startup, non-fatal for individual saves mid-cycle.
	KindState Kind = "STATE"
	// KindProfile marks a missing or invalid candidate profile. Always
	// fatal: there is no safe default profile.
	KindProfile Kind = "PROFILE"
)

// Error carries a kind tag alongside the wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err with a kind and the failing operation name.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of err, or an empty kind for untagged errors.
func KindOf(err error) Kind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return ""
}

// IsFatal reports whether the error must abort the process instead of being
// absorbed into cycle statistics.
func IsFatal(err error) bool {
	return KindOf(err) == KindProfile
}
