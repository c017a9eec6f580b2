package ai

import (
	"context"

	"github.com/jobhound/jobhound/internal/job"
	"github.com/jobhound/jobhound/internal/profile"
)

// Estimate is an independent 0-100 assessment of a posting produced by a
// text-analysis provider.
type Estimate struct {
	Score   float64
	Reasons []string
	Message string
	Raw     string
}

// Analyzer performs the deep-analysis scoring pass. Implementations may fail
// or time out; callers fall back to the heuristic score alone.
type Analyzer interface {
	Analyze(ctx context.Context, posting *job.Posting, prof *profile.Profile) (*Estimate, error)
}

// Kind selects the flavor of generated text.
type Kind string

const (
	KindCoverLetter Kind = "cover_letter"
	KindOutreach    Kind = "outreach"
	KindFollowUp    Kind = "follow_up"
)

// Generator drafts outreach and application copy. Callers fall back to
// template text on failure.
type Generator interface {
	Generate(ctx context.Context, kind Kind, posting *job.Posting, prof *profile.Profile) (string, error)
}
