// Package outreach carries generated materials to the outside world:
// cold emails, application submissions, and operator notifications.
package outreach

import (
	"context"

	"github.com/jobhound/jobhound/internal/job"
)

// Materials is the generated content attached to a send or submission.
type Materials struct {
	Subject     string `json:"subject"`
	CoverLetter string `json:"cover_letter,omitempty"`
	Message     string `json:"message,omitempty"`
	ResumeFile  string `json:"resume_file,omitempty"`
}

// SendResult reports the outcome of a single delivery attempt.
type SendResult struct {
	Succeeded bool
	Detail    string
}

// Deliverer sends outreach email.
type Deliverer interface {
	Send(ctx context.Context, address, subject, body string) (*SendResult, error)
	// RemainingToday reports how many more messages the provider accepts
	// for the address in the current day. Negative means unlimited or
	// unknown; zero means the provider will refuse the send.
	RemainingToday(ctx context.Context, address string) (int, error)
}

// Submitter files an application for a posting.
type Submitter interface {
	Submit(ctx context.Context, posting *job.Posting, materials *Materials) (*SendResult, error)
}

// Notifier tells the operator something happened. Notifications are
// fire-and-forget; implementations log failures and never return them
// to the caller.
type Notifier interface {
	Notify(ctx context.Context, subject, message string)
}
