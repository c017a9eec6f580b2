package router

import (
	"context"
	"time"
)

// ReviewItem is a posting parked for human triage. REVIEW is terminal for the
// pipeline; the queue is only drained by the interactive review command.
type ReviewItem struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Company string    `json:"company"`
	URL     string    `json:"url,omitempty"`
	Score   float64   `json:"score"`
	Reasons []string  `json:"reasons,omitempty"`
	Demoted bool      `json:"demoted,omitempty"`
	Note    string    `json:"note,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// ReviewStore persists the review queue.
type ReviewStore interface {
	ReviewQueue(ctx context.Context) ([]*ReviewItem, error)
	PutReview(ctx context.Context, item *ReviewItem) error
	RemoveReview(ctx context.Context, id string) error
}

// NewReviewItem builds a queue entry from a routing decision.
func NewReviewItem(d *Decision, now time.Time) *ReviewItem {
	scored := d.Scored
	return &ReviewItem{
		ID:      scored.Posting.ID,
		Title:   scored.Posting.Title,
		Company: scored.Posting.Company,
		URL:     scored.Posting.URL,
		Score:   scored.Score,
		Reasons: append([]string(nil), scored.Reasons...),
		Demoted: d.Demoted,
		Note:    d.Note,
		AddedAt: now,
	}
}
