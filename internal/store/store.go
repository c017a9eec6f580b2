// Package store defines the seen-job persistence contract shared by the file
// and redis backends.
package store

import (
	"context"
	"time"
)

// SeenEntry records one processed posting identity. Applied entries are
// immune to TTL expiry: the "already applied" guarantee must survive both
// restarts and compaction.
type SeenEntry struct {
	ID        string    `json:"id"`
	FirstSeen time.Time `json:"first_seen"`
	Applied   bool      `json:"applied"`
}

// SeenStore is the persistent set of previously processed posting
// identifiers.
type SeenStore interface {
	// Has reports whether the id was processed and is still within TTL.
	Has(ctx context.Context, id string) (bool, error)
	// MarkSeen records a processed id subject to TTL expiry.
	MarkSeen(ctx context.Context, id string) error
	// MarkApplied promotes an id to the never-retry state.
	MarkApplied(ctx context.Context, id string) error
}
