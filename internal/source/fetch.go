package source

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/job"
)

const defaultFetchTimeout = 30 * time.Second

type fetchResult struct {
	name     string
	postings []*job.Posting
	err      error
}

// FetchAll invokes every adapter concurrently, each under its own timeout.
// A timeout or error yields an empty result for that adapter and bumps the
// error count; the cycle is never aborted by a feed.
func FetchAll(ctx context.Context, sources []Source, timeout time.Duration, logger *zap.Logger) (*job.Postings, int) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	results := make(chan fetchResult, len(sources))
	for _, src := range sources {
		go func(src Source) {
			fetchCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			postings, err := src.Fetch(fetchCtx)
			results <- fetchResult{name: src.Name(), postings: postings, err: err}
		}(src)
	}

	now := time.Now()
	all := &job.Postings{}
	errCount := 0

	for range sources {
		result := <-results
		if result.err != nil {
			errCount++
			logger.Warn("source fetch failed",
				zap.String("source", result.name),
				zap.Error(result.err),
			)
			continue
		}

		accepted := 0
		for _, p := range result.postings {
			if err := job.Normalize(p, result.name, now); err != nil {
				logger.Debug("dropping malformed posting",
					zap.String("source", result.name),
					zap.Error(err),
				)
				continue
			}
			all.Append(p)
			accepted++
		}

		logger.Info("source fetched",
			zap.String("source", result.name),
			zap.Int("postings", accepted),
		)
	}

	// Adapters finish in arbitrary order; restore discovery order so
	// first-seen dedup downstream is stable.
	all.SortByDiscovery()

	return all, errCount
}
