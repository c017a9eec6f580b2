package outreach

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/job"
)

// DryRunSubmitter writes the would-be application to disk instead of
// submitting it. Useful while tuning thresholds.
type DryRunSubmitter struct {
	dir    string
	logger *zap.Logger
}

func NewDryRunSubmitter(dir string, logger *zap.Logger) *DryRunSubmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DryRunSubmitter{dir: dir, logger: logger}
}

type dryRunRecord struct {
	PostingID string     `json:"posting_id"`
	Company   string     `json:"company"`
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	Materials *Materials `json:"materials"`
	WrittenAt time.Time  `json:"written_at"`
}

func (s *DryRunSubmitter) Submit(ctx context.Context, posting *job.Posting, materials *Materials) (*SendResult, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, err
	}

	record := dryRunRecord{
		PostingID: posting.ID,
		Company:   posting.Company,
		Title:     posting.Title,
		URL:       posting.URL,
		Materials: materials,
		WrittenAt: time.Now(),
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("application-%s-%d.json", posting.ID, time.Now().Unix())
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, err
	}

	s.logger.Info("dry-run application written",
		zap.String("company", posting.Company),
		zap.String("title", posting.Title),
		zap.String("path", path),
	)

	return &SendResult{Succeeded: true, Detail: "dry-run: " + path}, nil
}

// DryRunDeliverer logs the email instead of sending it.
type DryRunDeliverer struct {
	logger *zap.Logger
}

func NewDryRunDeliverer(logger *zap.Logger) *DryRunDeliverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DryRunDeliverer{logger: logger}
}

func (d *DryRunDeliverer) Send(ctx context.Context, address, subject, body string) (*SendResult, error) {
	d.logger.Info("dry-run email",
		zap.String("to", address),
		zap.String("subject", subject),
		zap.Int("body_length", len(body)),
	)
	return &SendResult{Succeeded: true, Detail: "dry-run"}, nil
}

func (d *DryRunDeliverer) RemainingToday(ctx context.Context, address string) (int, error) {
	return -1, nil
}

// LogNotifier writes operator notifications to the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, subject, message string) {
	n.logger.Info("operator notification",
		zap.String("subject", subject),
		zap.String("message", message),
	)
}
