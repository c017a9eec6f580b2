package cycle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/ai"
	"github.com/jobhound/jobhound/internal/followup"
	"github.com/jobhound/jobhound/internal/outreach"
	"github.com/jobhound/jobhound/internal/profile"
)

// FollowUpSender drafts and mails a re-engagement message for a tracked
// record. It satisfies followup.Sender.
type FollowUpSender struct {
	generator ai.Generator
	deliverer outreach.Deliverer
	profile   *profile.Profile
	logger    *zap.Logger
}

func NewFollowUpSender(generator ai.Generator, deliverer outreach.Deliverer, prof *profile.Profile, logger *zap.Logger) *FollowUpSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FollowUpSender{
		generator: generator,
		deliverer: deliverer,
		profile:   prof,
		logger:    logger,
	}
}

func (s *FollowUpSender) SendFollowUp(ctx context.Context, rec *followup.Record) error {
	if s.deliverer == nil {
		return fmt.Errorf("no deliverer configured")
	}

	if remaining, err := s.deliverer.RemainingToday(ctx, rec.Recipient); err == nil && remaining == 0 {
		return fmt.Errorf("provider delivery limit reached")
	}

	body := fmt.Sprintf(
		"Following up on my %s for the %s role at %s. Still very interested and happy to share more.",
		rec.Channel, rec.Title, rec.Company,
	)
	if s.generator != nil {
		msg, err := s.generator.Generate(ctx, ai.KindFollowUp, nil, s.profile)
		if err != nil {
			s.logger.Debug("follow-up generation failed, using template", zap.Error(err))
		} else if msg != "" {
			body = msg
		}
	}

	subject := fmt.Sprintf("Following up: %s at %s", rec.Title, rec.Company)
	result, err := s.deliverer.Send(ctx, rec.Recipient, subject, body)
	if err != nil {
		return err
	}
	if !result.Succeeded {
		return fmt.Errorf("delivery reported failure: %s", result.Detail)
	}
	return nil
}
