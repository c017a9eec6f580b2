// Package ses delivers outreach email through Amazon SES.
package ses

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsses "github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"github.com/jobhound/jobhound/internal/outreach"
)

type sender interface {
	SendEmail(ctx context.Context, params *awsses.SendEmailInput, optFns ...func(*awsses.Options)) (*awsses.SendEmailOutput, error)
	GetSendQuota(ctx context.Context, params *awsses.GetSendQuotaInput, optFns ...func(*awsses.Options)) (*awsses.GetSendQuotaOutput, error)
}

// Deliverer implements outreach.Deliverer over SES.
type Deliverer struct {
	client sender
	from   string
	logger *zap.Logger
}

// New builds a Deliverer with the default AWS credential chain.
func New(ctx context.Context, region, from string, logger *zap.Logger) (*Deliverer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deliverer{client: awsses.NewFromConfig(cfg), from: from, logger: logger}, nil
}

// NewWithClient is for tests.
func NewWithClient(client sender, from string, logger *zap.Logger) *Deliverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deliverer{client: client, from: from, logger: logger}
}

func (d *Deliverer) Send(ctx context.Context, address, subject, body string) (*outreach.SendResult, error) {
	out, err := d.client.SendEmail(ctx, &awsses.SendEmailInput{
		Source: aws.String(d.from),
		Destination: &types.Destination{
			ToAddresses: []string{address},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		return &outreach.SendResult{Succeeded: false, Detail: err.Error()}, err
	}

	messageID := ""
	if out.MessageId != nil {
		messageID = *out.MessageId
	}
	d.logger.Info("email delivered",
		zap.String("to", address),
		zap.String("message_id", messageID),
	)

	return &outreach.SendResult{Succeeded: true, Detail: messageID}, nil
}

// RemainingToday queries the account-level SES 24h sending quota. SES does
// not track per-address limits, so the account figure stands in for every
// address.
func (d *Deliverer) RemainingToday(ctx context.Context, address string) (int, error) {
	out, err := d.client.GetSendQuota(ctx, &awsses.GetSendQuotaInput{})
	if err != nil {
		return 0, fmt.Errorf("get send quota: %w", err)
	}

	// Max24HourSend of -1 means the account has no sending limit.
	if out.Max24HourSend < 0 {
		return -1, nil
	}

	remaining := int(out.Max24HourSend - out.SentLast24Hours)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
