package sns

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// API is the subset of the SNS client used for alerts.
type API interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// NewClient loads the default AWS configuration for region. A non-empty
// endpoint (e.g. http://localstack:4566) overrides the SNS endpoint.
func NewClient(ctx context.Context, region, endpoint string) (*sns.Client, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return sns.NewFromConfig(cfg, func(o *sns.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// Publisher sends alert notifications to SNS topics.
type Publisher struct {
	api    API
	logger *slog.Logger
}

// NewPublisher creates a Publisher over an SNS client.
func NewPublisher(api API, logger *slog.Logger) *Publisher {
	return &Publisher{api: api, logger: logger}
}

// Publish sends message to the topic or endpoint at address.
func (p *Publisher) Publish(ctx context.Context, address, subject, message string) error {
	out, err := p.api.Publish(ctx, &sns.PublishInput{
		TargetArn: aws.String(address),
		Subject:   aws.String(subject),
		Message:   aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("sns publish to %s: %w", address, err)
	}
	p.logger.Debug("alert published", "target_arn", address, "message_id", aws.ToString(out.MessageId))
	return nil
}
