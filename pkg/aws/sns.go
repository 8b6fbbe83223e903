package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSPublisher publishes storefront events to an SNS topic.
type SNSPublisher interface {
	PublishEvent(ctx context.Context, topicArn, eventType string, payload []byte) error
}

type SNSClient struct {
	client *sns.Client
}

func NewSNSClient(cfg sdkaws.Config) *SNSClient {
	return &SNSClient{client: sns.NewFromConfig(cfg)}
}

// PublishEvent publishes payload to topicArn. The event type travels as a
// message attribute so subscriptions can filter without parsing the body.
func (s *SNSClient) PublishEvent(ctx context.Context, topicArn, eventType string, payload []byte) error {
	if topicArn == "" {
		return fmt.Errorf("empty topicArn")
	}
	msg := string(payload)
	input := &sns.PublishInput{
		TopicArn: &topicArn,
		Message:  &msg,
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {
				DataType:    sdkaws.String("String"),
				StringValue: sdkaws.String(eventType),
			},
		},
	}
	if _, err := s.client.Publish(ctx, input); err != nil {
		return fmt.Errorf("sns publish failed for topic %s: %w", topicArn, err)
	}
	return nil
}
