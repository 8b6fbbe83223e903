package main

import (
	"context"
	"os"

	awspkg "github.com/daniilbelik94/online-shop-sub002/pkg/aws"
)

// Config holds all runtime configuration.
type Config struct {
	Port string

	// SNS topic for order events; empty disables publication.
	OrderSNSTopicARN string
	// SQS queue delivering payment events; empty disables the consumer.
	PaymentQueueURL string

	StripeSecretKey  string
	StripeWebhookKey string
}

// LoadConfig reads configuration from environment variables with optional
// Secrets Manager override for the Stripe keys.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		OrderSNSTopicARN: os.Getenv("ORDER_SNS_TOPIC_ARN"),
		PaymentQueueURL:  os.Getenv("PAYMENT_QUEUE_URL"),
		StripeSecretKey:  os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookKey: os.Getenv("STRIPE_WEBHOOK_KEY"),
	}

	// Override secrets from Secrets Manager when running on AWS
	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := awspkg.LoadAWSConfig(context.Background()); err == nil {
			sm := awspkg.NewSecretsClient(awsCfg)

			if keys, err := sm.GetJSONSecret(context.Background(), "shop/STRIPE_KEYS"); err == nil {
				if v := keys["STRIPE_SECRET_KEY"]; v != "" {
					cfg.StripeSecretKey = v
				}
				if v := keys["STRIPE_WEBHOOK_KEY"]; v != "" {
					cfg.StripeWebhookKey = v
				}
			}
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
