package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daniilbelik94/online-shop-sub002/models"
	awspkg "github.com/daniilbelik94/online-shop-sub002/pkg/aws"
)

// PaymentEventConsumer polls the payment events queue and applies payment
// status updates to orders.
type PaymentEventConsumer struct {
	sqsConsumer  *awspkg.SQSConsumer
	orderService OrderService
	logger       *zap.Logger
}

func NewPaymentEventConsumer(sqsConsumer *awspkg.SQSConsumer, orderService OrderService, logger *zap.Logger) *PaymentEventConsumer {
	return &PaymentEventConsumer{
		sqsConsumer:  sqsConsumer,
		orderService: orderService,
		logger:       logger,
	}
}

// snsEnvelope is the wrapper SNS puts around messages delivered to SQS.
type snsEnvelope struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

func (c *PaymentEventConsumer) Start(ctx context.Context) {
	c.logger.Info("Starting payment event consumer")

	err := c.sqsConsumer.StartPolling(ctx, func(ctx context.Context, body string) error {
		payload := body
		var envelope snsEnvelope
		if err := json.Unmarshal([]byte(body), &envelope); err == nil && envelope.Type == "Notification" {
			payload = envelope.Message
		}

		var event models.PaymentEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			c.logger.Warn("Invalid payment event JSON", zap.Error(err))
			return err
		}

		orderID, err := uuid.Parse(event.OrderID)
		if err != nil {
			c.logger.Warn("Invalid order_id in payment event", zap.String("order_id", event.OrderID))
			return err
		}

		var status string
		switch event.Type {
		case "payment_succeeded":
			status = models.PaymentStatusPaid
		case "payment_failed":
			status = models.PaymentStatusFailed
		case "payment_refunded":
			status = models.PaymentStatusRefunded
		default:
			c.logger.Warn("Unknown payment event type", zap.String("type", event.Type))
			return nil
		}

		if _, svcErr := c.orderService.UpdatePaymentStatus(ctx, orderID, status); svcErr != nil {
			// Conflicts mean the update already happened; re-delivery is safe
			// to drop.
			if svcErr.StatusCode == 409 {
				c.logger.Info("Payment event already applied",
					zap.String("order_id", event.OrderID),
					zap.String("status", status),
				)
				return nil
			}
			c.logger.Error("Failed to apply payment event",
				zap.String("order_id", event.OrderID),
				zap.String("status", status),
				zap.String("error", svcErr.Message),
			)
			return svcErr
		}

		c.logger.Info("Payment event applied",
			zap.String("order_id", event.OrderID),
			zap.String("status", status),
		)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		c.logger.Error("Payment event consumer stopped", zap.Error(err))
	}
}
