package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daniilbelik94/online-shop-sub002/models"
	awspkg "github.com/daniilbelik94/online-shop-sub002/pkg/aws"
	"github.com/daniilbelik94/online-shop-sub002/repository"
	"github.com/daniilbelik94/online-shop-sub002/sender"
)

// NotificationService delivers customer emails and publishes order events.
// Every method is best-effort: failures are logged and recorded, never
// returned to the calling workflow.
type NotificationService interface {
	NotifyOrderCreated(ctx context.Context, user *models.User, order *models.Order)
	NotifyOrderStatus(ctx context.Context, user *models.User, order *models.Order)
	NotifyOrderCancelled(ctx context.Context, user *models.User, order *models.Order, reason string)
	NotifyPaymentConfirmed(ctx context.Context, user *models.User, order *models.Order)
	NotifyUserRegistered(ctx context.Context, user *models.User)
	GetLogs(ctx context.Context, userID uuid.UUID, limit int) ([]models.NotificationLog, *ServiceError)
}

type eventConfig struct {
	tmpl    string
	subject string
}

var eventConfigs = map[string]eventConfig{
	models.TypeOrderCreated: {
		tmpl:    orderCreatedTmpl,
		subject: "Order Confirmed!",
	},
	models.TypeOrderStatus: {
		tmpl:    orderStatusTmpl,
		subject: "Your order status has changed",
	},
	models.TypeOrderCancelled: {
		tmpl:    orderCancelledTmpl,
		subject: "Your order has been cancelled",
	},
	models.TypePaymentConfirmed: {
		tmpl:    paymentConfirmedTmpl,
		subject: "Payment received",
	},
	models.TypeUserRegistered: {
		tmpl:    welcomeTmpl,
		subject: "Welcome!",
	},
}

type notificationService struct {
	repo        repository.NotificationRepository
	emailSender sender.EmailSender
	snsClient   awspkg.SNSPublisher
	snsTopicArn string
	templates   map[string]*template.Template
	logger      *zap.Logger
}

func NewNotificationService(
	repo repository.NotificationRepository,
	emailSender sender.EmailSender,
	snsClient awspkg.SNSPublisher,
	snsTopicArn string,
	logger *zap.Logger,
) (NotificationService, error) {
	tmpls := make(map[string]*template.Template)
	for eventType, cfg := range eventConfigs {
		tmpl, err := template.New(eventType).Parse(cfg.tmpl)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template for %s: %w", eventType, err)
		}
		tmpls[eventType] = tmpl
	}
	return &notificationService{
		repo:        repo,
		emailSender: emailSender,
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		templates:   tmpls,
		logger:      logger,
	}, nil
}

type emailData struct {
	Name        string
	OrderNumber string
	Status      string
	Total       float64
	Reason      string
	Items       []models.OrderItem
}

func (s *notificationService) NotifyOrderCreated(ctx context.Context, user *models.User, order *models.Order) {
	s.sendAndLog(ctx, models.TypeOrderCreated, user, emailData{
		Name:        user.FirstName,
		OrderNumber: order.OrderNumber,
		Total:       order.TotalAmount,
		Items:       order.OrderItems,
	})
	s.publishOrderEvent(ctx, models.TypeOrderCreated, order)
}

func (s *notificationService) NotifyOrderStatus(ctx context.Context, user *models.User, order *models.Order) {
	s.sendAndLog(ctx, models.TypeOrderStatus, user, emailData{
		Name:        user.FirstName,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
	})
	s.publishOrderEvent(ctx, models.TypeOrderStatus, order)
}

func (s *notificationService) NotifyOrderCancelled(ctx context.Context, user *models.User, order *models.Order, reason string) {
	s.sendAndLog(ctx, models.TypeOrderCancelled, user, emailData{
		Name:        user.FirstName,
		OrderNumber: order.OrderNumber,
		Reason:      reason,
	})
	s.publishOrderEvent(ctx, models.TypeOrderCancelled, order)
}

func (s *notificationService) NotifyPaymentConfirmed(ctx context.Context, user *models.User, order *models.Order) {
	s.sendAndLog(ctx, models.TypePaymentConfirmed, user, emailData{
		Name:        user.FirstName,
		OrderNumber: order.OrderNumber,
		Total:       order.TotalAmount,
	})
	s.publishOrderEvent(ctx, models.TypePaymentConfirmed, order)
}

func (s *notificationService) NotifyUserRegistered(ctx context.Context, user *models.User) {
	s.sendAndLog(ctx, models.TypeUserRegistered, user, emailData{Name: user.FirstName})
}

func (s *notificationService) GetLogs(ctx context.Context, userID uuid.UUID, limit int) ([]models.NotificationLog, *ServiceError) {
	logs, err := s.repo.FindByUser(ctx, userID, limit)
	if err != nil {
		s.logger.Error("Failed to list notification logs", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to list notifications"}
	}
	return logs, nil
}

// sendAndLog renders the event template, sends the email, and records the
// attempt. Any failure ends here.
func (s *notificationService) sendAndLog(ctx context.Context, eventType string, user *models.User, data emailData) {
	cfg := eventConfigs[eventType]

	var buf bytes.Buffer
	if err := s.templates[eventType].Execute(&buf, data); err != nil {
		s.logger.Error("Template render failed",
			zap.String("event", eventType),
			zap.Error(err),
		)
		return
	}

	log := &models.NotificationLog{
		UserID:    user.ID,
		Recipient: user.Email,
		Type:      eventType,
		Channel:   models.ChannelEmail,
		Status:    models.StatusSent,
	}

	if s.emailSender == nil {
		// Keep the audit trail even when no SMTP sender is configured.
		s.logger.Warn("Email sender not configured, skipping delivery",
			zap.String("event", eventType),
		)
		log.Status = models.StatusSkipped
	} else if _, err := s.emailSender.SendEmail(ctx, user.Email, cfg.subject, buf.String()); err != nil {
		s.logger.Error("Email send failed",
			zap.String("event", eventType),
			zap.String("recipient", user.Email),
			zap.Error(err),
		)
		log.Status = models.StatusFailed
		log.Error = err.Error()
	}

	if err := s.repo.SaveLog(ctx, log); err != nil {
		s.logger.Error("Failed to save notification log", zap.Error(err))
	}
}

// publishOrderEvent publishes an order event to SNS for downstream consumers.
func (s *notificationService) publishOrderEvent(ctx context.Context, eventType string, order *models.Order) {
	if s.snsClient == nil || s.snsTopicArn == "" {
		return
	}

	event := models.OrderEvent{
		EventType:   eventType,
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID.String(),
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		Timestamp:   time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to marshal order event", zap.Error(err))
		return
	}

	if err := s.snsClient.PublishEvent(ctx, s.snsTopicArn, eventType, payload); err != nil {
		s.logger.Error("Failed to publish order event",
			zap.String("event", eventType),
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Order event published",
		zap.String("event", eventType),
		zap.String("order_number", order.OrderNumber),
	)
}

const orderCreatedTmpl = `<html><body style="font-family: Arial, sans-serif;">
<h2>Thank you for your order, {{.Name}}!</h2>
<p>Your order <strong>{{.OrderNumber}}</strong> has been received.</p>
<table style="width:100%;border-collapse:collapse;">
{{range .Items}}<tr><td>{{.ProductName}}</td><td>x{{.Quantity}}</td><td>{{printf "%.2f" .UnitPrice}}</td></tr>
{{end}}</table>
<p>Total: <strong>{{printf "%.2f" .Total}}</strong></p>
</body></html>`

const orderStatusTmpl = `<html><body style="font-family: Arial, sans-serif;">
<h2>Hi {{.Name}},</h2>
<p>Your order <strong>{{.OrderNumber}}</strong> is now <strong>{{.Status}}</strong>.</p>
</body></html>`

const orderCancelledTmpl = `<html><body style="font-family: Arial, sans-serif;">
<h2>Hi {{.Name}},</h2>
<p>Your order <strong>{{.OrderNumber}}</strong> has been cancelled.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
</body></html>`

const paymentConfirmedTmpl = `<html><body style="font-family: Arial, sans-serif;">
<h2>Hi {{.Name}},</h2>
<p>We received your payment of <strong>{{printf "%.2f" .Total}}</strong> for order <strong>{{.OrderNumber}}</strong>.</p>
</body></html>`

const welcomeTmpl = `<html><body style="font-family: Arial, sans-serif;">
<h2>Welcome{{if .Name}}, {{.Name}}{{end}}!</h2>
<p>Your account has been created. Happy shopping!</p>
</body></html>`
