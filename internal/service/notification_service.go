package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/listing-service/internal/config"
	"github.com/spec-kit/listing-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		logger: logger,
		cfg:    cfg,
	}
}

// NotificationEvents lists the event types that produce notifications.
var NotificationEvents = []events.EventType{
	events.EventHomeCreated,
	events.EventHomeUpdated,
	events.EventHomeDeleted,
	events.EventHomeInquired,
}

// Handle routes one event to its notification handler. Unknown types are ignored.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.EventHomeCreated:
		return n.handleHomeCreated(ctx, event)
	case events.EventHomeUpdated, events.EventHomeDeleted:
		return n.handleHomeChanged(ctx, event)
	case events.EventHomeInquired:
		return n.handleHomeInquired(ctx, event)
	}
	return nil
}

func (n *NotificationService) handleHomeCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("HomeCreated", zap.Int64("home_id", event.HomeID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleHomeChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("HomeChanged",
		zap.String("event_type", string(event.Type)),
		zap.Int64("home_id", event.HomeID),
		zap.Int64("actor_id", event.Actor.UserID))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleHomeInquired(ctx context.Context, event events.Event) error {
	n.logger.Info("HomeInquired", zap.Int64("home_id", event.HomeID), zap.Int64("buyer_id", event.Actor.UserID))
	payload, ok := event.Payload.(events.HomeInquiredPayload)
	if ok {
		n.sendEmailNotificationStub(ctx, event, payload.RealtorEmail)
	}
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event, to string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || strings.TrimSpace(to) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", to),
		zap.Int64("home_id", event.HomeID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.Int64("home_id", event.HomeID),
		zap.String("event_type", string(event.Type)))
}
