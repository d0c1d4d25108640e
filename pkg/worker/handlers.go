package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jwalitptl/eventflow-api/internal/email"
	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/pkg/messaging"
)

// EmailHandler mails notification.created events to the recipient
type EmailHandler struct {
	sender email.Service
}

func NewEmailHandler(sender email.Service) *EmailHandler {
	return &EmailHandler{sender: sender}
}

func (h *EmailHandler) Name() string { return "email" }

func (h *EmailHandler) Handle(ctx context.Context, event *model.OutboxEvent) error {
	var msg model.NotificationMessage
	if err := json.Unmarshal(event.Payload, &msg); err != nil {
		return fmt.Errorf("failed to decode notification payload: %w", err)
	}
	if msg.Notification == nil {
		return fmt.Errorf("notification payload is empty")
	}
	// Recipients without an address only get the in-app notice.
	if msg.RecipientEmail == "" {
		return nil
	}
	return h.sender.Send(ctx, email.FromNotification(msg))
}

// BrokerHandler republishes outbox events on a broker channel
type BrokerHandler struct {
	broker  messaging.Broker
	channel string
}

func NewBrokerHandler(broker messaging.Broker, channel string) *BrokerHandler {
	return &BrokerHandler{broker: broker, channel: channel}
}

func (h *BrokerHandler) Name() string { return "broker" }

func (h *BrokerHandler) Handle(ctx context.Context, event *model.OutboxEvent) error {
	return h.broker.Publish(ctx, h.channel, messaging.Message{
		ID:         event.ID.String(),
		Type:       event.EventType,
		Payload:    event.Payload,
		OccurredAt: event.CreatedAt,
	})
}
