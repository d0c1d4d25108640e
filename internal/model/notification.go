package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationEventSubmitted NotificationType = "event_submitted"
	NotificationEventApproved  NotificationType = "event_approved"
	NotificationEventDenied    NotificationType = "event_denied"
	NotificationEventCompleted NotificationType = "event_completed"
	NotificationEventReminder  NotificationType = "event_reminder"
)

// Notification is one addressed notice. Only IsRead changes after creation.
type Notification struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	RecipientID uuid.UUID        `json:"recipient" db:"recipient_id"`
	Type        NotificationType `json:"type" db:"type"`
	Title       string           `json:"title" db:"title"`
	Message     string           `json:"message" db:"message"`
	EventID     *uuid.UUID       `json:"eventId,omitempty" db:"event_id"`
	AdminNote   string           `json:"adminNote,omitempty" db:"admin_note"`
	IsRead      bool             `json:"isRead" db:"is_read"`
	Priority    Priority         `json:"priority" db:"priority"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`
}

// NotificationFilter narrows a recipient's inbox
type NotificationFilter struct {
	RecipientID uuid.UUID
	UnreadOnly  bool
	Pagination
}

// NotificationMessage is the payload published for out-of-band delivery
type NotificationMessage struct {
	Notification   *Notification `json:"notification"`
	RecipientEmail string        `json:"recipientEmail,omitempty"`
	RecipientName  string        `json:"recipientName,omitempty"`
}
