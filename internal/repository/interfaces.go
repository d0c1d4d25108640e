package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/eventflow-api/internal/model"
)

var (
	// ErrNotFound is returned when the referenced row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrStaleState is returned when a conditional write finds the row in an unexpected status
	ErrStaleState = errors.New("record status changed")
	// ErrDuplicate is returned when a uniqueness constraint rejects a write
	ErrDuplicate = errors.New("duplicate record")
)

// All repository interfaces in one file
type (
	// EventRepository persists event requests and their feedback
	EventRepository interface {
		Create(ctx context.Context, event *model.Event) error
		Get(ctx context.Context, id uuid.UUID) (*model.Event, error)
		// UpdateIfStatus writes the full event only while its stored status equals expected.
		UpdateIfStatus(ctx context.Context, event *model.Event, expected model.EventStatus) error
		// DeleteIfStatus removes the event only while its stored status is one of allowed.
		DeleteIfStatus(ctx context.Context, id uuid.UUID, allowed ...model.EventStatus) error
		// AddFeedback appends one entry; a second entry from the same user yields ErrDuplicate.
		AddFeedback(ctx context.Context, eventID uuid.UUID, feedback model.Feedback) error
		List(ctx context.Context, filter model.EventFilter) ([]*model.Event, int, error)
		CountByStatus(ctx context.Context, submittedBy uuid.UUID) (*model.StatusCounts, error)
		ListAnalyticsRows(ctx context.Context, from, to time.Time) ([]model.AnalyticsRow, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, notification *model.Notification) error
		CreateBatch(ctx context.Context, notifications []*model.Notification) error
		List(ctx context.Context, filter model.NotificationFilter) ([]*model.Notification, int, error)
		CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)
		MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
		MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		List(ctx context.Context, filter model.UserFilter) ([]*model.User, int, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// ClaimPending moves up to limit pending events to processing and returns them
		ClaimPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
