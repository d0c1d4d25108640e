package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/internal/repository"
	"github.com/jwalitptl/eventflow-api/pkg/errors"
	"github.com/jwalitptl/eventflow-api/pkg/logger"
	"github.com/jwalitptl/eventflow-api/pkg/metrics"
)

// Service persists notifications and serves a recipient's inbox. Delivery
// beyond the in-app row goes through the outbox.
type Service struct {
	repo    repository.NotificationRepository
	users   repository.UserRepository
	outbox  repository.OutboxRepository
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(
	repo repository.NotificationRepository,
	users repository.UserRepository,
	outbox repository.OutboxRepository,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		repo:    repo,
		users:   users,
		outbox:  outbox,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

func (s *Service) build(recipient uuid.UUID, content Content, eventID *uuid.UUID) *model.Notification {
	return &model.Notification{
		ID:          uuid.New(),
		RecipientID: recipient,
		Type:        content.Type,
		Title:       content.Title,
		Message:     content.Message,
		EventID:     eventID,
		AdminNote:   content.AdminNote,
		Priority:    content.Priority,
		CreatedAt:   s.now(),
	}
}

// Notify renders t, stores one notification for recipient and queues it for
// out-of-band delivery. Failures are logged and counted here; callers on the
// lifecycle path ignore the returned error.
func (s *Service) Notify(ctx context.Context, recipient uuid.UUID, t Template, eventID *uuid.UUID) (*model.Notification, error) {
	content, err := Render(t)
	if err != nil {
		s.fail("render", err, recipient)
		return nil, errors.Delivery(err)
	}

	n := s.build(recipient, content, eventID)
	if err := s.repo.Create(ctx, n); err != nil {
		s.fail("persist", err, recipient)
		return nil, errors.Delivery(err)
	}
	s.metrics.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()

	s.enqueue(ctx, n)
	return n, nil
}

// NotifyMany sends the same template to every recipient in one batch
func (s *Service) NotifyMany(ctx context.Context, recipients []uuid.UUID, t Template, eventID *uuid.UUID) ([]*model.Notification, error) {
	if len(recipients) == 0 {
		return []*model.Notification{}, nil
	}

	content, err := Render(t)
	if err != nil {
		s.fail("render", err, uuid.Nil)
		return nil, errors.Delivery(err)
	}

	batch := make([]*model.Notification, 0, len(recipients))
	for _, r := range recipients {
		batch = append(batch, s.build(r, content, eventID))
	}
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		s.fail("persist", err, uuid.Nil)
		return nil, errors.Delivery(err)
	}
	s.metrics.NotificationsCreated.WithLabelValues(string(content.Type)).Add(float64(len(batch)))

	for _, n := range batch {
		s.enqueue(ctx, n)
	}
	return batch, nil
}

func (s *Service) enqueue(ctx context.Context, n *model.Notification) {
	if s.outbox == nil {
		return
	}

	msg := model.NotificationMessage{Notification: n}
	if user, err := s.users.Get(ctx, n.RecipientID); err == nil {
		msg.RecipientEmail = user.Email
		msg.RecipientName = user.Name
	} else {
		s.logger.Debug("Recipient lookup failed, queuing without address",
			"recipient", n.RecipientID.String(), "error", err.Error())
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		s.fail("outbox", err, n.RecipientID)
		return
	}

	if err := s.outbox.Create(ctx, &model.OutboxEvent{
		EventType: model.OutboxNotificationCreated,
		Payload:   payload,
	}); err != nil {
		s.fail("outbox", err, n.RecipientID)
	}
}

func (s *Service) fail(stage string, err error, recipient uuid.UUID) {
	s.metrics.NotificationFailures.WithLabelValues(stage).Inc()
	s.logger.Error(err, "Notification dispatch failed",
		"stage", stage,
		"recipient", recipient.String())
}

func (s *Service) List(ctx context.Context, filter model.NotificationFilter) (*model.Page[*model.Notification], error) {
	filter.Pagination = filter.Pagination.Normalize()

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to list notifications: %w", err))
	}
	return model.NewPage(items, total, filter.Pagination), nil
}

func (s *Service) UnreadCount(ctx context.Context, recipient uuid.UUID) (int, error) {
	count, err := s.repo.CountUnread(ctx, recipient)
	if err != nil {
		return 0, errors.Internal(err)
	}
	return count, nil
}

// MarkRead flags one of the recipient's notifications as read. Notifications
// addressed to someone else report not found.
func (s *Service) MarkRead(ctx context.Context, id, recipient uuid.UUID) error {
	err := s.repo.MarkRead(ctx, id, recipient)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return errors.NotFound("Notification", err)
	default:
		return errors.Internal(err)
	}
}

func (s *Service) MarkAllRead(ctx context.Context, recipient uuid.UUID) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, recipient)
	if err != nil {
		return 0, errors.Internal(err)
	}
	return n, nil
}
