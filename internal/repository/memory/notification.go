package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/internal/repository"
)

type notificationRepository struct {
	*Store
}

func NewNotificationRepository(s *Store) repository.NotificationRepository {
	return &notificationRepository{s}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.CreateBatch(ctx, []*model.Notification{n})
}

func (r *notificationRepository) CreateBatch(_ context.Context, notifications []*model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range notifications {
		if n.ID == uuid.Nil {
			n.ID = uuid.New()
		}
		stored := *n
		r.notifications = append(r.notifications, &stored)
	}
	return nil
}

// List returns the newest notifications first.
func (r *notificationRepository) List(_ context.Context, filter model.NotificationFilter) ([]*model.Notification, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*model.Notification
	for i := len(r.notifications) - 1; i >= 0; i-- {
		n := r.notifications[i]
		if n.RecipientID != filter.RecipientID {
			continue
		}
		if filter.UnreadOnly && n.IsRead {
			continue
		}
		matched = append(matched, n)
	}

	page := paginate(matched, filter.Pagination)
	out := make([]*model.Notification, 0, len(page))
	for _, n := range page {
		c := *n
		out = append(out, &c)
	}
	return out, len(matched), nil
}

func (r *notificationRepository) CountUnread(_ context.Context, recipientID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(_ context.Context, id, recipientID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			n.IsRead = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *notificationRepository) MarkAllRead(_ context.Context, recipientID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var updated int64
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			updated++
		}
	}
	return updated, nil
}
