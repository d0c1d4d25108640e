package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/internal/repository"
)

type eventRepository struct {
	*Store
}

func NewEventRepository(s *Store) repository.EventRepository {
	return &eventRepository{s}
}

func (r *eventRepository) Create(_ context.Context, event *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if _, ok := r.events[event.ID]; ok {
		return repository.ErrDuplicate
	}
	r.events[event.ID] = event.Clone()
	r.eventOrder = append(r.eventOrder, event.ID)
	return nil
}

func (r *eventRepository) Get(_ context.Context, id uuid.UUID) (*model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ev, ok := r.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return ev.Clone(), nil
}

func (r *eventRepository) UpdateIfStatus(_ context.Context, event *model.Event, expected model.EventStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.events[event.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Status != expected {
		return repository.ErrStaleState
	}

	next := event.Clone()
	next.SubmittedBy = current.SubmittedBy
	next.CreatedAt = current.CreatedAt
	next.Feedback = current.Feedback
	r.events[event.ID] = next
	return nil
}

func (r *eventRepository) DeleteIfStatus(_ context.Context, id uuid.UUID, allowed ...model.EventStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.events[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !containsStatus(allowed, current.Status) {
		return repository.ErrStaleState
	}

	delete(r.events, id)
	for i, eid := range r.eventOrder {
		if eid == id {
			r.eventOrder = append(r.eventOrder[:i], r.eventOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (r *eventRepository) AddFeedback(_ context.Context, eventID uuid.UUID, feedback model.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.events[eventID]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Status != model.EventStatusCompleted {
		return repository.ErrStaleState
	}
	if current.HasFeedbackFrom(feedback.UserID) {
		return repository.ErrDuplicate
	}

	current.Feedback = append(current.Feedback, feedback)
	current.UpdatedAt = feedback.SubmittedAt
	return nil
}

func (r *eventRepository) List(_ context.Context, filter model.EventFilter) ([]*model.Event, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*model.Event
	for _, id := range r.eventOrder {
		ev := r.events[id]
		if filter.SubmittedBy != nil && ev.SubmittedBy != *filter.SubmittedBy {
			continue
		}
		if filter.Status != nil && ev.Status != *filter.Status {
			continue
		}
		matched = append(matched, ev)
	}

	sortEvents(matched, filter.SortOrder)

	page := paginate(matched, filter.Pagination)
	out := make([]*model.Event, 0, len(page))
	for _, ev := range page {
		out = append(out, ev.Clone())
	}
	return out, len(matched), nil
}

func (r *eventRepository) CountByStatus(_ context.Context, submittedBy uuid.UUID) (*model.StatusCounts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := &model.StatusCounts{}
	for _, ev := range r.events {
		if ev.SubmittedBy == submittedBy {
			counts.Add(ev.Status, 1)
		}
	}
	return counts, nil
}

func (r *eventRepository) ListAnalyticsRows(_ context.Context, from, to time.Time) ([]model.AnalyticsRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []model.AnalyticsRow
	for _, id := range r.eventOrder {
		ev := r.events[id]
		if ev.CreatedAt.Before(from) || !ev.CreatedAt.Before(to) {
			continue
		}
		row := model.AnalyticsRow{
			ID:        ev.ID,
			CreatedAt: ev.CreatedAt,
			Status:    ev.Status,
			Category:  ev.Category,
			EventDate: ev.EventDate,
			EventTime: ev.EventTime,
		}
		for _, f := range ev.Feedback {
			row.Ratings = append(row.Ratings, f.Rating)
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
	return rows, nil
}

func containsStatus(list []model.EventStatus, s model.EventStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortEvents(events []*model.Event, order model.SortOrder) {
	field := order.Field
	if _, ok := model.EventSortFields[field]; !ok {
		field = "createdAt"
	}
	desc := order.Descending()

	compare := func(a, b *model.Event) int {
		switch field {
		case "updatedAt":
			return a.UpdatedAt.Compare(b.UpdatedAt)
		case "eventDate":
			return a.EventDate.Compare(b.EventDate)
		case "title":
			return strings.Compare(a.Title, b.Title)
		case "status":
			return strings.Compare(string(a.Status), string(b.Status))
		case "priority":
			return strings.Compare(string(a.Priority), string(b.Priority))
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		c := compare(events[i], events[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
}
