package event

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/eventflow-api/internal/lifecycle"
	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/internal/repository"
	"github.com/jwalitptl/eventflow-api/internal/service/notification"
	"github.com/jwalitptl/eventflow-api/pkg/errors"
	"github.com/jwalitptl/eventflow-api/pkg/logger"
	"github.com/jwalitptl/eventflow-api/pkg/metrics"
)

// Notifier records the notifications owed after a committed change. It
// handles its own failures.
type Notifier interface {
	Notify(ctx context.Context, recipient uuid.UUID, t notification.Template, eventID *uuid.UUID) (*model.Notification, error)
}

// Invalidator is told whenever stored events change
type Invalidator interface {
	Invalidate()
}

// staleMessages are reported when a concurrent writer changed the status
// between the read and the conditional write.
var staleMessages = map[lifecycle.Action]string{
	lifecycle.ActionApprove:  "Only pending events can be approved",
	lifecycle.ActionDeny:     "Only pending events can be denied",
	lifecycle.ActionComplete: "Only approved events can be marked as completed",
	lifecycle.ActionEdit:     "Can only update pending events",
	lifecycle.ActionDelete:   "Cannot delete approved or completed events",
	lifecycle.ActionFeedback: "Can only provide feedback for completed events",
}

// deletableStatuses must match the statuses the engine accepts for delete
var deletableStatuses = []model.EventStatus{model.EventStatusPending, model.EventStatusDenied}

type Service struct {
	repo     repository.EventRepository
	engine   *lifecycle.Engine
	notifier Notifier
	cache    Invalidator
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewService(
	repo repository.EventRepository,
	engine *lifecycle.Engine,
	notifier Notifier,
	cache Invalidator,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		repo:     repo,
		engine:   engine,
		notifier: notifier,
		cache:    cache,
		logger:   logger,
		metrics:  metrics,
	}
}

func (s *Service) Create(ctx context.Context, actor model.Actor, draft model.EventDraft) (*model.Event, error) {
	ev, effects, err := s.engine.Submit(actor, draft)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, ev); err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to create event: %w", err))
	}
	s.metrics.EventsSubmitted.Inc()
	s.logger.Info("Event submitted", "event_id", ev.ID.String(), "actor", actor.ID.String())

	s.changed(ctx, effects)
	return ev, nil
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Event, error) {
	ev, err := s.load(ctx, id, lifecycle.ActionEdit)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CanView(ev, actor); err != nil {
		return nil, err
	}
	return ev, nil
}

// ListMine lists the actor's own events
func (s *Service) ListMine(ctx context.Context, actor model.Actor, filter model.EventFilter) (*model.Page[*model.Event], error) {
	owner := actor.ID
	filter.SubmittedBy = &owner
	return s.list(ctx, filter)
}

// ListAll lists every event, optionally narrowed by status. Admin only.
func (s *Service) ListAll(ctx context.Context, actor model.Actor, filter model.EventFilter) (*model.Page[*model.Event], error) {
	if err := lifecycle.CanReview(actor); err != nil {
		return nil, err
	}
	return s.list(ctx, filter)
}

// ListPending lists events awaiting review, newest first. Admin only.
func (s *Service) ListPending(ctx context.Context, actor model.Actor, p model.Pagination) (*model.Page[*model.Event], error) {
	if err := lifecycle.CanReview(actor); err != nil {
		return nil, err
	}
	status := model.EventStatusPending
	return s.list(ctx, model.EventFilter{Status: &status, Pagination: p})
}

func (s *Service) list(ctx context.Context, filter model.EventFilter) (*model.Page[*model.Event], error) {
	filter.Pagination = filter.Pagination.Normalize()
	if filter.Field == "" {
		filter.Field = "createdAt"
	}
	if _, ok := model.EventSortFields[filter.Field]; !ok {
		return nil, errors.Validation(errors.FieldError{
			Field:   "sortBy",
			Message: "sortBy must be one of " + strings.Join(sortFieldNames(), ", "),
		})
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to list events: %w", err))
	}
	return model.NewPage(items, total, filter.Pagination), nil
}

func sortFieldNames() []string {
	names := make([]string, 0, len(model.EventSortFields))
	for name := range model.EventSortFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, changes *model.EventChanges) (*model.Event, error) {
	return s.transition(ctx, actor, id, lifecycle.ActionEdit, lifecycle.Payload{Changes: changes})
}

func (s *Service) Approve(ctx context.Context, actor model.Actor, id uuid.UUID, notes string) (*model.Event, error) {
	return s.transition(ctx, actor, id, lifecycle.ActionApprove, lifecycle.Payload{Notes: notes})
}

func (s *Service) Deny(ctx context.Context, actor model.Actor, id uuid.UUID, reason string) (*model.Event, error) {
	return s.transition(ctx, actor, id, lifecycle.ActionDeny, lifecycle.Payload{Reason: reason})
}

func (s *Service) Complete(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Event, error) {
	return s.transition(ctx, actor, id, lifecycle.ActionComplete, lifecycle.Payload{})
}

func (s *Service) transition(ctx context.Context, actor model.Actor, id uuid.UUID, action lifecycle.Action, p lifecycle.Payload) (ev *model.Event, err error) {
	defer func() { s.record(action, err) }()

	current, err := s.load(ctx, id, action)
	if err != nil {
		return nil, err
	}

	next, effects, err := s.engine.Transition(current, action, actor, p)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateIfStatus(ctx, next, current.Status); err != nil {
		return nil, s.mapError(err, action)
	}
	s.logger.Info("Event transitioned",
		"event_id", id.String(),
		"action", string(action),
		"from", string(current.Status),
		"to", string(next.Status),
		"actor", actor.ID.String())

	s.changed(ctx, effects)
	return next, nil
}

func (s *Service) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) (err error) {
	defer func() { s.record(lifecycle.ActionDelete, err) }()

	current, err := s.load(ctx, id, lifecycle.ActionDelete)
	if err != nil {
		return err
	}
	if _, _, err := s.engine.Transition(current, lifecycle.ActionDelete, actor, lifecycle.Payload{}); err != nil {
		return err
	}

	if err := s.repo.DeleteIfStatus(ctx, id, deletableStatuses...); err != nil {
		return s.mapError(err, lifecycle.ActionDelete)
	}
	s.logger.Info("Event deleted", "event_id", id.String(), "actor", actor.ID.String())

	s.changed(ctx, nil)
	return nil
}

// AddFeedback records the owner's rating of a completed event
func (s *Service) AddFeedback(ctx context.Context, actor model.Actor, id uuid.UUID, rating int, comment string) (ev *model.Event, err error) {
	defer func() { s.record(lifecycle.ActionFeedback, err) }()

	current, err := s.load(ctx, id, lifecycle.ActionFeedback)
	if err != nil {
		return nil, err
	}

	next, _, err := s.engine.Transition(current, lifecycle.ActionFeedback, actor, lifecycle.Payload{Rating: rating, Comment: comment})
	if err != nil {
		return nil, err
	}

	entry := next.Feedback[len(next.Feedback)-1]
	if err := s.repo.AddFeedback(ctx, id, entry); err != nil {
		return nil, s.mapError(err, lifecycle.ActionFeedback)
	}

	s.changed(ctx, nil)
	return next, nil
}

// Stats counts the actor's own events per status
func (s *Service) Stats(ctx context.Context, actor model.Actor) (*model.StatusCounts, error) {
	counts, err := s.repo.CountByStatus(ctx, actor.ID)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to count events: %w", err))
	}
	return counts, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID, action lifecycle.Action) (*model.Event, error) {
	ev, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.mapError(err, action)
	}
	return ev, nil
}

// changed runs the post-commit work. Notifications outlive the request.
func (s *Service) changed(ctx context.Context, effects []lifecycle.SideEffect) {
	if s.cache != nil {
		s.cache.Invalidate()
	}

	ctx = context.WithoutCancel(ctx)
	for _, eff := range effects {
		eventID := eff.EventID
		// Failures are already logged and counted by the notifier.
		_, _ = s.notifier.Notify(ctx, eff.Recipient, eff.Template, &eventID)
	}
}

func (s *Service) mapError(err error, action lifecycle.Action) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return errors.NotFound("Event", err)
	case errors.Is(err, repository.ErrStaleState):
		return errors.InvalidState(staleMessages[action])
	case errors.Is(err, repository.ErrDuplicate):
		return errors.Duplicate("You have already provided feedback for this event")
	default:
		return errors.Internal(err)
	}
}

func (s *Service) record(action lifecycle.Action, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
		if appErr, ok := errors.As(err); !ok || appErr.StatusCode() >= 500 {
			outcome = "error"
		}
	}
	s.metrics.EventTransitions.WithLabelValues(string(action), outcome).Inc()
}
