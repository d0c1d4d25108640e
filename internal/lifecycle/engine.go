package lifecycle

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/internal/service/notification"
	"github.com/jwalitptl/eventflow-api/pkg/errors"
)

type Action string

const (
	ActionApprove  Action = "approve"
	ActionDeny     Action = "deny"
	ActionComplete Action = "complete"
	ActionEdit     Action = "edit"
	ActionDelete   Action = "delete"
	ActionFeedback Action = "feedback"
)

const (
	DefaultDenyReason = "No reason provided"
	MaxCommentLength  = 500
)

// Payload carries action-specific input. Only the fields relevant to the
// action are read.
type Payload struct {
	Notes   string
	Reason  string
	Changes *model.EventChanges
	Rating  int
	Comment string
}

// SideEffect is a notification owed to a user after a committed transition
type SideEffect struct {
	Recipient uuid.UUID
	EventID   uuid.UUID
	Template  notification.Template
}

// Engine applies lifecycle actions to events. It never mutates its input
// and performs no I/O.
type Engine struct {
	now func() time.Time
}

type Option func(*Engine)

// WithClock overrides the time source used for review and feedback stamps
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit builds a new pending event owned by actor.
func (e *Engine) Submit(actor model.Actor, draft model.EventDraft) (*model.Event, []SideEffect, error) {
	if actor.ID == uuid.Nil {
		return nil, nil, errors.Unauthorized(nil)
	}

	draft.Title = strings.TrimSpace(draft.Title)
	draft.Description = strings.TrimSpace(draft.Description)
	draft.Venue = strings.TrimSpace(draft.Venue)
	if draft.Priority == "" {
		draft.Priority = model.PriorityMedium
	}
	if fields := validateDraft(draft); len(fields) > 0 {
		return nil, nil, errors.Validation(fields...)
	}

	now := e.now()
	ev := &model.Event{
		ID:            uuid.New(),
		Title:         draft.Title,
		Description:   draft.Description,
		EventDate:     draft.EventDate,
		EventTime:     draft.EventTime,
		Duration:      draft.Duration,
		Venue:         draft.Venue,
		Capacity:      draft.Capacity,
		Category:      draft.Category,
		Priority:      draft.Priority,
		Tags:          append([]string{}, draft.Tags...),
		EstimatedCost: draft.EstimatedCost,
		Requirements:  draft.Requirements,
		ContactPerson: draft.ContactPerson,
		IsTemplate:    draft.IsTemplate,
		TemplateName:  draft.TemplateName,
		Status:        model.EventStatusPending,
		SubmittedBy:   actor.ID,
		Feedback:      []model.Feedback{},
		Base:          model.Base{CreatedAt: now, UpdatedAt: now},
	}

	return ev, []SideEffect{{
		Recipient: ev.SubmittedBy,
		EventID:   ev.ID,
		Template:  notification.EventSubmitted{Title: ev.Title},
	}}, nil
}

// Transition applies action to ev on behalf of actor. For ActionDelete the
// returned event is nil on success.
func (e *Engine) Transition(ev *model.Event, action Action, actor model.Actor, p Payload) (*model.Event, []SideEffect, error) {
	if ev == nil {
		return nil, nil, errors.NotFound("Event", nil)
	}

	switch action {
	case ActionApprove:
		return e.approve(ev, actor, p.Notes)
	case ActionDeny:
		return e.deny(ev, actor, p.Reason)
	case ActionComplete:
		return e.complete(ev, actor)
	case ActionEdit:
		return e.edit(ev, actor, p.Changes)
	case ActionDelete:
		return nil, nil, e.remove(ev, actor)
	case ActionFeedback:
		return e.feedback(ev, actor, p.Rating, p.Comment)
	default:
		return nil, nil, errors.BadRequest("unknown action "+string(action), nil)
	}
}

func (e *Engine) approve(ev *model.Event, actor model.Actor, notes string) (*model.Event, []SideEffect, error) {
	if err := CanReview(actor); err != nil {
		return nil, nil, err
	}
	if ev.Status != model.EventStatusPending {
		return nil, nil, errors.InvalidState("Only pending events can be approved")
	}

	next := e.review(ev, actor, model.EventStatusApproved, strings.TrimSpace(notes))
	return next, []SideEffect{{
		Recipient: next.SubmittedBy,
		EventID:   next.ID,
		Template:  notification.EventApproved{Title: next.Title, Note: next.ReviewNotes},
	}}, nil
}

func (e *Engine) deny(ev *model.Event, actor model.Actor, reason string) (*model.Event, []SideEffect, error) {
	if err := CanReview(actor); err != nil {
		return nil, nil, err
	}
	if ev.Status != model.EventStatusPending {
		return nil, nil, errors.InvalidState("Only pending events can be denied")
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultDenyReason
	}

	next := e.review(ev, actor, model.EventStatusDenied, reason)
	return next, []SideEffect{{
		Recipient: next.SubmittedBy,
		EventID:   next.ID,
		Template:  notification.EventDenied{Title: next.Title, Reason: reason},
	}}, nil
}

func (e *Engine) review(ev *model.Event, actor model.Actor, status model.EventStatus, notes string) *model.Event {
	now := e.now()
	reviewer := actor.ID

	next := ev.Clone()
	next.Status = status
	next.ReviewedBy = &reviewer
	next.ReviewedAt = &now
	next.ReviewNotes = notes
	next.UpdatedAt = now
	return next
}

func (e *Engine) complete(ev *model.Event, actor model.Actor) (*model.Event, []SideEffect, error) {
	if err := CanReview(actor); err != nil {
		return nil, nil, err
	}
	if ev.Status != model.EventStatusApproved {
		return nil, nil, errors.InvalidState("Only approved events can be marked as completed")
	}

	next := ev.Clone()
	next.Status = model.EventStatusCompleted
	next.UpdatedAt = e.now()
	return next, []SideEffect{{
		Recipient: next.SubmittedBy,
		EventID:   next.ID,
		Template:  notification.EventCompleted{Title: next.Title},
	}}, nil
}

func (e *Engine) edit(ev *model.Event, actor model.Actor, changes *model.EventChanges) (*model.Event, []SideEffect, error) {
	if err := CanMutate(ev, actor); err != nil {
		return nil, nil, err
	}
	if ev.Status != model.EventStatusPending {
		return nil, nil, errors.InvalidState("Can only update pending events")
	}

	next := ev.Clone()
	if changes == nil {
		return next, nil, nil
	}
	if fields := validateChanges(changes); len(fields) > 0 {
		return nil, nil, errors.Validation(fields...)
	}

	if changes.Title != nil {
		next.Title = strings.TrimSpace(*changes.Title)
	}
	if changes.Description != nil {
		next.Description = strings.TrimSpace(*changes.Description)
	}
	if changes.EventDate != nil {
		next.EventDate = *changes.EventDate
	}
	if changes.EventTime != nil {
		next.EventTime = *changes.EventTime
	}
	if changes.Duration != nil {
		next.Duration = *changes.Duration
	}
	if changes.Venue != nil {
		next.Venue = strings.TrimSpace(*changes.Venue)
	}
	if changes.Capacity != nil {
		next.Capacity = *changes.Capacity
	}
	if changes.Category != nil {
		next.Category = *changes.Category
	}
	if changes.Priority != nil {
		next.Priority = *changes.Priority
	}
	if changes.Tags != nil {
		next.Tags = append([]string{}, changes.Tags...)
	}
	if changes.EstimatedCost != nil {
		cost := *changes.EstimatedCost
		next.EstimatedCost = &cost
	}
	if changes.Requirements != nil {
		next.Requirements = *changes.Requirements
	}
	if changes.ContactPerson != nil {
		next.ContactPerson = *changes.ContactPerson
	}
	if changes.IsTemplate != nil {
		next.IsTemplate = *changes.IsTemplate
	}
	if changes.TemplateName != nil {
		next.TemplateName = *changes.TemplateName
	}
	next.UpdatedAt = e.now()

	return next, nil, nil
}

func (e *Engine) remove(ev *model.Event, actor model.Actor) error {
	if err := CanDelete(ev, actor); err != nil {
		return err
	}
	if ev.Status != model.EventStatusPending && ev.Status != model.EventStatusDenied {
		return errors.InvalidState("Cannot delete approved or completed events")
	}
	return nil
}

func (e *Engine) feedback(ev *model.Event, actor model.Actor, rating int, comment string) (*model.Event, []SideEffect, error) {
	if err := CanRate(ev, actor); err != nil {
		return nil, nil, err
	}

	comment = strings.TrimSpace(comment)
	var fields []errors.FieldError
	if rating < 1 || rating > 5 {
		fields = append(fields, errors.FieldError{Field: "rating", Message: "Rating must be between 1 and 5"})
	}
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		fields = append(fields, errors.FieldError{Field: "comment", Message: "Comment must not exceed 500 characters"})
	}
	if len(fields) > 0 {
		return nil, nil, errors.Validation(fields...)
	}

	if ev.Status != model.EventStatusCompleted {
		return nil, nil, errors.InvalidState("Can only provide feedback for completed events")
	}
	if ev.HasFeedbackFrom(actor.ID) {
		return nil, nil, errors.Duplicate("You have already provided feedback for this event")
	}

	now := e.now()
	next := ev.Clone()
	next.Feedback = append(next.Feedback, model.Feedback{
		UserID:      actor.ID,
		Rating:      rating,
		Comment:     comment,
		SubmittedAt: now,
	})
	next.UpdatedAt = now
	return next, nil, nil
}

func validateDraft(d model.EventDraft) []errors.FieldError {
	var fields []errors.FieldError
	add := func(field, msg string) {
		fields = append(fields, errors.FieldError{Field: field, Message: msg})
	}

	if utf8.RuneCountInString(d.Title) < 3 {
		add("title", "Title must be at least 3 characters")
	}
	if utf8.RuneCountInString(d.Description) < 10 {
		add("description", "Description must be at least 10 characters")
	}
	if d.EventDate.IsZero() {
		add("eventDate", "Valid event date is required")
	}
	if strings.TrimSpace(d.EventTime) == "" {
		add("eventTime", "Event time is required")
	}
	if strings.TrimSpace(d.Duration) == "" {
		add("duration", "Duration is required")
	}
	if utf8.RuneCountInString(d.Venue) < 3 {
		add("venue", "Venue must be at least 3 characters")
	}
	if d.Capacity < 1 {
		add("capacity", "Capacity must be at least 1")
	}
	if !d.Category.Valid() {
		add("category", "Invalid category")
	}
	if !d.Priority.Valid() {
		add("priority", "Invalid priority")
	}
	if d.EstimatedCost != nil && d.EstimatedCost.IsNegative() {
		add("estimatedCost", "Estimated cost must be a positive number")
	}
	return fields
}

func validateChanges(c *model.EventChanges) []errors.FieldError {
	var fields []errors.FieldError
	add := func(field, msg string) {
		fields = append(fields, errors.FieldError{Field: field, Message: msg})
	}

	if c.Title != nil && utf8.RuneCountInString(strings.TrimSpace(*c.Title)) < 3 {
		add("title", "Title must be at least 3 characters")
	}
	if c.Description != nil && utf8.RuneCountInString(strings.TrimSpace(*c.Description)) < 10 {
		add("description", "Description must be at least 10 characters")
	}
	if c.EventDate != nil && c.EventDate.IsZero() {
		add("eventDate", "Valid event date is required")
	}
	if c.EventTime != nil && strings.TrimSpace(*c.EventTime) == "" {
		add("eventTime", "Event time is required")
	}
	if c.Duration != nil && strings.TrimSpace(*c.Duration) == "" {
		add("duration", "Duration is required")
	}
	if c.Venue != nil && utf8.RuneCountInString(strings.TrimSpace(*c.Venue)) < 3 {
		add("venue", "Venue must be at least 3 characters")
	}
	if c.Capacity != nil && *c.Capacity < 1 {
		add("capacity", "Capacity must be at least 1")
	}
	if c.Category != nil && !c.Category.Valid() {
		add("category", "Invalid category")
	}
	if c.Priority != nil && !c.Priority.Valid() {
		add("priority", "Invalid priority")
	}
	if c.EstimatedCost != nil && c.EstimatedCost.IsNegative() {
		add("estimatedCost", "Estimated cost must be a positive number")
	}
	return fields
}
