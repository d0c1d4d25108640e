package lifecycle

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/internal/service/notification"
	"github.com/jwalitptl/eventflow-api/pkg/errors"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return NewEngine(WithClock(func() time.Time { return fixedNow }))
}

func validDraft() model.EventDraft {
	return model.EventDraft{
		Title:       "Spring Conference",
		Description: "Annual spring conference for the whole team",
		EventDate:   time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC),
		EventTime:   "14:30",
		Duration:    "3 hours",
		Venue:       "Main Hall",
		Capacity:    120,
		Category:    model.CategoryConference,
		Tags:        []string{"annual", "company"},
	}
}

func userActor() model.Actor  { return model.Actor{ID: uuid.New(), Role: model.RoleUser} }
func adminActor() model.Actor { return model.Actor{ID: uuid.New(), Role: model.RoleAdmin} }

func eventIn(status model.EventStatus, owner uuid.UUID) *model.Event {
	return &model.Event{
		ID:          uuid.New(),
		Title:       "Spring Conference",
		Status:      status,
		SubmittedBy: owner,
		Capacity:    10,
		Category:    model.CategoryConference,
		Priority:    model.PriorityMedium,
		Feedback:    []model.Feedback{},
	}
}

func TestEngine_Submit(t *testing.T) {
	e := newTestEngine()
	owner := userActor()

	ev, effects, err := e.Submit(owner, validDraft())
	require.NoError(t, err)

	assert.Equal(t, model.EventStatusPending, ev.Status)
	assert.Equal(t, owner.ID, ev.SubmittedBy)
	assert.Equal(t, model.PriorityMedium, ev.Priority)
	assert.Nil(t, ev.ReviewedBy)
	assert.Nil(t, ev.ReviewedAt)
	assert.Equal(t, fixedNow, ev.CreatedAt)
	assert.Equal(t, []string{"annual", "company"}, ev.Tags)

	require.Len(t, effects, 1)
	assert.Equal(t, owner.ID, effects[0].Recipient)
	assert.Equal(t, ev.ID, effects[0].EventID)
	assert.Equal(t, notification.EventSubmitted{Title: "Spring Conference"}, effects[0].Template)
}

func TestEngine_Submit_Validation(t *testing.T) {
	e := newTestEngine()

	draft := validDraft()
	draft.Capacity = 0
	draft.Title = "ab"
	negative := decimal.NewFromInt(-5)
	draft.EstimatedCost = &negative
	draft.Category = "party"

	_, effects, err := e.Submit(userActor(), draft)
	require.Error(t, err)
	assert.Empty(t, effects)

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrValidation, appErr.Code)

	var fields []string
	for _, f := range appErr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"title", "capacity", "estimatedCost", "category"}, fields)
}

func TestEngine_Approve(t *testing.T) {
	e := newTestEngine()
	owner := userActor()
	admin := adminActor()
	ev := eventIn(model.EventStatusPending, owner.ID)

	next, effects, err := e.Transition(ev, ActionApprove, admin, Payload{Notes: "Looks good"})
	require.NoError(t, err)

	assert.Equal(t, model.EventStatusApproved, next.Status)
	require.NotNil(t, next.ReviewedBy)
	assert.Equal(t, admin.ID, *next.ReviewedBy)
	require.NotNil(t, next.ReviewedAt)
	assert.Equal(t, fixedNow, *next.ReviewedAt)
	assert.Equal(t, "Looks good", next.ReviewNotes)

	require.Len(t, effects, 1)
	assert.Equal(t, owner.ID, effects[0].Recipient)
	assert.Equal(t, notification.EventApproved{Title: ev.Title, Note: "Looks good"}, effects[0].Template)

	// input is untouched
	assert.Equal(t, model.EventStatusPending, ev.Status)
	assert.Nil(t, ev.ReviewedBy)
}

func TestEngine_Approve_EmptyNotes(t *testing.T) {
	next, _, err := newTestEngine().Transition(eventIn(model.EventStatusPending, uuid.New()), ActionApprove, adminActor(), Payload{})
	require.NoError(t, err)
	assert.Equal(t, "", next.ReviewNotes)
}

func TestEngine_Deny_DefaultReason(t *testing.T) {
	e := newTestEngine()
	ev := eventIn(model.EventStatusPending, uuid.New())

	next, effects, err := e.Transition(ev, ActionDeny, adminActor(), Payload{Reason: "  "})
	require.NoError(t, err)

	assert.Equal(t, model.EventStatusDenied, next.Status)
	assert.Equal(t, DefaultDenyReason, next.ReviewNotes)
	require.Len(t, effects, 1)
	assert.Equal(t, notification.EventDenied{Title: ev.Title, Reason: DefaultDenyReason}, effects[0].Template)
}

func TestEngine_IllegalTransitions(t *testing.T) {
	tests := []struct {
		name    string
		status  model.EventStatus
		action  Action
		message string
	}{
		{"approve approved", model.EventStatusApproved, ActionApprove, "Only pending events can be approved"},
		{"approve denied", model.EventStatusDenied, ActionApprove, "Only pending events can be approved"},
		{"approve completed", model.EventStatusCompleted, ActionApprove, "Only pending events can be approved"},
		{"deny approved", model.EventStatusApproved, ActionDeny, "Only pending events can be denied"},
		{"deny completed", model.EventStatusCompleted, ActionDeny, "Only pending events can be denied"},
		{"complete pending", model.EventStatusPending, ActionComplete, "Only approved events can be marked as completed"},
		{"complete denied", model.EventStatusDenied, ActionComplete, "Only approved events can be marked as completed"},
		{"complete completed", model.EventStatusCompleted, ActionComplete, "Only approved events can be marked as completed"},
	}

	e := newTestEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := eventIn(tt.status, uuid.New())
			next, effects, err := e.Transition(ev, tt.action, adminActor(), Payload{})

			require.Error(t, err)
			assert.Nil(t, next)
			assert.Empty(t, effects)
			assert.True(t, errors.IsCode(err, errors.ErrInvalidState))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestEngine_ReviewRequiresAdmin(t *testing.T) {
	e := newTestEngine()
	owner := userActor()
	ev := eventIn(model.EventStatusPending, owner.ID)

	for _, action := range []Action{ActionApprove, ActionDeny, ActionComplete} {
		_, _, err := e.Transition(ev, action, owner, Payload{})
		assert.True(t, errors.IsCode(err, errors.ErrForbidden), "action %s", action)
	}
}

func TestEngine_ReviewFieldsSetOnce(t *testing.T) {
	e := newTestEngine()
	admin := adminActor()
	ev := eventIn(model.EventStatusPending, uuid.New())

	approved, _, err := e.Transition(ev, ActionApprove, admin, Payload{})
	require.NoError(t, err)

	later := NewEngine(WithClock(func() time.Time { return fixedNow.Add(time.Hour) }))
	completed, effects, err := later.Transition(approved, ActionComplete, adminActor(), Payload{})
	require.NoError(t, err)

	assert.Equal(t, model.EventStatusCompleted, completed.Status)
	assert.Equal(t, admin.ID, *completed.ReviewedBy)
	assert.Equal(t, fixedNow, *completed.ReviewedAt)
	require.Len(t, effects, 1)
	assert.Equal(t, notification.EventCompleted{Title: ev.Title}, effects[0].Template)
}

func TestEngine_Edit(t *testing.T) {
	e := newTestEngine()
	owner := userActor()
	ev := eventIn(model.EventStatusPending, owner.ID)

	title := "Renamed Conference"
	capacity := 200
	next, effects, err := e.Transition(ev, ActionEdit, owner, Payload{Changes: &model.EventChanges{
		Title:    &title,
		Capacity: &capacity,
	}})
	require.NoError(t, err)
	assert.Empty(t, effects)
	assert.Equal(t, title, next.Title)
	assert.Equal(t, 200, next.Capacity)
	assert.Equal(t, model.EventStatusPending, next.Status)
	assert.Equal(t, owner.ID, next.SubmittedBy)
}

func TestEngine_Edit_Rules(t *testing.T) {
	e := newTestEngine()
	owner := userActor()
	title := "New title"

	_, _, err := e.Transition(eventIn(model.EventStatusPending, owner.ID), ActionEdit, userActor(), Payload{Changes: &model.EventChanges{Title: &title}})
	assert.True(t, errors.IsCode(err, errors.ErrForbidden))

	_, _, err = e.Transition(eventIn(model.EventStatusPending, owner.ID), ActionEdit, adminActor(), Payload{Changes: &model.EventChanges{Title: &title}})
	assert.True(t, errors.IsCode(err, errors.ErrForbidden))

	_, _, err = e.Transition(eventIn(model.EventStatusApproved, owner.ID), ActionEdit, owner, Payload{Changes: &model.EventChanges{Title: &title}})
	assert.True(t, errors.IsCode(err, errors.ErrInvalidState))
	assert.Equal(t, "Can only update pending events", err.Error())

	short := "ab"
	_, _, err = e.Transition(eventIn(model.EventStatusPending, owner.ID), ActionEdit, owner, Payload{Changes: &model.EventChanges{Title: &short}})
	assert.True(t, errors.IsCode(err, errors.ErrValidation))

	blank := "  "
	ev := eventIn(model.EventStatusPending, owner.ID)
	_, _, err = e.Transition(ev, ActionEdit, owner, Payload{Changes: &model.EventChanges{EventTime: &blank, Duration: &blank}})
	require.True(t, errors.IsCode(err, errors.ErrValidation))
	appErr, _ := errors.As(err)
	assert.ElementsMatch(t, []errors.FieldError{
		{Field: "eventTime", Message: "Event time is required"},
		{Field: "duration", Message: "Duration is required"},
	}, appErr.Fields)
}

func TestEngine_Delete(t *testing.T) {
	e := newTestEngine()
	owner := userActor()

	for _, status := range []model.EventStatus{model.EventStatusPending, model.EventStatusDenied} {
		_, _, err := e.Transition(eventIn(status, owner.ID), ActionDelete, owner, Payload{})
		assert.NoError(t, err)
		_, _, err = e.Transition(eventIn(status, owner.ID), ActionDelete, adminActor(), Payload{})
		assert.NoError(t, err)
	}

	for _, status := range []model.EventStatus{model.EventStatusApproved, model.EventStatusCompleted} {
		_, _, err := e.Transition(eventIn(status, owner.ID), ActionDelete, owner, Payload{})
		assert.True(t, errors.IsCode(err, errors.ErrInvalidState))
		assert.Equal(t, "Cannot delete approved or completed events", err.Error())
	}

	_, _, err := e.Transition(eventIn(model.EventStatusPending, owner.ID), ActionDelete, userActor(), Payload{})
	assert.True(t, errors.IsCode(err, errors.ErrForbidden))
}

func TestEngine_Feedback(t *testing.T) {
	e := newTestEngine()
	owner := userActor()
	ev := eventIn(model.EventStatusCompleted, owner.ID)

	next, effects, err := e.Transition(ev, ActionFeedback, owner, Payload{Rating: 5, Comment: "Great"})
	require.NoError(t, err)
	assert.Empty(t, effects)
	require.Len(t, next.Feedback, 1)
	assert.Equal(t, owner.ID, next.Feedback[0].UserID)
	assert.Equal(t, 5, next.Feedback[0].Rating)
	assert.Equal(t, "Great", next.Feedback[0].Comment)
	assert.Equal(t, fixedNow, next.Feedback[0].SubmittedAt)
	assert.Empty(t, ev.Feedback)

	_, _, err = e.Transition(next, ActionFeedback, owner, Payload{Rating: 4})
	assert.True(t, errors.IsCode(err, errors.ErrDuplicate))
}

func TestEngine_Feedback_Rules(t *testing.T) {
	e := newTestEngine()
	owner := userActor()

	_, _, err := e.Transition(eventIn(model.EventStatusApproved, owner.ID), ActionFeedback, owner, Payload{Rating: 4})
	assert.True(t, errors.IsCode(err, errors.ErrInvalidState))
	assert.Equal(t, "Can only provide feedback for completed events", err.Error())

	for _, rating := range []int{0, 6, -1} {
		_, _, err = e.Transition(eventIn(model.EventStatusCompleted, owner.ID), ActionFeedback, owner, Payload{Rating: rating})
		assert.True(t, errors.IsCode(err, errors.ErrValidation), "rating %d", rating)
	}

	_, _, err = e.Transition(eventIn(model.EventStatusCompleted, owner.ID), ActionFeedback, userActor(), Payload{Rating: 3})
	assert.True(t, errors.IsCode(err, errors.ErrForbidden))
}

func TestEngine_UnknownAction(t *testing.T) {
	_, _, err := newTestEngine().Transition(eventIn(model.EventStatusPending, uuid.New()), Action("archive"), adminActor(), Payload{})
	assert.True(t, errors.IsCode(err, errors.ErrBadRequest))
}
