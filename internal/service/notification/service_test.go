package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/internal/repository"
	"github.com/jwalitptl/eventflow-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/eventflow-api/pkg/errors"
	"github.com/jwalitptl/eventflow-api/pkg/logger"
	"github.com/jwalitptl/eventflow-api/pkg/metrics"
)

type fixture struct {
	svc     *Service
	store   *memory.Store
	outbox  repository.OutboxRepository
	metrics *metrics.Metrics
	user    *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	user := &model.User{Name: "Jane", Email: "jane@example.com", Role: model.RoleUser}
	require.NoError(t, users.Create(context.Background(), user))

	outbox := memory.NewOutboxRepository(store)
	m := metrics.NewNop()
	svc := NewService(memory.NewNotificationRepository(store), users, outbox, logger.Nop(), m)
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }

	return &fixture{svc: svc, store: store, outbox: outbox, metrics: m, user: user}
}

func TestNotify_PersistsAndQueues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eventID := uuid.New()

	n, err := f.svc.Notify(ctx, f.user.ID, EventDenied{Title: "Gala", Reason: "Venue unavailable"}, &eventID)
	require.NoError(t, err)

	assert.Equal(t, model.NotificationEventDenied, n.Type)
	assert.Equal(t, "Venue unavailable", n.AdminNote)
	assert.Equal(t, model.PriorityHigh, n.Priority)
	assert.Equal(t, &eventID, n.EventID)
	assert.False(t, n.IsRead)

	page, err := f.svc.List(ctx, model.NotificationFilter{RecipientID: f.user.ID})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, n.ID, page.Items[0].ID)

	queued, err := f.outbox.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, queued, 1)
	assert.Equal(t, model.OutboxNotificationCreated, queued[0].EventType)

	var msg model.NotificationMessage
	require.NoError(t, json.Unmarshal(queued[0].Payload, &msg))
	assert.Equal(t, "jane@example.com", msg.RecipientEmail)
	assert.Equal(t, "Jane", msg.RecipientName)
	assert.Equal(t, n.ID, msg.Notification.ID)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.NotificationsCreated.WithLabelValues("event_denied")))
}

func TestNotify_UnknownRecipientStillPersists(t *testing.T) {
	f := newFixture(t)
	stranger := uuid.New()

	_, err := f.svc.Notify(context.Background(), stranger, EventSubmitted{Title: "Gala"}, nil)
	require.NoError(t, err)

	queued, err := f.outbox.ClaimPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, queued, 1)

	var msg model.NotificationMessage
	require.NoError(t, json.Unmarshal(queued[0].Payload, &msg))
	assert.Empty(t, msg.RecipientEmail)
}

type failingNotifications struct {
	repository.NotificationRepository
}

func (failingNotifications) Create(context.Context, *model.Notification) error {
	return errors.New("disk full")
}

func TestNotify_PersistFailureIsReportedAsDelivery(t *testing.T) {
	f := newFixture(t)
	f.svc.repo = failingNotifications{}

	_, err := f.svc.Notify(context.Background(), f.user.ID, EventSubmitted{Title: "Gala"}, nil)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrDelivery))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.NotificationFailures.WithLabelValues("persist")))

	queued, err := f.outbox.ClaimPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, queued)
}

type failingOutbox struct {
	repository.OutboxRepository
}

func (failingOutbox) Create(context.Context, *model.OutboxEvent) error {
	return errors.New("outbox down")
}

func TestNotify_OutboxFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.svc.outbox = failingOutbox{}

	n, err := f.svc.Notify(context.Background(), f.user.ID, EventCompleted{Title: "Gala"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, n)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.NotificationFailures.WithLabelValues("outbox")))
}

func TestNotifyMany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := uuid.New()

	batch, err := f.svc.NotifyMany(ctx, []uuid.UUID{f.user.ID, other}, EventReminder{Title: "Gala", DaysUntil: 1}, nil)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	for _, n := range batch {
		assert.Equal(t, model.PriorityUrgent, n.Priority)
		assert.Equal(t, `Reminder: Your event "Gala" is tomorrow.`, n.Message)
	}

	count, err := f.svc.UnreadCount(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	empty, err := f.svc.NotifyMany(ctx, nil, EventSubmitted{Title: "x"}, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestInbox_ReadFlags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Notify(ctx, f.user.ID, EventSubmitted{Title: "One"}, nil)
	require.NoError(t, err)
	_, err = f.svc.Notify(ctx, f.user.ID, EventSubmitted{Title: "Two"}, nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.MarkRead(ctx, first.ID, f.user.ID))

	count, err := f.svc.UnreadCount(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	unread, err := f.svc.List(ctx, model.NotificationFilter{RecipientID: f.user.ID, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread.Items, 1)
	assert.Contains(t, unread.Items[0].Message, `"Two"`)

	err = f.svc.MarkRead(ctx, first.ID, uuid.New())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound), "other recipients cannot touch the notice")

	updated, err := f.svc.MarkAllRead(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	count, err = f.svc.UnreadCount(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
