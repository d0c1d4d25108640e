package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/eventflow-api/internal/email"
	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/internal/repository"
	"github.com/jwalitptl/eventflow-api/internal/repository/memory"
	"github.com/jwalitptl/eventflow-api/pkg/logger"
	"github.com/jwalitptl/eventflow-api/pkg/metrics"
)

type stubHandler struct {
	name     string
	failures int
	calls    int
}

func (h *stubHandler) Name() string { return h.name }

func (h *stubHandler) Handle(context.Context, *model.OutboxEvent) error {
	h.calls++
	if h.calls <= h.failures {
		return errors.New("unavailable")
	}
	return nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []email.Message
}

func (s *recordingSender) Send(_ context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

type recordingBroker struct {
	channel string
	msgs    []interface{}
}

func (b *recordingBroker) Publish(_ context.Context, channel string, message interface{}) error {
	b.channel = channel
	b.msgs = append(b.msgs, message)
	return nil
}

func (b *recordingBroker) Close() error { return nil }

func newProcessor(t *testing.T, attempts int) (*OutboxProcessor, repository.OutboxRepository, *metrics.Metrics) {
	t.Helper()
	repo := memory.NewOutboxRepository(memory.NewStore())
	m := metrics.NewNop()
	p, err := NewOutboxProcessor(repo, OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: attempts,
	}, logger.Nop(), m)
	require.NoError(t, err)
	return p, repo, m
}

func enqueue(t *testing.T, repo repository.OutboxRepository, msg model.NotificationMessage) *model.OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	ev := &model.OutboxEvent{EventType: model.OutboxNotificationCreated, Payload: payload}
	require.NoError(t, repo.Create(context.Background(), ev))
	return ev
}

func sampleMessage() model.NotificationMessage {
	return model.NotificationMessage{
		Notification: &model.Notification{
			ID:      uuid.New(),
			Type:    model.NotificationEventApproved,
			Title:    "Event Approved! 🎉",
			Message:  `Your event "Gala" has been approved.`,
			Priority: model.PriorityHigh,
		},
		RecipientEmail: "jane@example.com",
		RecipientName:  "Jane",
	}
}

func TestNewOutboxProcessor_RejectsBadConfig(t *testing.T) {
	_, err := NewOutboxProcessor(nil, OutboxProcessorConfig{}, logger.Nop(), metrics.NewNop())
	assert.Error(t, err)
}

func TestOutboxProcessor_DeliversToAllHandlers(t *testing.T) {
	p, repo, m := newProcessor(t, 1)
	sender := &recordingSender{}
	broker := &recordingBroker{}
	p.Register(model.OutboxNotificationCreated, NewEmailHandler(sender))
	p.Register(model.OutboxNotificationCreated, NewBrokerHandler(broker, "eventflow.notifications"))

	enqueue(t, repo, sampleMessage())

	n, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "jane@example.com", sender.sent[0].To)
	assert.Equal(t, "Event Approved! 🎉", sender.sent[0].Subject)
	assert.Equal(t, "eventflow.notifications", broker.channel)
	assert.Len(t, broker.msgs, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxEventsProcessed))

	n, err = p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "processed events are not claimed again")
}

func TestOutboxProcessor_RetriesThenSucceeds(t *testing.T) {
	p, repo, m := newProcessor(t, 3)
	h := &stubHandler{name: "flaky", failures: 2}
	p.Register(model.OutboxNotificationCreated, h)
	enqueue(t, repo, sampleMessage())

	_, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, h.calls)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OutboxRetries.WithLabelValues(model.OutboxNotificationCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxEventsProcessed))
}

func TestOutboxProcessor_MarksFailedAfterRetries(t *testing.T) {
	p, repo, m := newProcessor(t, 2)
	h := &stubHandler{name: "email", failures: 10}
	p.Register(model.OutboxNotificationCreated, h)
	enqueue(t, repo, sampleMessage())

	_, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, h.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxEventsFailed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeliveryFailures.WithLabelValues("email")))

	pending, err := repo.ClaimPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "failed events stay out of the pending queue")
}

func TestEmailHandler_SkipsRecipientWithoutAddress(t *testing.T) {
	sender := &recordingSender{}
	msg := sampleMessage()
	msg.RecipientEmail = ""
	payload, err := json.Marshal(msg)
	require.NoError(t, err)

	err = NewEmailHandler(sender).Handle(context.Background(), &model.OutboxEvent{Payload: payload})
	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestEmailHandler_RejectsBadPayload(t *testing.T) {
	err := NewEmailHandler(&recordingSender{}).Handle(context.Background(), &model.OutboxEvent{Payload: json.RawMessage(`{`)})
	assert.Error(t, err)
}

func TestEmailHandler_RejectsUnknownPriority(t *testing.T) {
	for _, priority := range []string{"", "critical"} {
		sender := &recordingSender{}
		payload, err := json.Marshal(sampleMessage())
		require.NoError(t, err)
		payload = []byte(strings.Replace(string(payload), `"priority":"high"`, `"priority":"`+priority+`"`, 1))

		err = NewEmailHandler(sender).Handle(context.Background(), &model.OutboxEvent{Payload: payload})
		assert.Error(t, err, "priority %q", priority)
		assert.Empty(t, sender.sent)
	}
}

func TestRetry_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := retry(ctx, 5, time.Hour, func() error {
		calls++
		return errors.New("nope")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
