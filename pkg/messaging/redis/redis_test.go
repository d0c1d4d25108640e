package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/eventflow-api/pkg/messaging"
	"github.com/jwalitptl/eventflow-api/pkg/metrics"
)

func TestRedisBroker_Publish(t *testing.T) {
	client, mock := redismock.NewClientMock()
	m := metrics.NewNop()
	broker := NewRedisBrokerWithClient(client, m, zerolog.Nop())

	msg := messaging.Message{
		ID:         "1",
		Type:       "notification.created",
		Payload:    map[string]string{"title": "Event Approved! 🎉"},
		OccurredAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(msg)
	require.NoError(t, err)

	mock.ExpectPublish("eventflow.notifications", payload).SetVal(1)

	require.NoError(t, broker.Publish(context.Background(), "eventflow.notifications", msg))
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RedisOperations.WithLabelValues("publish", "ok")))
}

func TestRedisBroker_PublishError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	m := metrics.NewNop()
	broker := NewRedisBrokerWithClient(client, m, zerolog.Nop())

	payload, err := json.Marshal("hello")
	require.NoError(t, err)
	mock.ExpectPublish("events", payload).SetErr(errors.New("connection refused"))

	err = broker.Publish(context.Background(), "events", "hello")
	assert.ErrorContains(t, err, "connection refused")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RedisOperations.WithLabelValues("publish", "error")))
}

func TestRedisBroker_Ping(t *testing.T) {
	client, mock := redismock.NewClientMock()
	broker := NewRedisBrokerWithClient(client, metrics.NewNop(), zerolog.Nop())

	mock.ExpectPing().SetVal("PONG")
	assert.NoError(t, broker.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
