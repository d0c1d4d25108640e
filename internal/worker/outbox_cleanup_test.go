package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/internal/repository/memory"
	"github.com/jwalitptl/eventflow-api/pkg/logger"
	"github.com/jwalitptl/eventflow-api/pkg/metrics"
)

func TestOutboxCleanupWorker_RemovesOnlyOldProcessedEvents(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOutboxRepository(memory.NewStore())

	var ids []*model.OutboxEvent
	for i := 0; i < 3; i++ {
		ev := &model.OutboxEvent{EventType: model.OutboxNotificationCreated, Payload: json.RawMessage(`{}`)}
		require.NoError(t, repo.Create(ctx, ev))
		ids = append(ids, ev)
	}
	require.NoError(t, repo.UpdateStatus(ctx, ids[0].ID, model.OutboxStatusProcessed, nil))
	require.NoError(t, repo.UpdateStatus(ctx, ids[1].ID, model.OutboxStatusProcessed, nil))

	m := metrics.NewNop()
	w := NewOutboxCleanupWorker(repo, time.Hour, time.Minute, logger.Nop(), m)

	rows, err := w.Cleanup(ctx)
	require.NoError(t, err)
	assert.Zero(t, rows, "fresh events are kept")

	w.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	rows, err = w.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OutboxEventsCleaned))

	pending, err := repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ids[2].ID, pending[0].ID)
}
