// Package memory is an in-process repository driver. It backs the
// "memory" database driver and the service and handler tests.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/eventflow-api/internal/model"
)

// Store holds every collection behind a single lock so conditional writes
// are atomic across events and feedback.
type Store struct {
	mu            sync.RWMutex
	events        map[uuid.UUID]*model.Event
	eventOrder    []uuid.UUID
	notifications []*model.Notification
	users         map[uuid.UUID]*model.User
	userOrder     []uuid.UUID
	outbox        []*model.OutboxEvent
}

func NewStore() *Store {
	return &Store{
		events: make(map[uuid.UUID]*model.Event),
		users:  make(map[uuid.UUID]*model.User),
	}
}

func paginate[T any](items []T, p model.Pagination) []T {
	if p.PageSize <= 0 {
		return items
	}
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
