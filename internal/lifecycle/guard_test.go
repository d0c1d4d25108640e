package lifecycle

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/pkg/errors"
)

func TestGuard(t *testing.T) {
	owner := model.Actor{ID: uuid.New(), Role: model.RoleUser}
	stranger := model.Actor{ID: uuid.New(), Role: model.RoleUser}
	admin := model.Actor{ID: uuid.New(), Role: model.RoleAdmin}
	ev := eventIn(model.EventStatusPending, owner.ID)

	assert.NoError(t, CanView(ev, owner))
	assert.NoError(t, CanView(ev, admin))
	assert.True(t, errors.IsCode(CanView(ev, stranger), errors.ErrForbidden))

	assert.NoError(t, CanMutate(ev, owner))
	assert.Error(t, CanMutate(ev, admin))
	assert.Error(t, CanMutate(ev, stranger))

	assert.NoError(t, CanDelete(ev, owner))
	assert.NoError(t, CanDelete(ev, admin))
	assert.Error(t, CanDelete(ev, stranger))

	assert.NoError(t, CanReview(admin))
	assert.True(t, errors.IsCode(CanReview(owner), errors.ErrForbidden))

	assert.NoError(t, CanRate(ev, owner))
	assert.Error(t, CanRate(ev, admin))
}
