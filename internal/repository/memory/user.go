package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/internal/repository"
)

type userRepository struct {
	*Store
}

func NewUserRepository(s *Store) repository.UserRepository {
	return &userRepository{s}
}

func (r *userRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := model.NormalizeEmail(user.Email)
	for _, u := range r.users {
		if u.Email == email {
			return repository.ErrDuplicate
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = email
	stored := *user
	r.users[user.ID] = &stored
	r.userOrder = append(r.userOrder, user.ID)
	return nil
}

func (r *userRepository) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = model.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

// List returns the newest accounts first.
func (r *userRepository) List(_ context.Context, filter model.UserFilter) ([]*model.User, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*model.User
	for i := len(r.userOrder) - 1; i >= 0; i-- {
		u := r.users[r.userOrder[i]]
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		matched = append(matched, u)
	}

	page := paginate(matched, filter.Pagination)
	out := make([]*model.User, 0, len(page))
	for _, u := range page {
		c := *u
		out = append(out, &c)
	}
	return out, len(matched), nil
}
