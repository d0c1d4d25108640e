package user

import (
	"context"
	"fmt"

	"github.com/jwalitptl/eventflow-api/internal/lifecycle"
	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/internal/repository"
	"github.com/jwalitptl/eventflow-api/pkg/errors"
)

// UserServicer is the account surface used by the handlers
type UserServicer interface {
	Profile(ctx context.Context, actor model.Actor) (*model.User, error)
	Stats(ctx context.Context, actor model.Actor) (*model.UserStats, error)
	ListUsers(ctx context.Context, actor model.Actor, p model.Pagination) (*model.Page[*model.User], error)
}

type Service struct {
	repo   repository.UserRepository
	events repository.EventRepository
}

func NewService(repo repository.UserRepository, events repository.EventRepository) *Service {
	return &Service{
		repo:   repo,
		events: events,
	}
}

func (s *Service) Profile(ctx context.Context, actor model.Actor) (*model.User, error) {
	user, err := s.repo.Get(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal(fmt.Errorf("failed to get user: %w", err))
	}
	return user, nil
}

// Stats counts the actor's submissions per status
func (s *Service) Stats(ctx context.Context, actor model.Actor) (*model.UserStats, error) {
	user, err := s.Profile(ctx, actor)
	if err != nil {
		return nil, err
	}

	counts, err := s.events.CountByStatus(ctx, actor.ID)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to count events: %w", err))
	}

	return &model.UserStats{
		TotalEvents:     counts.Total,
		PendingEvents:   counts.Pending,
		ApprovedEvents:  counts.Approved,
		CompletedEvents: counts.Completed,
		DeniedEvents:    counts.Denied,
		MemberSince:     user.CreatedAt,
	}, nil
}

// ListUsers pages through regular accounts, newest first. Admin only.
func (s *Service) ListUsers(ctx context.Context, actor model.Actor, p model.Pagination) (*model.Page[*model.User], error) {
	if err := lifecycle.CanReview(actor); err != nil {
		return nil, err
	}

	role := model.RoleUser
	filter := model.UserFilter{Role: &role, Pagination: p.Normalize()}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to list users: %w", err))
	}
	return model.NewPage(users, total, filter.Pagination), nil
}
