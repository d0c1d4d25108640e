package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/internal/repository"
	"github.com/jwalitptl/eventflow-api/pkg/auth"
	"github.com/jwalitptl/eventflow-api/pkg/errors"
	"github.com/jwalitptl/eventflow-api/pkg/logger"
	"github.com/jwalitptl/eventflow-api/pkg/security"
	"github.com/jwalitptl/eventflow-api/pkg/validator"
)

const invalidCredentials = "Invalid credentials"

type Service struct {
	userRepo  repository.UserRepository
	jwtSvc    auth.JWTService
	hasher    security.PasswordHasher
	validator validator.Validator
	logger    *logger.Logger
	now       func() time.Time
}

func NewService(userRepo repository.UserRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher, logger *logger.Logger) *Service {
	return &Service{
		userRepo:  userRepo,
		jwtSvc:    jwtSvc,
		hasher:    hasher,
		validator: validator.Default(),
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates a regular account and signs the caller in
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.TokenResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = model.NormalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if existing, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, errors.Duplicate("User already exists with this email")
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, errors.Internal(fmt.Errorf("failed to look up user: %w", err))
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        strings.TrimSpace(req.Phone),
		Organization: strings.TrimSpace(req.Organization),
		Role:         model.RoleUser,
	}
	if err := s.createUser(ctx, user, req.Password); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", "user_id", user.ID.String())
	return s.issue(user)
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	req.Email = model.NormalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.unauthorized()
		}
		return nil, errors.Internal(fmt.Errorf("failed to look up user: %w", err))
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		s.logger.Warn("Failed login attempt", "user_id", user.ID.String())
		return nil, s.unauthorized()
	}

	return s.issue(user)
}

// Me returns the account behind an authenticated actor
func (s *Service) Me(ctx context.Context, actor model.Actor) (*model.User, error) {
	user, err := s.userRepo.Get(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal(err)
	}
	return user, nil
}

// Authenticate resolves a bearer token to an actor
func (s *Service) Authenticate(token string) (model.Actor, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return model.Actor{}, errors.Unauthorized(err)
	}
	return model.Actor{ID: claims.UserID, Role: claims.Role}, nil
}

// SeedAdmin creates the configured admin account unless the email is taken
func (s *Service) SeedAdmin(ctx context.Context, name, email, password string) (*model.User, bool, error) {
	email = model.NormalizeEmail(email)
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		s.logger.Debug("Admin user already exists", "email", email)
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up admin: %w", err)
	}

	user := &model.User{Name: name, Email: email, Role: model.RoleAdmin}
	if err := s.createUser(ctx, user, password); err != nil {
		return nil, false, err
	}
	s.logger.Info("Admin user created", "email", email)
	return user, true, nil
}

func (s *Service) createUser(ctx context.Context, user *model.User, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return errors.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	now := s.now().UTC()
	user.ID = uuid.New()
	user.PasswordHash = hash
	user.Base = model.Base{CreatedAt: now, UpdatedAt: now}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return errors.Duplicate("User already exists with this email")
		}
		return errors.Internal(fmt.Errorf("failed to create user: %w", err))
	}
	return nil
}

func (s *Service) issue(user *model.User) (*model.TokenResponse, error) {
	token, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to generate token: %w", err))
	}
	return &model.TokenResponse{
		Token:     token,
		ExpiresIn: int64(s.jwtSvc.Expiry().Seconds()),
		User:      user,
	}, nil
}

func (s *Service) unauthorized() error {
	err := errors.Unauthorized(nil)
	err.Message = invalidCredentials
	return err
}
