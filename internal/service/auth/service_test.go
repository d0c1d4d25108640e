package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/internal/repository/memory"
	"github.com/jwalitptl/eventflow-api/pkg/auth"
	apperrors "github.com/jwalitptl/eventflow-api/pkg/errors"
	"github.com/jwalitptl/eventflow-api/pkg/logger"
	"github.com/jwalitptl/eventflow-api/pkg/security"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(
		memory.NewUserRepository(memory.NewStore()),
		auth.NewJWTService("test-secret", "eventflow", time.Hour),
		security.NewBcryptHasher(bcrypt.MinCost),
		logger.Nop(),
	)
}

func register(t *testing.T, s *Service, email string) *model.TokenResponse {
	t.Helper()
	resp, err := s.Register(context.Background(), &model.RegisterRequest{
		Name:         "  Jane Doe ",
		Email:        email,
		Password:     "secret123",
		Organization: "Acme",
	})
	require.NoError(t, err)
	return resp
}

func TestRegister(t *testing.T) {
	s := newService(t)
	resp := register(t, s, " Jane@Example.COM ")

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "Jane Doe", resp.User.Name)
	assert.Equal(t, "jane@example.com", resp.User.Email)
	assert.Equal(t, model.RoleUser, resp.User.Role)
	assert.False(t, resp.User.CreatedAt.IsZero())

	actor, err := s.Authenticate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, actor.ID)
	assert.Equal(t, model.RoleUser, actor.Role)

	me, err := s.Me(context.Background(), actor)
	require.NoError(t, err)
	assert.Equal(t, "Acme", me.Organization)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	s := newService(t)
	register(t, s, "jane@example.com")

	_, err := s.Register(context.Background(), &model.RegisterRequest{
		Name:     "Other",
		Email:    "JANE@example.com",
		Password: "secret123",
	})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrDuplicate, appErr.Code)
	assert.Equal(t, "User already exists with this email", appErr.Message)
}

func TestRegister_Validation(t *testing.T) {
	s := newService(t)

	_, err := s.Register(context.Background(), &model.RegisterRequest{
		Name:     "J",
		Email:    "not-an-email",
		Password: "123",
	})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)

	fields := map[string]bool{}
	for _, f := range appErr.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["name"])
	assert.True(t, fields["email"])
	assert.True(t, fields["password"])
}

func TestLogin(t *testing.T) {
	s := newService(t)
	register(t, s, "jane@example.com")
	ctx := context.Background()

	resp, err := s.Login(ctx, &model.LoginRequest{Email: "JANE@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	tests := []struct {
		name string
		req  model.LoginRequest
	}{
		{"wrong password", model.LoginRequest{Email: "jane@example.com", Password: "nope"}},
		{"unknown email", model.LoginRequest{Email: "ghost@example.com", Password: "secret123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Login(ctx, &tt.req)
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)
			assert.Equal(t, "Invalid credentials", appErr.Message)
		})
	}
}

func TestAuthenticate_RejectsGarbage(t *testing.T) {
	s := newService(t)
	_, err := s.Authenticate("not.a.token")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnauthorized))
}

func TestSeedAdmin_Idempotent(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	admin, created, err := s.SeedAdmin(ctx, "Admin", "Admin@EventFlow.local", "admin123")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.RoleAdmin, admin.Role)

	again, created, err := s.SeedAdmin(ctx, "Admin", "admin@eventflow.local", "admin123")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, admin.ID, again.ID)

	resp, err := s.Login(ctx, &model.LoginRequest{Email: "admin@eventflow.local", Password: "admin123"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, resp.User.Role)
}
