package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/pkg/httputil"
)

// ContextActor is the gin context key holding the authenticated model.Actor
const ContextActor = "actor"

// Authenticator resolves a bearer token to the caller's identity
type Authenticator interface {
	Authenticate(token string) (model.Actor, error)
}

type AuthMiddleware struct {
	authenticator Authenticator
}

func NewAuthMiddleware(authenticator Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator}
}

// Authenticate verifies the JWT and stores the actor in the context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.Abort(c, http.StatusUnauthorized, "Not authorized, no token")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			httputil.Abort(c, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		actor, err := m.authenticator.Authenticate(parts[1])
		if err != nil {
			httputil.Abort(c, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}

		c.Set(ContextActor, actor)
		c.Next()
	}
}

// RequireAdmin rejects authenticated callers without the admin role
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			httputil.Abort(c, http.StatusUnauthorized, "Not authorized")
			return
		}
		if !actor.IsAdmin() {
			httputil.Abort(c, http.StatusForbidden, "Access denied. Admin privileges required.")
			return
		}
		c.Next()
	}
}

// ActorFrom returns the actor set by Authenticate
func ActorFrom(c *gin.Context) (model.Actor, bool) {
	v, ok := c.Get(ContextActor)
	if !ok {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}
