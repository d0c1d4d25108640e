package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/eventflow-api/internal/handler"
	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/pkg/httputil"
)

type AuthServicer interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.TokenResponse, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error)
	Me(ctx context.Context, actor model.Actor) (*model.User, error)
}

type Handler struct {
	service AuthServicer
}

func NewHandler(service AuthServicer) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the public auth routes and, on protected, /auth/me
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	auth := public.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
	protected.GET("/auth/me", h.Me)
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tokenBody(resp))
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenBody(resp))
}

func (h *Handler) Me(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	user, err := h.service.Me(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, user)
}

func tokenBody(resp *model.TokenResponse) gin.H {
	return gin.H{
		"success":   true,
		"token":     resp.Token,
		"expiresIn": resp.ExpiresIn,
		"user":      resp.User,
	}
}
