package admin

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/eventflow-api/internal/handler"
	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/pkg/errors"
	"github.com/jwalitptl/eventflow-api/pkg/httputil"
)

// ReviewServicer is the admin-facing event surface
type ReviewServicer interface {
	ListPending(ctx context.Context, actor model.Actor, p model.Pagination) (*model.Page[*model.Event], error)
	ListAll(ctx context.Context, actor model.Actor, filter model.EventFilter) (*model.Page[*model.Event], error)
	Approve(ctx context.Context, actor model.Actor, id uuid.UUID, notes string) (*model.Event, error)
	Deny(ctx context.Context, actor model.Actor, id uuid.UUID, reason string) (*model.Event, error)
	Complete(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Event, error)
}

type AnalyticsServicer interface {
	ComputeForPeriod(ctx context.Context, actor model.Actor, year, month int) (*model.AnalyticsReport, error)
}

type UserLister interface {
	ListUsers(ctx context.Context, actor model.Actor, p model.Pagination) (*model.Page[*model.User], error)
}

type Handler struct {
	events    ReviewServicer
	analytics AnalyticsServicer
	users     UserLister
	now       func() time.Time
}

func NewHandler(events ReviewServicer, analytics AnalyticsServicer, users UserLister) *Handler {
	return &Handler{
		events:    events,
		analytics: analytics,
		users:     users,
		now:       time.Now,
	}
}

// RegisterRoutes mounts the admin routes; r must already require the admin role
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/pending-events", h.ListPendingEvents)
	r.GET("/events", h.ListEvents)
	r.PUT("/events/:id/approve", h.ApproveEvent)
	r.PUT("/events/:id/deny", h.DenyEvent)
	r.PUT("/events/:id/complete", h.CompleteEvent)
	r.GET("/analytics", h.GetAnalytics)
	r.GET("/users", h.ListUsers)
}

type approveRequest struct {
	Notes string `json:"notes" binding:"max=1000"`
}

type denyRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

func (h *Handler) ListPendingEvents(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	page, err := h.events.ListPending(c.Request.Context(), actor, handler.Pagination(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPage(c, page)
}

func (h *Handler) ListEvents(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	status, ok := handler.StatusFilter(c)
	if !ok {
		return
	}

	order := model.SortOrder{Field: c.Query("sortBy"), Dir: c.DefaultQuery("sortOrder", "desc")}
	if order.Dir != "asc" && order.Dir != "desc" {
		httputil.RespondWithError(c, errors.Validation(errors.FieldError{
			Field:   "sortOrder",
			Message: "sortOrder must be asc or desc",
		}))
		return
	}

	page, err := h.events.ListAll(c.Request.Context(), actor, model.EventFilter{
		Status:     status,
		Pagination: handler.Pagination(c),
		SortOrder:  order,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPage(c, page)
}

func (h *Handler) ApproveEvent(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "Event")
	if !ok {
		return
	}

	var req approveRequest
	if !bindOptional(c, &req) {
		return
	}

	ev, err := h.events.Approve(c.Request.Context(), actor, id, req.Notes)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "Event approved successfully", ev)
}

func (h *Handler) DenyEvent(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "Event")
	if !ok {
		return
	}

	var req denyRequest
	if !bindOptional(c, &req) {
		return
	}

	ev, err := h.events.Deny(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "Event denied successfully", ev)
}

func (h *Handler) CompleteEvent(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "Event")
	if !ok {
		return
	}

	ev, err := h.events.Complete(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "Event marked as completed", ev)
}

// GetAnalytics reports on a calendar year, or one month of it. The year
// defaults to the current one.
func (h *Handler) GetAnalytics(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	year := h.now().UTC().Year()
	var month int
	var fields []errors.FieldError
	if raw := c.Query("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			fields = append(fields, errors.FieldError{Field: "year", Message: "year must be a number"})
		}
		year = v
	}
	if raw := c.Query("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			fields = append(fields, errors.FieldError{Field: "month", Message: "month must be a number"})
		}
		month = v
	}
	if len(fields) > 0 {
		httputil.RespondWithError(c, errors.Validation(fields...))
		return
	}

	report, err := h.analytics.ComputeForPeriod(c.Request.Context(), actor, year, month)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, report)
}

func (h *Handler) ListUsers(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	page, err := h.users.ListUsers(c.Request.Context(), actor, handler.Pagination(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPage(c, page)
}

// bindOptional binds a body that callers may omit entirely
func bindOptional(c *gin.Context, req interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return handler.BindJSON(c, req)
}
