package event

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/eventflow-api/internal/handler"
	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/pkg/httputil"
)

// EventServicer is the submitter-facing event surface
type EventServicer interface {
	Create(ctx context.Context, actor model.Actor, draft model.EventDraft) (*model.Event, error)
	Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Event, error)
	ListMine(ctx context.Context, actor model.Actor, filter model.EventFilter) (*model.Page[*model.Event], error)
	Update(ctx context.Context, actor model.Actor, id uuid.UUID, changes *model.EventChanges) (*model.Event, error)
	Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error
	AddFeedback(ctx context.Context, actor model.Actor, id uuid.UUID, rating int, comment string) (*model.Event, error)
}

type Handler struct {
	service EventServicer
}

func NewHandler(service EventServicer) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the event routes; r must already be authenticated
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	events := r.Group("/events")
	{
		events.POST("", h.CreateEvent)
		events.GET("/my-events", h.ListMyEvents)
		events.GET("/:id", h.GetEvent)
		events.PUT("/:id", h.UpdateEvent)
		events.DELETE("/:id", h.DeleteEvent)
		events.POST("/:id/feedback", h.AddFeedback)
	}
}

func (h *Handler) CreateEvent(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	var req createEventRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	draft, err := req.toDraft()
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	ev, err := h.service.Create(c.Request.Context(), actor, draft)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, "Event request submitted successfully", ev)
}

func (h *Handler) ListMyEvents(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	status, ok := handler.StatusFilter(c)
	if !ok {
		return
	}

	page, err := h.service.ListMine(c.Request.Context(), actor, model.EventFilter{
		Status:     status,
		Pagination: handler.Pagination(c),
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithPage(c, page)
}

func (h *Handler) GetEvent(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "Event")
	if !ok {
		return
	}

	ev, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, ev)
}

func (h *Handler) UpdateEvent(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "Event")
	if !ok {
		return
	}

	var req updateEventRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	changes, err := req.toChanges()
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	ev, err := h.service.Update(c.Request.Context(), actor, id, changes)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "Event updated successfully", ev)
}

func (h *Handler) DeleteEvent(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "Event")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "Event deleted successfully", nil)
}

func (h *Handler) AddFeedback(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "Event")
	if !ok {
		return
	}

	var req feedbackRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	ev, err := h.service.AddFeedback(c.Request.Context(), actor, id, req.Rating, req.Comment)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "Feedback submitted successfully", ev)
}
