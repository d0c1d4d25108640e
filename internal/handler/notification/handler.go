package notification

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/eventflow-api/internal/handler"
	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/pkg/httputil"
)

// InboxServicer is the recipient-facing notification surface
type InboxServicer interface {
	List(ctx context.Context, filter model.NotificationFilter) (*model.Page[*model.Notification], error)
	UnreadCount(ctx context.Context, recipient uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, recipient uuid.UUID) error
	MarkAllRead(ctx context.Context, recipient uuid.UUID) (int64, error)
}

type Handler struct {
	service InboxServicer
}

func NewHandler(service InboxServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.PUT("/read-all", h.MarkAllRead)
		notifications.PUT("/:id/read", h.MarkRead)
	}
}

func (h *Handler) ListNotifications(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	unread, _ := strconv.ParseBool(c.Query("unread"))

	page, err := h.service.List(c.Request.Context(), model.NotificationFilter{
		RecipientID: actor.ID,
		UnreadOnly:  unread,
		Pagination:  handler.Pagination(c),
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPage(c, page)
}

func (h *Handler) UnreadCount(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), actor.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"count": count})
}

func (h *Handler) MarkRead(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "Notification")
	if !ok {
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), id, actor.ID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "Notification marked as read", nil)
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	updated, err := h.service.MarkAllRead(c.Request.Context(), actor.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "All notifications marked as read", gin.H{"updated": updated})
}
