// Package handler holds the helpers shared by the resource handlers.
package handler

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/eventflow-api/internal/middleware"
	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/pkg/errors"
	"github.com/jwalitptl/eventflow-api/pkg/httputil"
	"github.com/jwalitptl/eventflow-api/pkg/validator"
)

// Actor returns the authenticated caller, responding 401 when there is none
func Actor(c *gin.Context) (model.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return model.Actor{}, false
	}
	return actor, true
}

// ParseID reads a UUID path parameter. A malformed ID cannot match any
// stored resource, so it is reported as not found.
func ParseID(c *gin.Context, param, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httputil.RespondWithError(c, errors.NotFound(resource, err))
		return uuid.Nil, false
	}
	return id, true
}

// BindJSON decodes and validates the request body
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			httputil.Abort(c, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		httputil.RespondWithError(c, validator.Translate(err))
		return false
	}
	return true
}

// Pagination reads page and limit query parameters; bad values fall back
// to the defaults.
func Pagination(c *gin.Context) model.Pagination {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return model.Pagination{Page: page, PageSize: limit}.Normalize()
}

// StatusFilter reads an optional status query parameter
func StatusFilter(c *gin.Context) (*model.EventStatus, bool) {
	raw := c.Query("status")
	if raw == "" || raw == "all" {
		return nil, true
	}
	status, err := model.ParseEventStatus(raw)
	if err != nil {
		httputil.RespondWithError(c, errors.Validation(errors.FieldError{
			Field:   "status",
			Message: "status must be one of pending, approved, denied, completed",
		}))
		return nil, false
	}
	return &status, true
}
