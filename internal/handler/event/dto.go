package event

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/pkg/errors"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano}

type contactPersonRequest struct {
	Name  string `json:"name" binding:"omitempty,max=100"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone" binding:"omitempty,max=30"`
}

type createEventRequest struct {
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	EventDate     string                `json:"eventDate"`
	EventTime     string                `json:"eventTime" binding:"omitempty,hhmm"`
	Duration      string                `json:"duration"`
	Venue         string                `json:"venue"`
	Capacity      int                   `json:"capacity"`
	Category      string                `json:"category"`
	Priority      string                `json:"priority"`
	Tags          []string              `json:"tags" binding:"max=20,dive,max=50"`
	EstimatedCost *decimal.Decimal      `json:"estimatedCost"`
	Requirements  string                `json:"requirements" binding:"max=2000"`
	ContactPerson *contactPersonRequest `json:"contactPerson"`
	IsTemplate    bool                  `json:"isTemplate"`
	TemplateName  string                `json:"templateName" binding:"max=100"`
}

func (r *createEventRequest) toDraft() (model.EventDraft, error) {
	draft := model.EventDraft{
		Title:         r.Title,
		Description:   r.Description,
		EventTime:     r.EventTime,
		Duration:      strings.TrimSpace(r.Duration),
		Venue:         r.Venue,
		Capacity:      r.Capacity,
		Category:      model.EventCategory(r.Category),
		Priority:      model.Priority(r.Priority),
		Tags:          r.Tags,
		EstimatedCost: r.EstimatedCost,
		Requirements:  r.Requirements,
		IsTemplate:    r.IsTemplate,
		TemplateName:  r.TemplateName,
	}
	if r.ContactPerson != nil {
		draft.ContactPerson = model.ContactPerson(*r.ContactPerson)
	}
	if r.EventDate != "" {
		date, err := parseDate(r.EventDate)
		if err != nil {
			return draft, err
		}
		draft.EventDate = date
	}
	return draft, nil
}

// updateEventRequest carries a partial edit; absent fields stay unchanged
type updateEventRequest struct {
	Title         *string               `json:"title"`
	Description   *string               `json:"description"`
	EventDate     *string               `json:"eventDate"`
	EventTime     *string               `json:"eventTime" binding:"omitempty,hhmm"`
	Duration      *string               `json:"duration"`
	Venue         *string               `json:"venue"`
	Capacity      *int                  `json:"capacity"`
	Category      *string               `json:"category"`
	Priority      *string               `json:"priority"`
	Tags          []string              `json:"tags" binding:"max=20,dive,max=50"`
	EstimatedCost *decimal.Decimal      `json:"estimatedCost"`
	Requirements  *string               `json:"requirements" binding:"omitempty,max=2000"`
	ContactPerson *contactPersonRequest `json:"contactPerson"`
	IsTemplate    *bool                 `json:"isTemplate"`
	TemplateName  *string               `json:"templateName" binding:"omitempty,max=100"`
}

func (r *updateEventRequest) toChanges() (*model.EventChanges, error) {
	changes := &model.EventChanges{
		Title:         r.Title,
		Description:   r.Description,
		EventTime:     r.EventTime,
		Duration:      r.Duration,
		Venue:         r.Venue,
		Capacity:      r.Capacity,
		Tags:          r.Tags,
		EstimatedCost: r.EstimatedCost,
		Requirements:  r.Requirements,
		IsTemplate:    r.IsTemplate,
		TemplateName:  r.TemplateName,
	}
	if r.Category != nil {
		category := model.EventCategory(*r.Category)
		changes.Category = &category
	}
	if r.Priority != nil {
		priority := model.Priority(*r.Priority)
		changes.Priority = &priority
	}
	if r.ContactPerson != nil {
		contact := model.ContactPerson(*r.ContactPerson)
		changes.ContactPerson = &contact
	}
	if r.EventDate != nil {
		date, err := parseDate(*r.EventDate)
		if err != nil {
			return nil, err
		}
		changes.EventDate = &date
	}
	return changes, nil
}

type feedbackRequest struct {
	Rating  int    `json:"rating" binding:"required,gte=1,lte=5"`
	Comment string `json:"comment" binding:"max=500"`
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Validation(errors.FieldError{
		Field:   "eventDate",
		Message: "Please provide a valid date",
	})
}
