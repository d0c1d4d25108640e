package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventStatus string

const (
	EventStatusPending   EventStatus = "pending"
	EventStatusApproved  EventStatus = "approved"
	EventStatusDenied    EventStatus = "denied"
	EventStatusCompleted EventStatus = "completed"
)

// EventStatuses lists every status in display order
var EventStatuses = []EventStatus{
	EventStatusPending,
	EventStatusApproved,
	EventStatusDenied,
	EventStatusCompleted,
}

func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusPending, EventStatusApproved, EventStatusDenied, EventStatusCompleted:
		return true
	}
	return false
}

func (s *EventStatus) UnmarshalText(b []byte) error {
	v := EventStatus(b)
	if !v.Valid() {
		return fmt.Errorf("invalid event status %q", string(b))
	}
	*s = v
	return nil
}

func ParseEventStatus(s string) (EventStatus, error) {
	var st EventStatus
	err := st.UnmarshalText([]byte(s))
	return st, err
}

type EventCategory string

const (
	CategoryConference  EventCategory = "conference"
	CategoryWorkshop    EventCategory = "workshop"
	CategorySeminar     EventCategory = "seminar"
	CategoryMeeting     EventCategory = "meeting"
	CategoryCelebration EventCategory = "celebration"
	CategoryTraining    EventCategory = "training"
	CategoryNetworking  EventCategory = "networking"
	CategoryOther       EventCategory = "other"
)

func (c EventCategory) Valid() bool {
	switch c {
	case CategoryConference, CategoryWorkshop, CategorySeminar, CategoryMeeting,
		CategoryCelebration, CategoryTraining, CategoryNetworking, CategoryOther:
		return true
	}
	return false
}

func (c *EventCategory) UnmarshalText(b []byte) error {
	v := EventCategory(b)
	if !v.Valid() {
		return fmt.Errorf("invalid event category %q", string(b))
	}
	*c = v
	return nil
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func (p *Priority) UnmarshalText(b []byte) error {
	v := Priority(b)
	if !v.Valid() {
		return fmt.Errorf("invalid priority %q", string(b))
	}
	*p = v
	return nil
}

type ContactPerson struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Feedback struct {
	UserID      uuid.UUID `json:"user"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Event is one event request and its review history
type Event struct {
	ID            uuid.UUID        `json:"id"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	EventDate     time.Time        `json:"eventDate"`
	EventTime     string           `json:"eventTime"`
	Duration      string           `json:"duration"`
	Venue         string           `json:"venue"`
	Capacity      int              `json:"capacity"`
	Category      EventCategory    `json:"category"`
	Priority      Priority         `json:"priority"`
	Tags          []string         `json:"tags"`
	EstimatedCost *decimal.Decimal `json:"estimatedCost,omitempty"`
	Requirements  string           `json:"requirements"`
	ContactPerson ContactPerson    `json:"contactPerson"`
	IsTemplate    bool             `json:"isTemplate"`
	TemplateName  string           `json:"templateName,omitempty"`
	Status        EventStatus      `json:"status"`
	SubmittedBy   uuid.UUID        `json:"submittedBy"`
	ReviewedBy    *uuid.UUID       `json:"reviewedBy,omitempty"`
	ReviewedAt    *time.Time       `json:"reviewedAt,omitempty"`
	ReviewNotes   string           `json:"reviewNotes,omitempty"`
	Feedback      []Feedback       `json:"feedback"`
	Base
}

// Clone returns a deep copy so callers can derive new state without aliasing
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	if e.Tags != nil {
		c.Tags = append([]string(nil), e.Tags...)
	}
	if e.Feedback != nil {
		c.Feedback = append([]Feedback(nil), e.Feedback...)
	}
	if e.EstimatedCost != nil {
		cost := *e.EstimatedCost
		c.EstimatedCost = &cost
	}
	if e.ReviewedBy != nil {
		id := *e.ReviewedBy
		c.ReviewedBy = &id
	}
	if e.ReviewedAt != nil {
		at := *e.ReviewedAt
		c.ReviewedAt = &at
	}
	return &c
}

func (e *Event) IsOwnedBy(userID uuid.UUID) bool {
	return e.SubmittedBy == userID
}

// HasFeedbackFrom reports whether userID already rated the event
func (e *Event) HasFeedbackFrom(userID uuid.UUID) bool {
	for _, f := range e.Feedback {
		if f.UserID == userID {
			return true
		}
	}
	return false
}

// EventDraft carries the submitter-controlled fields of a new event
type EventDraft struct {
	Title         string
	Description   string
	EventDate     time.Time
	EventTime     string
	Duration      string
	Venue         string
	Capacity      int
	Category      EventCategory
	Priority      Priority
	Tags          []string
	EstimatedCost *decimal.Decimal
	Requirements  string
	ContactPerson ContactPerson
	IsTemplate    bool
	TemplateName  string
}

// EventChanges is a partial edit; nil fields are left untouched
type EventChanges struct {
	Title         *string
	Description   *string
	EventDate     *time.Time
	EventTime     *string
	Duration      *string
	Venue         *string
	Capacity      *int
	Category      *EventCategory
	Priority      *Priority
	Tags          []string
	EstimatedCost *decimal.Decimal
	Requirements  *string
	ContactPerson *ContactPerson
	IsTemplate    *bool
	TemplateName  *string
}

// EventFilter narrows event listings
type EventFilter struct {
	SubmittedBy *uuid.UUID
	Status      *EventStatus
	Pagination
	SortOrder
}

// Sortable event columns exposed to admin listings
var EventSortFields = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"eventDate": "event_date",
	"title":     "title",
	"status":    "status",
	"priority":  "priority",
}

// StatusCounts holds per-status totals for one submitter
type StatusCounts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Approved  int `json:"approved"`
	Denied    int `json:"denied"`
	Completed int `json:"completed"`
}

// Add increments the bucket for status
func (c *StatusCounts) Add(status EventStatus, n int) {
	c.Total += n
	switch status {
	case EventStatusPending:
		c.Pending += n
	case EventStatusApproved:
		c.Approved += n
	case EventStatusDenied:
		c.Denied += n
	case EventStatusCompleted:
		c.Completed += n
	}
}
