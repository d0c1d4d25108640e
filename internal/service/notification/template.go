package notification

import (
	"fmt"

	"github.com/jwalitptl/eventflow-api/internal/model"
)

// Template is a closed set of notification variants. Only types in this
// package satisfy it.
type Template interface {
	Type() model.NotificationType
	template()
}

type EventSubmitted struct {
	Title string
}

type EventApproved struct {
	Title string
	Note  string
}

type EventDenied struct {
	Title  string
	Reason string
}

type EventCompleted struct {
	Title string
}

type EventReminder struct {
	Title     string
	DaysUntil int
}

func (EventSubmitted) Type() model.NotificationType { return model.NotificationEventSubmitted }
func (EventApproved) Type() model.NotificationType  { return model.NotificationEventApproved }
func (EventDenied) Type() model.NotificationType    { return model.NotificationEventDenied }
func (EventCompleted) Type() model.NotificationType { return model.NotificationEventCompleted }
func (EventReminder) Type() model.NotificationType  { return model.NotificationEventReminder }

func (EventSubmitted) template() {}
func (EventApproved) template()  {}
func (EventDenied) template()    {}
func (EventCompleted) template() {}
func (EventReminder) template()  {}

// Content is the rendered display form of a template
type Content struct {
	Type      model.NotificationType
	Title     string
	Message   string
	AdminNote string
	Priority  model.Priority
}

// Render maps a template to its display content
func Render(t Template) (Content, error) {
	switch v := t.(type) {
	case EventSubmitted:
		return Content{
			Type:     v.Type(),
			Title:    "Event Request Submitted",
			Message:  fmt.Sprintf("Your event \"%s\" has been submitted successfully and is pending admin review.", v.Title),
			Priority: model.PriorityMedium,
		}, nil
	case EventApproved:
		msg := fmt.Sprintf("Great news! Your event \"%s\" has been approved by the admin.", v.Title)
		if v.Note != "" {
			msg += " Note: " + v.Note
		}
		return Content{
			Type:     v.Type(),
			Title:    "Event Approved! 🎉",
			Message:  msg,
			Priority: model.PriorityHigh,
		}, nil
	case EventDenied:
		return Content{
			Type:      v.Type(),
			Title:     "Event Request Denied",
			Message:   fmt.Sprintf("Unfortunately, your event \"%s\" has been denied.", v.Title),
			AdminNote: v.Reason,
			Priority:  model.PriorityHigh,
		}, nil
	case EventCompleted:
		return Content{
			Type:     v.Type(),
			Title:    "Event Completed",
			Message:  fmt.Sprintf("Your event \"%s\" has been marked as completed. Thank you for using our platform! Let us know how it went by leaving feedback.", v.Title),
			Priority: model.PriorityMedium,
		}, nil
	case EventReminder:
		priority := model.PriorityMedium
		if v.DaysUntil <= 1 {
			priority = model.PriorityUrgent
		}
		return Content{
			Type:     v.Type(),
			Title:    "Event Reminder",
			Message:  fmt.Sprintf("Reminder: Your event \"%s\" is %s.", v.Title, whenPhrase(v.DaysUntil)),
			Priority: priority,
		}, nil
	default:
		return Content{}, fmt.Errorf("unknown notification template %T", t)
	}
}

func whenPhrase(days int) string {
	switch days {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}
