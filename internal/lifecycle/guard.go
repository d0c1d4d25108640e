package lifecycle

import (
	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/pkg/errors"
)

// CanReview allows admins to approve, deny and complete events.
func CanReview(actor model.Actor) error {
	if !actor.IsAdmin() {
		return errors.Forbidden("Admin access required")
	}
	return nil
}

// CanView allows the submitter or any admin to read an event.
func CanView(ev *model.Event, actor model.Actor) error {
	if ev.IsOwnedBy(actor.ID) || actor.IsAdmin() {
		return nil
	}
	return errors.Forbidden("Not authorized to access this event")
}

// CanMutate allows only the submitter to edit an event.
func CanMutate(ev *model.Event, actor model.Actor) error {
	if !ev.IsOwnedBy(actor.ID) {
		return errors.Forbidden("Not authorized to update this event")
	}
	return nil
}

// CanDelete allows the submitter or any admin to delete an event.
func CanDelete(ev *model.Event, actor model.Actor) error {
	if ev.IsOwnedBy(actor.ID) || actor.IsAdmin() {
		return nil
	}
	return errors.Forbidden("Not authorized to delete this event")
}

// CanRate allows only the submitter to leave feedback.
func CanRate(ev *model.Event, actor model.Actor) error {
	if !ev.IsOwnedBy(actor.ID) {
		return errors.Forbidden("Not authorized to provide feedback for this event")
	}
	return nil
}
