package model

import (
	"time"

	"github.com/Shivanand-hulikatti/event-participation/internal/apperr"
)

// PublishLeadTime is the minimum gap between publication and the event start.
const PublishLeadTime = time.Hour

// Publish moves a pending event to PUBLISHED and stamps PublishedOn.
// Publishing twice fails; it is not a no-op.
func (e *Event) Publish(now time.Time) error {
	if e.State != EventPending {
		return apperr.Conflict(apperr.ReasonConditions,
			"Cannot publish the event because it's not in the right state: %s", e.State)
	}
	if e.EventDate.Before(now.Add(PublishLeadTime)) {
		return apperr.Conflict(apperr.ReasonConditions,
			"Event start time must be at least 1 hour from publication time")
	}
	published := now
	e.State = EventPublished
	e.PublishedOn = &published
	return nil
}

// Reject cancels an event that has not been published.
func (e *Event) Reject() error {
	if e.State == EventPublished {
		return apperr.Conflict(apperr.ReasonConditions,
			"Cannot reject the event because it's already published")
	}
	e.State = EventCanceled
	return nil
}

// EnsureEditableByInitiator rejects any initiator edit of a published event.
func (e *Event) EnsureEditableByInitiator() error {
	if e.State == EventPublished {
		return apperr.Conflict(apperr.ReasonConditions, "Only pending or canceled events can be changed")
	}
	return nil
}

// ApplyUserAction runs an initiator-driven transition.
func (e *Event) ApplyUserAction(action UserStateAction) error {
	if err := e.EnsureEditableByInitiator(); err != nil {
		return err
	}
	switch action {
	case ActionSendToReview:
		e.State = EventPending
	case ActionCancelReview:
		e.State = EventCanceled
	default:
		return apperr.BadRequest("unknown state action: %s", action)
	}
	return nil
}

// ApplyAdminAction runs a moderation transition.
func (e *Event) ApplyAdminAction(action AdminStateAction, now time.Time) error {
	switch action {
	case ActionPublishEvent:
		return e.Publish(now)
	case ActionRejectEvent:
		return e.Reject()
	default:
		return apperr.BadRequest("unknown state action: %s", action)
	}
}

// AcceptsRequests reports whether participation requests may be admitted.
func (e *Event) AcceptsRequests() bool {
	return e.State == EventPublished
}
