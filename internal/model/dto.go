package model

import "time"

// NewEventRequest is the payload for creating an event.
type NewEventRequest struct {
	Title             string   `json:"title"`
	Annotation        string   `json:"annotation"`
	Description       string   `json:"description"`
	EventDate         DateTime `json:"eventDate"`
	Paid              bool     `json:"paid"`
	ParticipantLimit  *int     `json:"participantLimit"`
	RequestModeration *bool    `json:"requestModeration"`
}

// EventPatch holds the optional fields shared by initiator and admin updates.
type EventPatch struct {
	Title             *string   `json:"title"`
	Annotation        *string   `json:"annotation"`
	Description       *string   `json:"description"`
	EventDate         *DateTime `json:"eventDate"`
	Paid              *bool     `json:"paid"`
	ParticipantLimit  *int      `json:"participantLimit"`
	RequestModeration *bool     `json:"requestModeration"`
}

// UpdateEventUserRequest is the initiator's PATCH payload.
type UpdateEventUserRequest struct {
	EventPatch
	StateAction *UserStateAction `json:"stateAction"`
}

// UpdateEventAdminRequest is the administrator's PATCH payload.
type UpdateEventAdminRequest struct {
	EventPatch
	StateAction *AdminStateAction `json:"stateAction"`
}

// StatusUpdateRequest is a moderator's batch decision.
type StatusUpdateRequest struct {
	RequestIDs []string      `json:"requestIds"`
	Status     RequestStatus `json:"status"`
}

// StatusUpdateResult partitions a batch decision's outcome.
type StatusUpdateResult struct {
	ConfirmedRequests []ParticipationRequest `json:"confirmedRequests"`
	RejectedRequests  []ParticipationRequest `json:"rejectedRequests"`
}

// NewUserRequest is the payload for registering a user.
type NewUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// EventFull is the detailed event read model.
type EventFull struct {
	ID                string     `json:"id"`
	InitiatorID       string     `json:"initiatorId"`
	Title             string     `json:"title"`
	Annotation        string     `json:"annotation"`
	Description       string     `json:"description"`
	Paid              bool       `json:"paid"`
	ParticipantLimit  int        `json:"participantLimit"`
	RequestModeration bool       `json:"requestModeration"`
	State             EventState `json:"state"`
	EventDate         DateTime   `json:"eventDate"`
	CreatedOn         DateTime   `json:"createdOn"`
	PublishedOn       *DateTime  `json:"publishedOn,omitempty"`
	ConfirmedRequests int        `json:"confirmedRequests"`
	Views             int64      `json:"views"`
}

// EventShort is the listing read model.
type EventShort struct {
	ID                string   `json:"id"`
	InitiatorID       string   `json:"initiatorId"`
	Title             string   `json:"title"`
	Annotation        string   `json:"annotation"`
	Paid              bool     `json:"paid"`
	EventDate         DateTime `json:"eventDate"`
	ConfirmedRequests int      `json:"confirmedRequests"`
	Views             int64    `json:"views"`
}

// NewEventFull merges an event with its statistics.
func NewEventFull(e *Event, stats EventStatistics) EventFull {
	full := EventFull{
		ID:                e.ID,
		InitiatorID:       e.InitiatorID,
		Title:             e.Title,
		Annotation:        e.Annotation,
		Description:       e.Description,
		Paid:              e.Paid,
		ParticipantLimit:  e.ParticipantLimit,
		RequestModeration: e.RequestModeration,
		State:             e.State,
		EventDate:         DateTime(e.EventDate),
		CreatedOn:         DateTime(e.CreatedOn),
		ConfirmedRequests: stats.ConfirmedOf(e.ID),
		Views:             stats.ViewsOf(e.ID),
	}
	if e.PublishedOn != nil {
		p := DateTime(*e.PublishedOn)
		full.PublishedOn = &p
	}
	return full
}

// NewEventShort merges an event with its statistics.
func NewEventShort(e *Event, stats EventStatistics) EventShort {
	return EventShort{
		ID:                e.ID,
		InitiatorID:       e.InitiatorID,
		Title:             e.Title,
		Annotation:        e.Annotation,
		Paid:              e.Paid,
		EventDate:         DateTime(e.EventDate),
		ConfirmedRequests: stats.ConfirmedOf(e.ID),
		Views:             stats.ViewsOf(e.ID),
	}
}

// PublicEventParams filters the public event listing.
type PublicEventParams struct {
	Text          string
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	Sort          EventSort
	From          int
	Size          int
}

// AdminEventParams filters the administrator's event search.
type AdminEventParams struct {
	Users      []string
	States     []EventState
	RangeStart *time.Time
	RangeEnd   *time.Time
	From       int
	Size       int
}

// Page is an offset/limit window.
type Page struct {
	From int
	Size int
}
