// Package model defines the core domain types for the event participation system.
package model

import (
	"encoding/json"
	"time"
)

// Event is a happening that users can request to participate in.
type Event struct {
	ID                string
	InitiatorID       string
	Title             string
	Annotation        string
	Description       string
	Paid              bool
	ParticipantLimit  int
	RequestModeration bool
	State             EventState
	EventDate         time.Time
	CreatedOn         time.Time
	PublishedOn       *time.Time
}

// Unlimited reports whether the event accepts any number of participants.
func (e *Event) Unlimited() bool {
	return e.ParticipantLimit == 0
}

// AutoConfirms reports whether admitted requests skip moderation.
func (e *Event) AutoConfirms() bool {
	return !e.RequestModeration || e.Unlimited()
}

// User is a registered account; it can initiate events and request participation.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"-"`
}

// ParticipationRequest is a user's request to attend an event.
type ParticipationRequest struct {
	ID          string
	EventID     string
	RequesterID string
	Status      RequestStatus
	Created     time.Time
}

func (r ParticipationRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string        `json:"id"`
		Event     string        `json:"event"`
		Requester string        `json:"requester"`
		Status    RequestStatus `json:"status"`
		Created   DateTime      `json:"created"`
	}{r.ID, r.EventID, r.RequesterID, r.Status, DateTime(r.Created)})
}

// EventStatistics carries the per-event figures merged into read models.
type EventStatistics struct {
	Views             map[string]int64
	ConfirmedRequests map[string]int
}

// ViewsOf returns the view count for an event, zero when absent.
func (s EventStatistics) ViewsOf(eventID string) int64 {
	return s.Views[eventID]
}

// ConfirmedOf returns the confirmed-participant count for an event, zero when absent.
func (s EventStatistics) ConfirmedOf(eventID string) int {
	return s.ConfirmedRequests[eventID]
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Status    string   `json:"status"`
	Reason    string   `json:"reason"`
	Message   string   `json:"message"`
	Timestamp DateTime `json:"timestamp"`
}
