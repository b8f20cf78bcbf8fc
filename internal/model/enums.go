package model

import (
	"fmt"
	"strings"
)

// EventState is the publication status of an event.
// The API carries it upper-case, storage lower-case; parsing accepts either.
type EventState string

const (
	EventPending   EventState = "PENDING"
	EventPublished EventState = "PUBLISHED"
	EventCanceled  EventState = "CANCELED"
)

func ParseEventState(s string) (EventState, error) {
	switch st := EventState(strings.ToUpper(strings.TrimSpace(s))); st {
	case EventPending, EventPublished, EventCanceled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown event state: %q", s)
	}
}

// StorageValue is the persisted form.
func (s EventState) StorageValue() string {
	return strings.ToLower(string(s))
}

func (s *EventState) UnmarshalText(b []byte) error {
	st, err := ParseEventState(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// RequestStatus is the state of a participation request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestConfirmed RequestStatus = "CONFIRMED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestCanceled  RequestStatus = "CANCELED"
)

func ParseRequestStatus(s string) (RequestStatus, error) {
	switch st := RequestStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case RequestPending, RequestConfirmed, RequestRejected, RequestCanceled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown request status: %q", s)
	}
}

func (s RequestStatus) StorageValue() string {
	return strings.ToLower(string(s))
}

func (s *RequestStatus) UnmarshalText(b []byte) error {
	st, err := ParseRequestStatus(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// UserStateAction is a transition an initiator may request on their own event.
type UserStateAction string

const (
	ActionSendToReview UserStateAction = "SEND_TO_REVIEW"
	ActionCancelReview UserStateAction = "CANCEL_REVIEW"
)

// AdminStateAction is a moderation transition requested by an administrator.
type AdminStateAction string

const (
	ActionPublishEvent AdminStateAction = "PUBLISH_EVENT"
	ActionRejectEvent  AdminStateAction = "REJECT_EVENT"
)

// EventSort selects the ordering of public event listings.
type EventSort string

const (
	SortEventDate EventSort = "EVENT_DATE"
	SortViews     EventSort = "VIEWS"
)

func ParseEventSort(s string) (EventSort, error) {
	switch st := EventSort(strings.ToUpper(strings.TrimSpace(s))); st {
	case "":
		return "", nil
	case SortEventDate, SortViews:
		return st, nil
	default:
		return "", fmt.Errorf("unknown sort: %q", s)
	}
}
