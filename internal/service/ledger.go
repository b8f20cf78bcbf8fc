package service

import (
	"context"

	"github.com/Shivanand-hulikatti/event-participation/internal/model"
)

type confirmedCounter interface {
	CountConfirmed(ctx context.Context, eventID string) (int, error)
}

// CapacityLedger derives an event's remaining capacity from its confirmed
// requests. Nothing is cached: callers read it under the event lock, in the
// same unit of work that writes the outcome.
type CapacityLedger struct {
	requests confirmedCounter
}

func NewCapacityLedger(requests confirmedCounter) CapacityLedger {
	return CapacityLedger{requests: requests}
}

// Remaining returns participantLimit minus the confirmed count. limited is
// false for events without a limit, in which case remaining is meaningless.
func (l CapacityLedger) Remaining(ctx context.Context, e *model.Event) (remaining int, limited bool, err error) {
	if e.Unlimited() {
		return 0, false, nil
	}
	confirmed, err := l.requests.CountConfirmed(ctx, e.ID)
	if err != nil {
		return 0, true, storeErr(err, "count confirmed requests")
	}
	return e.ParticipantLimit - confirmed, true, nil
}
