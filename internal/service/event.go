package service

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/event-participation/internal/apperr"
	"github.com/Shivanand-hulikatti/event-participation/internal/model"
)

// Creation and initiator edits need the event at least this far ahead.
const eventLeadTime = 2 * time.Hour

// EventService manages events for initiators, administrators and the public.
type EventService struct {
	store  Store
	stats  *StatsAssembler
	ledger CapacityLedger
	options
}

func NewEventService(store Store, stats *StatsAssembler, opts ...Option) *EventService {
	return &EventService{
		store:   store,
		stats:   stats,
		ledger:  NewCapacityLedger(store),
		options: newOptions(opts),
	}
}

// Create registers a new PENDING event for the initiator.
func (s *EventService) Create(ctx context.Context, userID string, in model.NewEventRequest) (_ *model.EventFull, err error) {
	ctx, end := s.begin(ctx, "event.create")
	defer end(&err)

	now := s.clock()
	in.Title = strings.TrimSpace(in.Title)
	in.Annotation = strings.TrimSpace(in.Annotation)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateNewEvent(in, now); err != nil {
		return nil, err
	}
	if _, err := loadUser(ctx, s.store, userID); err != nil {
		return nil, err
	}

	e := &model.Event{
		ID:                uuid.NewString(),
		InitiatorID:       userID,
		Title:             in.Title,
		Annotation:        in.Annotation,
		Description:       in.Description,
		Paid:              in.Paid,
		RequestModeration: true,
		State:             model.EventPending,
		EventDate:         in.EventDate.Time(),
		CreatedOn:         now,
	}
	if in.ParticipantLimit != nil {
		e.ParticipantLimit = *in.ParticipantLimit
	}
	if in.RequestModeration != nil {
		e.RequestModeration = *in.RequestModeration
	}
	if err := s.store.CreateEvent(ctx, e); err != nil {
		return nil, storeErr(err, "create event")
	}

	s.metrics.EventTransitions.WithLabelValues(e.State.StorageValue()).Inc()
	s.logger.InfoContext(ctx, "event created", "event_id", e.ID, "initiator_id", userID)
	full := model.NewEventFull(e, model.EventStatistics{})
	return &full, nil
}

// UpdateByInitiator edits an unpublished event and optionally moves it
// between PENDING and CANCELED.
func (s *EventService) UpdateByInitiator(ctx context.Context, userID, eventID string, in model.UpdateEventUserRequest) (_ *model.EventFull, err error) {
	ctx, end := s.begin(ctx, "event.update_by_initiator")
	defer end(&err)

	now := s.clock()
	if err := validatePatch(in.EventPatch, now, eventLeadTime); err != nil {
		return nil, err
	}

	var updated *model.Event
	err = s.store.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := loadUser(ctx, s.store, userID); err != nil {
			return err
		}
		e, err := lockEvent(ctx, s.store, eventID)
		if err != nil {
			return err
		}
		if e.InitiatorID != userID {
			return apperr.Forbidden("User id=%s is not the initiator of event id=%s", userID, eventID)
		}
		if err := e.EnsureEditableByInitiator(); err != nil {
			return err
		}
		applyPatch(e, in.EventPatch)
		if in.StateAction != nil {
			if err := e.ApplyUserAction(*in.StateAction); err != nil {
				return err
			}
		}
		if err := s.store.UpdateEvent(ctx, e); err != nil {
			return storeErr(err, "update event")
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	if in.StateAction != nil {
		s.metrics.EventTransitions.WithLabelValues(updated.State.StorageValue()).Inc()
	}
	s.logger.InfoContext(ctx, "event updated by initiator", "event_id", eventID, "state", updated.State)
	return s.full(ctx, updated)
}

// UpdateByAdmin edits any event and optionally publishes or rejects it.
func (s *EventService) UpdateByAdmin(ctx context.Context, eventID string, in model.UpdateEventAdminRequest) (_ *model.EventFull, err error) {
	ctx, end := s.begin(ctx, "event.update_by_admin")
	defer end(&err)

	now := s.clock()
	if err := validatePatch(in.EventPatch, now, model.PublishLeadTime); err != nil {
		return nil, err
	}

	var updated *model.Event
	err = s.store.WithinTx(ctx, func(ctx context.Context) error {
		e, err := lockEvent(ctx, s.store, eventID)
		if err != nil {
			return err
		}
		applyPatch(e, in.EventPatch)
		if in.ParticipantLimit != nil {
			if err := s.checkLimitCoversConfirmed(ctx, e); err != nil {
				return err
			}
		}
		if in.StateAction != nil {
			if err := e.ApplyAdminAction(*in.StateAction, now); err != nil {
				return err
			}
		}
		if err := s.store.UpdateEvent(ctx, e); err != nil {
			return storeErr(err, "update event")
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	if in.StateAction != nil {
		s.metrics.EventTransitions.WithLabelValues(updated.State.StorageValue()).Inc()
	}
	s.logger.InfoContext(ctx, "event updated by admin", "event_id", eventID, "state", updated.State)
	return s.full(ctx, updated)
}

// checkLimitCoversConfirmed refuses a participant limit below the number of
// requests already confirmed. Callers hold the event lock.
func (s *EventService) checkLimitCoversConfirmed(ctx context.Context, e *model.Event) error {
	remaining, limited, err := s.ledger.Remaining(ctx, e)
	if err != nil {
		return err
	}
	if limited && remaining < 0 {
		return apperr.Conflict(apperr.ReasonConditions,
			"participantLimit %d is below the %d confirmed requests of event id=%s",
			e.ParticipantLimit, e.ParticipantLimit-remaining, e.ID)
	}
	return nil
}

// GetByInitiator returns one of the initiator's events.
func (s *EventService) GetByInitiator(ctx context.Context, userID, eventID string) (_ *model.EventFull, err error) {
	ctx, end := s.begin(ctx, "event.get_by_initiator")
	defer end(&err)

	if _, err := loadUser(ctx, s.store, userID); err != nil {
		return nil, err
	}
	e, err := loadEvent(ctx, s.store, eventID)
	if err != nil {
		return nil, err
	}
	if e.InitiatorID != userID {
		return nil, apperr.Forbidden("User id=%s is not the initiator of event id=%s", userID, eventID)
	}
	return s.full(ctx, e)
}

// ListByInitiator pages through the initiator's events.
func (s *EventService) ListByInitiator(ctx context.Context, userID string, page model.Page) (_ []model.EventShort, err error) {
	ctx, end := s.begin(ctx, "event.list_by_initiator")
	defer end(&err)

	if err := validatePage(page.From, page.Size); err != nil {
		return nil, err
	}
	if _, err := loadUser(ctx, s.store, userID); err != nil {
		return nil, err
	}
	events, err := s.store.ListEventsByInitiator(ctx, userID, page)
	if err != nil {
		return nil, storeErr(err, "list events")
	}
	return s.shorts(ctx, events)
}

// SearchAdmin lists events for moderation.
func (s *EventService) SearchAdmin(ctx context.Context, p model.AdminEventParams) (_ []model.EventFull, err error) {
	ctx, end := s.begin(ctx, "event.search_admin")
	defer end(&err)

	if err := validatePage(p.From, p.Size); err != nil {
		return nil, err
	}
	if err := validateRange(p.RangeStart, p.RangeEnd); err != nil {
		return nil, err
	}
	events, err := s.store.SearchAdminEvents(ctx, p)
	if err != nil {
		return nil, storeErr(err, "search events")
	}
	stats, err := s.stats.EventStatistics(ctx, events, nil)
	if err != nil {
		return nil, err
	}
	out := make([]model.EventFull, len(events))
	for i := range events {
		out[i] = model.NewEventFull(&events[i], stats)
	}
	return out, nil
}

// SearchPublic lists published events. Without a date range only future
// events are returned.
func (s *EventService) SearchPublic(ctx context.Context, p model.PublicEventParams) (_ []model.EventShort, err error) {
	ctx, end := s.begin(ctx, "event.search_public")
	defer end(&err)

	if err := validatePage(p.From, p.Size); err != nil {
		return nil, err
	}
	if err := validateRange(p.RangeStart, p.RangeEnd); err != nil {
		return nil, err
	}
	if p.RangeStart == nil && p.RangeEnd == nil {
		now := s.clock()
		p.RangeStart = &now
	}
	p.Text = strings.TrimSpace(p.Text)

	events, err := s.store.SearchPublicEvents(ctx, p)
	if err != nil {
		return nil, storeErr(err, "search events")
	}
	out, err := s.shorts(ctx, events)
	if err != nil {
		return nil, err
	}
	if p.Sort == model.SortViews {
		slices.SortStableFunc(out, func(a, b model.EventShort) int {
			return cmp.Compare(b.Views, a.Views)
		})
	}
	return out, nil
}

// GetPublished returns a published event; any other state is NotFound.
func (s *EventService) GetPublished(ctx context.Context, eventID string) (_ *model.EventFull, err error) {
	ctx, end := s.begin(ctx, "event.get_published")
	defer end(&err)

	e, err := loadEvent(ctx, s.store, eventID)
	if err != nil {
		return nil, err
	}
	if e.State != model.EventPublished {
		return nil, eventNotFound(eventID)
	}
	return s.full(ctx, e)
}

func (s *EventService) full(ctx context.Context, e *model.Event) (*model.EventFull, error) {
	stats, err := s.stats.EventStatistics(ctx, []model.Event{*e}, nil)
	if err != nil {
		return nil, err
	}
	full := model.NewEventFull(e, stats)
	return &full, nil
}

func (s *EventService) shorts(ctx context.Context, events []model.Event) ([]model.EventShort, error) {
	stats, err := s.stats.EventStatistics(ctx, events, nil)
	if err != nil {
		return nil, err
	}
	out := make([]model.EventShort, len(events))
	for i := range events {
		out[i] = model.NewEventShort(&events[i], stats)
	}
	return out, nil
}

func applyPatch(e *model.Event, p model.EventPatch) {
	if p.Title != nil {
		e.Title = strings.TrimSpace(*p.Title)
	}
	if p.Annotation != nil {
		e.Annotation = strings.TrimSpace(*p.Annotation)
	}
	if p.Description != nil {
		e.Description = strings.TrimSpace(*p.Description)
	}
	if p.EventDate != nil {
		e.EventDate = p.EventDate.Time()
	}
	if p.Paid != nil {
		e.Paid = *p.Paid
	}
	if p.ParticipantLimit != nil {
		e.ParticipantLimit = *p.ParticipantLimit
	}
	if p.RequestModeration != nil {
		e.RequestModeration = *p.RequestModeration
	}
}

func validateNewEvent(in model.NewEventRequest, now time.Time) error {
	if err := checkLength("title", in.Title, 3, 120); err != nil {
		return err
	}
	if err := checkLength("annotation", in.Annotation, 20, 2000); err != nil {
		return err
	}
	if err := checkLength("description", in.Description, 20, 7000); err != nil {
		return err
	}
	if in.EventDate.IsZero() {
		return apperr.BadRequest("eventDate is required")
	}
	if in.EventDate.Time().Before(now.Add(eventLeadTime)) {
		return apperr.BadRequest("eventDate must be at least %s after now", eventLeadTime)
	}
	if in.ParticipantLimit != nil && *in.ParticipantLimit < 0 {
		return apperr.BadRequest("participantLimit must not be negative")
	}
	return nil
}

func validatePatch(p model.EventPatch, now time.Time, lead time.Duration) error {
	if p.Title != nil {
		if err := checkLength("title", strings.TrimSpace(*p.Title), 3, 120); err != nil {
			return err
		}
	}
	if p.Annotation != nil {
		if err := checkLength("annotation", strings.TrimSpace(*p.Annotation), 20, 2000); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if err := checkLength("description", strings.TrimSpace(*p.Description), 20, 7000); err != nil {
			return err
		}
	}
	if p.EventDate != nil && p.EventDate.Time().Before(now.Add(lead)) {
		return apperr.BadRequest("eventDate must be at least %s after now", lead)
	}
	if p.ParticipantLimit != nil && *p.ParticipantLimit < 0 {
		return apperr.BadRequest("participantLimit must not be negative")
	}
	return nil
}

func validateRange(start, end *time.Time) error {
	if start != nil && end != nil && start.After(*end) {
		return apperr.BadRequest("rangeStart must not be after rangeEnd")
	}
	return nil
}

func validatePage(from, size int) error {
	if from < 0 {
		return apperr.BadRequest("from must not be negative")
	}
	if size < 0 {
		return apperr.BadRequest("size must be positive")
	}
	return nil
}

func checkLength(field, value string, minLen, maxLen int) error {
	n := utf8.RuneCountInString(value)
	if n < minLen || n > maxLen {
		return apperr.BadRequest("%s must be between %d and %d characters, got %d", field, minLen, maxLen, n)
	}
	return nil
}
