package service

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Shivanand-hulikatti/event-participation/internal/apperr"
	"github.com/Shivanand-hulikatti/event-participation/internal/model"
	"github.com/Shivanand-hulikatti/event-participation/internal/repository"
)

// ParticipationService admits, cancels and moderates participation requests.
//
// Every mutating operation runs in one unit of work that first locks the
// event, so capacity checks and the writes they justify cannot interleave
// with another admission for the same event.
type ParticipationService struct {
	store  Store
	ledger CapacityLedger
	options
}

func NewParticipationService(store Store, opts ...Option) *ParticipationService {
	return &ParticipationService{
		store:   store,
		ledger:  NewCapacityLedger(store),
		options: newOptions(opts),
	}
}

// Create admits a request from requesterID to eventID. The request is
// CONFIRMED straight away when the event has no limit or no moderation,
// PENDING otherwise.
func (s *ParticipationService) Create(ctx context.Context, requesterID, eventID string) (_ *model.ParticipationRequest, err error) {
	ctx, end := s.begin(ctx, "participation.create")
	defer end(&err)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("event.id", eventID),
		attribute.String("requester.id", requesterID),
	)

	var created *model.ParticipationRequest
	err = s.store.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := loadUser(ctx, s.store, requesterID); err != nil {
			return err
		}
		event, err := lockEvent(ctx, s.store, eventID)
		if err != nil {
			return err
		}
		if event.InitiatorID == requesterID {
			return s.refuse("initiator", apperr.Conflict(apperr.ReasonConditions,
				"The initiator of the event cannot add a request to participate in their own event"))
		}
		if !event.AcceptsRequests() {
			return s.refuse("not_published", apperr.Conflict(apperr.ReasonConditions,
				"Cannot participate in an unpublished event"))
		}
		exists, err := s.store.ActiveRequestExists(ctx, requesterID, eventID)
		if err != nil {
			return storeErr(err, "check existing request")
		}
		if exists {
			return s.refuse("duplicate", duplicateRequest(requesterID, eventID))
		}
		remaining, limited, err := s.ledger.Remaining(ctx, event)
		if err != nil {
			return err
		}
		if limited && remaining <= 0 {
			return s.refuse("limit_reached", apperr.Conflict(apperr.ReasonLimitReached,
				"The participant limit of event id=%s has been reached", eventID))
		}

		status := model.RequestPending
		if event.AutoConfirms() {
			status = model.RequestConfirmed
		}
		req := &model.ParticipationRequest{
			ID:          uuid.NewString(),
			EventID:     eventID,
			RequesterID: requesterID,
			Status:      status,
			Created:     s.clock(),
		}
		if err := s.store.CreateRequest(ctx, req); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return s.refuse("duplicate", duplicateRequest(requesterID, eventID))
			}
			return storeErr(err, "create request")
		}
		created = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RequestsAdmitted.WithLabelValues(created.Status.StorageValue()).Inc()
	s.logger.InfoContext(ctx, "participation request created",
		"request_id", created.ID,
		"event_id", eventID,
		"requester_id", requesterID,
		"status", created.Status,
	)
	return created, nil
}

// Cancel withdraws the requester's own request. The row keeps the terminal
// status CANCELED and stops counting toward capacity or uniqueness.
func (s *ParticipationService) Cancel(ctx context.Context, requesterID, requestID string) (_ *model.ParticipationRequest, err error) {
	ctx, end := s.begin(ctx, "participation.cancel")
	defer end(&err)

	var canceled *model.ParticipationRequest
	err = s.store.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := loadUser(ctx, s.store, requesterID); err != nil {
			return err
		}
		req, err := s.store.GetRequest(ctx, requestID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return requestNotFound(requestID)
			}
			return storeErr(err, "load request")
		}
		if req.RequesterID != requesterID {
			return apperr.Conflict(apperr.ReasonConditions,
				"User id=%s is not the owner of request id=%s", requesterID, requestID)
		}
		if _, err := lockEvent(ctx, s.store, req.EventID); err != nil {
			return err
		}
		// re-read under the lock; a batch decision may have just finished
		if req, err = s.store.GetRequest(ctx, requestID); err != nil {
			return storeErr(err, "reload request")
		}
		if req.Status == model.RequestCanceled {
			return apperr.Conflict(apperr.ReasonConditions, "Request id=%s is already canceled", requestID)
		}
		if err := s.store.UpdateRequestStatus(ctx, []string{req.ID}, model.RequestCanceled); err != nil {
			return storeErr(err, "cancel request")
		}
		req.Status = model.RequestCanceled
		canceled = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RequestsCanceled.Inc()
	s.logger.InfoContext(ctx, "participation request canceled",
		"request_id", requestID,
		"event_id", canceled.EventID,
		"requester_id", requesterID,
	)
	return canceled, nil
}

// BatchDecide applies an initiator's decision to a batch of requests for
// one of their events.
//
// Capacity is consumed in the order the ids are given. Once the last place
// is taken, every other request of the batch is rejected and so is every
// PENDING request of the event outside the batch. The preconditions are
// checked for the whole batch before anything is written.
func (s *ParticipationService) BatchDecide(ctx context.Context, ownerID, eventID string, in model.StatusUpdateRequest) (_ *model.StatusUpdateResult, err error) {
	ctx, end := s.begin(ctx, "participation.batch_decide")
	defer end(&err)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("event.id", eventID),
		attribute.Int("batch.size", len(in.RequestIDs)),
	)

	if in.Status != model.RequestConfirmed && in.Status != model.RequestRejected {
		return nil, apperr.BadRequest("status must be CONFIRMED or REJECTED, got %q", in.Status)
	}
	ids := dedupe(in.RequestIDs)

	var (
		result       model.StatusUpdateResult
		autoRejected int
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := loadUser(ctx, s.store, ownerID); err != nil {
			return err
		}
		event, err := lockEvent(ctx, s.store, eventID)
		if err != nil {
			return err
		}
		if event.InitiatorID != ownerID {
			return apperr.Forbidden("User id=%s is not the initiator of event id=%s", ownerID, eventID)
		}

		batch, err := s.loadBatch(ctx, eventID, ids)
		if err != nil {
			return err
		}

		if event.AutoConfirms() {
			result.ConfirmedRequests = batch
			result.RejectedRequests = []model.ParticipationRequest{}
			return nil
		}

		remaining, _, err := s.ledger.Remaining(ctx, event)
		if err != nil {
			return err
		}
		if remaining <= 0 {
			return apperr.Conflict(apperr.ReasonLimitReached,
				"The participant limit of event id=%s has been reached", eventID)
		}
		for _, r := range batch {
			if r.Status != model.RequestPending {
				return apperr.Conflict(apperr.ReasonConditions,
					"Request id=%s must have status PENDING, has %s", r.ID, r.Status)
			}
		}

		confirmed := make([]model.ParticipationRequest, 0, len(batch))
		rejected := make([]model.ParticipationRequest, 0, len(batch))
		for _, r := range batch {
			if in.Status == model.RequestConfirmed && remaining > 0 {
				r.Status = model.RequestConfirmed
				confirmed = append(confirmed, r)
				remaining--
				continue
			}
			r.Status = model.RequestRejected
			rejected = append(rejected, r)
		}

		if err := s.store.UpdateRequestStatus(ctx, requestIDs(confirmed), model.RequestConfirmed); err != nil {
			return storeErr(err, "confirm requests")
		}
		if err := s.store.UpdateRequestStatus(ctx, requestIDs(rejected), model.RequestRejected); err != nil {
			return storeErr(err, "reject requests")
		}

		if remaining == 0 {
			pending, err := s.store.ListRequestsByEventAndStatus(ctx, eventID, model.RequestPending)
			if err != nil {
				return storeErr(err, "list pending requests")
			}
			if err := s.store.UpdateRequestStatus(ctx, requestIDs(pending), model.RequestRejected); err != nil {
				return storeErr(err, "auto-reject pending requests")
			}
			autoRejected = len(pending)
		}

		result.ConfirmedRequests = confirmed
		result.RejectedRequests = rejected
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Decisions.WithLabelValues("confirmed").Add(float64(len(result.ConfirmedRequests)))
	s.metrics.Decisions.WithLabelValues("rejected").Add(float64(len(result.RejectedRequests)))
	s.metrics.AutoRejected.Add(float64(autoRejected))
	s.logger.InfoContext(ctx, "batch decision applied",
		"event_id", eventID,
		"confirmed", len(result.ConfirmedRequests),
		"rejected", len(result.RejectedRequests),
		"auto_rejected", autoRejected,
	)
	return &result, nil
}

// ListByRequester returns every request the user has made.
func (s *ParticipationService) ListByRequester(ctx context.Context, requesterID string) (_ []model.ParticipationRequest, err error) {
	ctx, end := s.begin(ctx, "participation.list_by_requester")
	defer end(&err)

	if _, err := loadUser(ctx, s.store, requesterID); err != nil {
		return nil, err
	}
	reqs, err := s.store.ListRequestsByRequester(ctx, requesterID)
	if err != nil {
		return nil, storeErr(err, "list requests")
	}
	return nonNil(reqs), nil
}

// ListForEvent returns the requests made for one of the owner's events.
func (s *ParticipationService) ListForEvent(ctx context.Context, ownerID, eventID string) (_ []model.ParticipationRequest, err error) {
	ctx, end := s.begin(ctx, "participation.list_for_event")
	defer end(&err)

	if _, err := loadUser(ctx, s.store, ownerID); err != nil {
		return nil, err
	}
	event, err := loadEvent(ctx, s.store, eventID)
	if err != nil {
		return nil, err
	}
	if event.InitiatorID != ownerID {
		return nil, apperr.Forbidden("User id=%s is not the initiator of event id=%s", ownerID, eventID)
	}
	reqs, err := s.store.ListRequestsByEvent(ctx, eventID)
	if err != nil {
		return nil, storeErr(err, "list requests")
	}
	return nonNil(reqs), nil
}

// loadBatch returns the named requests in the caller's order.
func (s *ParticipationService) loadBatch(ctx context.Context, eventID string, ids []string) ([]model.ParticipationRequest, error) {
	found, err := s.store.ListRequestsByIDs(ctx, ids)
	if err != nil {
		return nil, storeErr(err, "load requests")
	}
	byID := make(map[string]model.ParticipationRequest, len(found))
	for _, r := range found {
		byID[r.ID] = r
	}
	batch := make([]model.ParticipationRequest, 0, len(ids))
	for _, id := range ids {
		r, ok := byID[id]
		if !ok || r.EventID != eventID {
			return nil, apperr.NotFound("Request with id=%s was not found for event id=%s", id, eventID)
		}
		batch = append(batch, r)
	}
	return batch, nil
}

func (s *ParticipationService) refuse(reason string, err error) error {
	s.metrics.RequestsRefused.WithLabelValues(reason).Inc()
	return err
}

func duplicateRequest(requesterID, eventID string) error {
	return apperr.Conflict(apperr.ReasonDuplicate,
		"User id=%s already has a request for event id=%s", requesterID, eventID)
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func requestIDs(reqs []model.ParticipationRequest) []string {
	ids := make([]string, len(reqs))
	for i, r := range reqs {
		ids[i] = r.ID
	}
	return ids
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
