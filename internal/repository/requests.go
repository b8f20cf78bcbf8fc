package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/event-participation/internal/model"
)

const requestColumns = `id, event_id, requester_id, status, created`

// CreateRequest inserts a participation request. A second live request by
// the same requester for the same event returns ErrDuplicate.
func (p *Postgres) CreateRequest(ctx context.Context, r *model.ParticipationRequest) error {
	_, err := p.q(ctx).Exec(ctx,
		`INSERT INTO participation_requests (id, event_id, requester_id, status, created)
		 VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.EventID, r.RequesterID, r.Status.StorageValue(), r.Created,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

// GetRequest returns a single request or ErrNotFound.
func (p *Postgres) GetRequest(ctx context.Context, id string) (*model.ParticipationRequest, error) {
	r, err := scanRequest(p.q(ctx).QueryRow(ctx,
		`SELECT `+requestColumns+` FROM participation_requests WHERE id = $1`, id))
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	return r, nil
}

// ActiveRequestExists reports whether the requester holds a non-canceled
// request for the event.
func (p *Postgres) ActiveRequestExists(ctx context.Context, requesterID, eventID string) (bool, error) {
	var exists bool
	err := p.q(ctx).QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM participation_requests
		   WHERE requester_id = $1 AND event_id = $2 AND status <> 'canceled')`,
		requesterID, eventID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check duplicate: %w", err)
	}
	return exists, nil
}

// CountConfirmed returns the number of confirmed requests for an event.
func (p *Postgres) CountConfirmed(ctx context.Context, eventID string) (int, error) {
	var n int
	err := p.q(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM participation_requests WHERE event_id = $1 AND status = 'confirmed'`,
		eventID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count confirmed: %w", err)
	}
	return n, nil
}

// CountConfirmedByEvents returns confirmed counts keyed by event id.
// Events without confirmed requests are absent from the map.
func (p *Postgres) CountConfirmedByEvents(ctx context.Context, eventIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}
	rows, err := p.q(ctx).Query(ctx,
		`SELECT event_id, COUNT(*)
		 FROM participation_requests
		 WHERE event_id = ANY($1) AND status = 'confirmed'
		 GROUP BY event_id`,
		eventIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("count confirmed by events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan confirmed count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// ListRequestsByIDs returns the requests with the given ids in no particular order.
func (p *Postgres) ListRequestsByIDs(ctx context.Context, ids []string) ([]model.ParticipationRequest, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return p.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM participation_requests WHERE id = ANY($1)`, ids)
}

// ListRequestsByEvent returns every request for an event, oldest first.
func (p *Postgres) ListRequestsByEvent(ctx context.Context, eventID string) ([]model.ParticipationRequest, error) {
	return p.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM participation_requests
		 WHERE event_id = $1 ORDER BY created ASC, id ASC`, eventID)
}

// ListRequestsByEventAndStatus returns an event's requests in one status.
func (p *Postgres) ListRequestsByEventAndStatus(ctx context.Context, eventID string, status model.RequestStatus) ([]model.ParticipationRequest, error) {
	return p.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM participation_requests
		 WHERE event_id = $1 AND status = $2 ORDER BY created ASC, id ASC`,
		eventID, status.StorageValue())
}

// ListRequestsByRequester returns every request a user has made, oldest first.
func (p *Postgres) ListRequestsByRequester(ctx context.Context, requesterID string) ([]model.ParticipationRequest, error) {
	return p.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM participation_requests
		 WHERE requester_id = $1 ORDER BY created ASC, id ASC`, requesterID)
}

// UpdateRequestStatus sets one status on a batch of requests in a single statement.
func (p *Postgres) UpdateRequestStatus(ctx context.Context, ids []string, status model.RequestStatus) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := p.q(ctx).Exec(ctx,
		`UPDATE participation_requests SET status = $2 WHERE id = ANY($1)`,
		ids, status.StorageValue(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update request status: %w", err)
	}
	return nil
}

func (p *Postgres) queryRequests(ctx context.Context, sql string, args ...any) ([]model.ParticipationRequest, error) {
	rows, err := p.q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []model.ParticipationRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanRequest(row pgx.Row) (*model.ParticipationRequest, error) {
	var (
		r      model.ParticipationRequest
		status string
	)
	if err := row.Scan(&r.ID, &r.EventID, &r.RequesterID, &status, &r.Created); err != nil {
		return nil, err
	}
	var err error
	if r.Status, err = model.ParseRequestStatus(status); err != nil {
		return nil, err
	}
	r.Created = r.Created.UTC()
	return &r, nil
}
