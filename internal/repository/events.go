package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/event-participation/internal/database"
	"github.com/Shivanand-hulikatti/event-participation/internal/model"
)

const eventColumns = `e.id, e.initiator_id, e.title, e.annotation, e.description, e.paid,
	e.participant_limit, e.request_moderation, e.state, e.event_date, e.created_on, e.published_on`

// CreateEvent inserts a new event.
func (p *Postgres) CreateEvent(ctx context.Context, e *model.Event) error {
	_, err := p.q(ctx).Exec(ctx,
		`INSERT INTO events (id, initiator_id, title, annotation, description, paid,
		                     participant_limit, request_moderation, state, event_date, created_on, published_on)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.InitiatorID, e.Title, e.Annotation, e.Description, e.Paid,
		e.ParticipantLimit, e.RequestModeration, e.State.StorageValue(), e.EventDate, e.CreatedOn, e.PublishedOn,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetEvent returns a single event or ErrNotFound.
func (p *Postgres) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(p.q(ctx).QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events e WHERE e.id = $1`, id))
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// LockEvent reads an event and holds an exclusive row lock on it until the
// surrounding transaction ends.
//
// Every admission decision for an event runs under this lock, so the
// read-count-then-write sequence on the event's confirmed requests is
// serialised per event:
//
//	tx A: SELECT … FOR UPDATE  → lock acquired, confirmed = 1 of 2
//	tx B: SELECT … FOR UPDATE  → blocks
//	tx A: INSERT confirmed request, COMMIT
//	tx B: lock acquired, confirmed = 2 of 2 → refused
//
// Without the lock both transactions would read "1 of 2" and both admit.
func (p *Postgres) LockEvent(ctx context.Context, id string) (*model.Event, error) {
	tx, ok := database.TxFrom(ctx)
	if !ok {
		return nil, ErrNoTx
	}
	e, err := scanEvent(tx.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events e WHERE e.id = $1 FOR UPDATE`, id))
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}
	return e, nil
}

// UpdateEvent overwrites the mutable columns of an event.
func (p *Postgres) UpdateEvent(ctx context.Context, e *model.Event) error {
	tag, err := p.q(ctx).Exec(ctx,
		`UPDATE events
		 SET title = $2, annotation = $3, description = $4, paid = $5, participant_limit = $6,
		     request_moderation = $7, state = $8, event_date = $9, published_on = $10
		 WHERE id = $1`,
		e.ID, e.Title, e.Annotation, e.Description, e.Paid, e.ParticipantLimit,
		e.RequestModeration, e.State.StorageValue(), e.EventDate, e.PublishedOn,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEventsByInitiator returns an initiator's events, oldest first.
func (p *Postgres) ListEventsByInitiator(ctx context.Context, initiatorID string, page model.Page) ([]model.Event, error) {
	return p.queryEvents(ctx,
		`SELECT `+eventColumns+`
		 FROM events e
		 WHERE e.initiator_id = $1
		 ORDER BY e.created_on ASC, e.id ASC
		 OFFSET $2 LIMIT $3`,
		initiatorID, page.From, limit(page.Size),
	)
}

// SearchPublicEvents lists published events matching the public filters,
// ordered by event date.
func (p *Postgres) SearchPublicEvents(ctx context.Context, f model.PublicEventParams) ([]model.Event, error) {
	return p.queryEvents(ctx,
		`SELECT `+eventColumns+`
		 FROM events e
		 WHERE e.state = 'published'
		   AND ($1 = '' OR e.annotation ILIKE $1 ESCAPE '\' OR e.description ILIKE $1 ESCAPE '\')
		   AND ($2::boolean IS NULL OR e.paid = $2)
		   AND ($3::timestamptz IS NULL OR e.event_date >= $3)
		   AND ($4::timestamptz IS NULL OR e.event_date <= $4)
		   AND (NOT $5 OR e.participant_limit = 0 OR e.participant_limit > (
		        SELECT COUNT(*) FROM participation_requests r
		        WHERE r.event_id = e.id AND r.status = 'confirmed'))
		 ORDER BY e.event_date ASC, e.id ASC
		 OFFSET $6 LIMIT $7`,
		containsPattern(f.Text), f.Paid, f.RangeStart, f.RangeEnd, f.OnlyAvailable, f.From, limit(f.Size),
	)
}

// SearchAdminEvents lists events for moderation.
func (p *Postgres) SearchAdminEvents(ctx context.Context, f model.AdminEventParams) ([]model.Event, error) {
	states := make([]string, 0, len(f.States))
	for _, s := range f.States {
		states = append(states, s.StorageValue())
	}
	return p.queryEvents(ctx,
		`SELECT `+eventColumns+`
		 FROM events e
		 WHERE ($1::text[] IS NULL OR e.initiator_id = ANY($1))
		   AND ($2::text[] IS NULL OR e.state = ANY($2))
		   AND ($3::timestamptz IS NULL OR e.event_date >= $3)
		   AND ($4::timestamptz IS NULL OR e.event_date <= $4)
		 ORDER BY e.created_on ASC, e.id ASC
		 OFFSET $5 LIMIT $6`,
		nullable(f.Users), nullable(states), f.RangeStart, f.RangeEnd, f.From, limit(f.Size),
	)
}

func (p *Postgres) queryEvents(ctx context.Context, sql string, args ...any) ([]model.Event, error) {
	rows, err := p.q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var (
		e           model.Event
		state       string
		publishedOn *time.Time
	)
	err := row.Scan(&e.ID, &e.InitiatorID, &e.Title, &e.Annotation, &e.Description, &e.Paid,
		&e.ParticipantLimit, &e.RequestModeration, &state, &e.EventDate, &e.CreatedOn, &publishedOn)
	if err != nil {
		return nil, err
	}
	if e.State, err = model.ParseEventState(state); err != nil {
		return nil, err
	}
	e.EventDate = e.EventDate.UTC()
	e.CreatedOn = e.CreatedOn.UTC()
	if publishedOn != nil {
		utc := publishedOn.UTC()
		e.PublishedOn = &utc
	}
	return &e, nil
}
