package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/Shivanand-hulikatti/event-participation/internal/model"
)

// Memory is an in-process store with the same contract as Postgres.
// LockEvent takes a per-event lock held until the unit of work ends, and
// writes made inside WithinTx are undone if the unit of work fails.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]model.User
	events   map[string]model.Event
	requests map[string]model.ParticipationRequest

	locksMu sync.Mutex
	locks   map[string]*semaphore.Weighted
}

type memTxKey struct{}

type memTx struct {
	held map[string]*semaphore.Weighted
	undo []func()
}

// NewMemory constructs an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]model.User),
		events:   make(map[string]model.Event),
		requests: make(map[string]model.ParticipationRequest),
		locks:    make(map[string]*semaphore.Weighted),
	}
}

// WithinTx runs fn as one unit of work. Nested calls join the outer one.
func (m *Memory) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(memTxKey{}).(*memTx); ok {
		return fn(ctx)
	}

	tx := &memTx{held: make(map[string]*semaphore.Weighted)}
	defer func() {
		for _, l := range tx.held {
			l.Release(1)
		}
	}()

	if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		m.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		m.mu.Unlock()
		return err
	}
	return nil
}

// record registers an undo step. Callers hold m.mu.
func (m *Memory) record(ctx context.Context, undo func()) {
	if tx, ok := ctx.Value(memTxKey{}).(*memTx); ok {
		tx.undo = append(tx.undo, undo)
	}
}

func (m *Memory) eventLock(id string) *semaphore.Weighted {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = semaphore.NewWeighted(1)
		m.locks[id] = l
	}
	return l
}

// ---- users ----

func (m *Memory) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) GetUser(_ context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) ListUsers(_ context.Context, ids []string, page model.Page) ([]model.User, error) {
	m.mu.RLock()
	users := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		if len(ids) == 0 || slices.Contains(ids, u.ID) {
			users = append(users, u)
		}
	}
	m.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return window(users, page.From, page.Size), nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	for eid, e := range m.events {
		if e.InitiatorID == id {
			delete(m.events, eid)
		}
	}
	for rid, r := range m.requests {
		if _, live := m.events[r.EventID]; r.RequesterID == id || !live {
			delete(m.requests, rid)
		}
	}
	return nil
}

// ---- events ----

func (m *Memory) CreateEvent(ctx context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[e.InitiatorID]; !ok {
		return ErrNotFound
	}
	m.events[e.ID] = *e
	id := e.ID
	m.record(ctx, func() { delete(m.events, id) })
	return nil
}

func (m *Memory) GetEvent(_ context.Context, id string) (*model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

// LockEvent reads an event and holds its lock until WithinTx returns.
// Waiting for the lock gives up when ctx is done.
func (m *Memory) LockEvent(ctx context.Context, id string) (*model.Event, error) {
	tx, ok := ctx.Value(memTxKey{}).(*memTx)
	if !ok {
		return nil, ErrNoTx
	}
	if _, held := tx.held[id]; !held {
		l := m.eventLock(id)
		if err := l.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("lock event %s: %w", id, err)
		}
		tx.held[id] = l
	}
	return m.GetEvent(ctx, id)
}

func (m *Memory) UpdateEvent(ctx context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.events[e.ID]
	if !ok {
		return ErrNotFound
	}
	m.events[e.ID] = *e
	m.record(ctx, func() { m.events[prev.ID] = prev })
	return nil
}

func (m *Memory) ListEventsByInitiator(_ context.Context, initiatorID string, page model.Page) ([]model.Event, error) {
	events := m.filterEvents(func(e model.Event) bool { return e.InitiatorID == initiatorID })
	sortByCreated(events)
	return window(events, page.From, page.Size), nil
}

func (m *Memory) SearchPublicEvents(_ context.Context, f model.PublicEventParams) ([]model.Event, error) {
	text := strings.ToLower(f.Text)

	m.mu.RLock()
	confirmed := make(map[string]int)
	for _, r := range m.requests {
		if r.Status == model.RequestConfirmed {
			confirmed[r.EventID]++
		}
	}
	m.mu.RUnlock()

	events := m.filterEvents(func(e model.Event) bool {
		switch {
		case e.State != model.EventPublished:
			return false
		case text != "" &&
			!strings.Contains(strings.ToLower(e.Annotation), text) &&
			!strings.Contains(strings.ToLower(e.Description), text):
			return false
		case f.Paid != nil && e.Paid != *f.Paid:
			return false
		case f.RangeStart != nil && e.EventDate.Before(*f.RangeStart):
			return false
		case f.RangeEnd != nil && e.EventDate.After(*f.RangeEnd):
			return false
		case f.OnlyAvailable && !e.Unlimited() && confirmed[e.ID] >= e.ParticipantLimit:
			return false
		}
		return true
	})
	sort.Slice(events, func(i, j int) bool {
		if events[i].EventDate.Equal(events[j].EventDate) {
			return events[i].ID < events[j].ID
		}
		return events[i].EventDate.Before(events[j].EventDate)
	})
	return window(events, f.From, f.Size), nil
}

func (m *Memory) SearchAdminEvents(_ context.Context, f model.AdminEventParams) ([]model.Event, error) {
	events := m.filterEvents(func(e model.Event) bool {
		switch {
		case len(f.Users) > 0 && !slices.Contains(f.Users, e.InitiatorID):
			return false
		case len(f.States) > 0 && !slices.Contains(f.States, e.State):
			return false
		case f.RangeStart != nil && e.EventDate.Before(*f.RangeStart):
			return false
		case f.RangeEnd != nil && e.EventDate.After(*f.RangeEnd):
			return false
		}
		return true
	})
	sortByCreated(events)
	return window(events, f.From, f.Size), nil
}

func (m *Memory) filterEvents(keep func(model.Event) bool) []model.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Event
	for _, e := range m.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// ---- requests ----

func (m *Memory) CreateRequest(ctx context.Context, r *model.ParticipationRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[r.EventID]; !ok {
		return ErrNotFound
	}
	if _, ok := m.users[r.RequesterID]; !ok {
		return ErrNotFound
	}
	if r.Status != model.RequestCanceled && m.activeExists(r.RequesterID, r.EventID, "") {
		return ErrDuplicate
	}
	m.requests[r.ID] = *r
	id := r.ID
	m.record(ctx, func() { delete(m.requests, id) })
	return nil
}

func (m *Memory) GetRequest(_ context.Context, id string) (*model.ParticipationRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *Memory) ActiveRequestExists(_ context.Context, requesterID, eventID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeExists(requesterID, eventID, ""), nil
}

// activeExists ignores the request with id skip. Callers hold m.mu.
func (m *Memory) activeExists(requesterID, eventID, skip string) bool {
	for _, r := range m.requests {
		if r.ID != skip && r.RequesterID == requesterID && r.EventID == eventID && r.Status != model.RequestCanceled {
			return true
		}
	}
	return false
}

func (m *Memory) CountConfirmed(_ context.Context, eventID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.requests {
		if r.EventID == eventID && r.Status == model.RequestConfirmed {
			n++
		}
	}
	return n, nil
}

func (m *Memory) CountConfirmedByEvents(_ context.Context, eventIDs []string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int, len(eventIDs))
	for _, r := range m.requests {
		if r.Status == model.RequestConfirmed && slices.Contains(eventIDs, r.EventID) {
			counts[r.EventID]++
		}
	}
	return counts, nil
}

func (m *Memory) ListRequestsByIDs(_ context.Context, ids []string) ([]model.ParticipationRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.ParticipationRequest
	for _, id := range ids {
		if r, ok := m.requests[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) ListRequestsByEvent(_ context.Context, eventID string) ([]model.ParticipationRequest, error) {
	return m.filterRequests(func(r model.ParticipationRequest) bool { return r.EventID == eventID }), nil
}

func (m *Memory) ListRequestsByEventAndStatus(_ context.Context, eventID string, status model.RequestStatus) ([]model.ParticipationRequest, error) {
	return m.filterRequests(func(r model.ParticipationRequest) bool {
		return r.EventID == eventID && r.Status == status
	}), nil
}

func (m *Memory) ListRequestsByRequester(_ context.Context, requesterID string) ([]model.ParticipationRequest, error) {
	return m.filterRequests(func(r model.ParticipationRequest) bool { return r.RequesterID == requesterID }), nil
}

func (m *Memory) UpdateRequestStatus(ctx context.Context, ids []string, status model.RequestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		r, ok := m.requests[id]
		if !ok {
			continue
		}
		if r.Status == model.RequestCanceled && status != model.RequestCanceled &&
			m.activeExists(r.RequesterID, r.EventID, r.ID) {
			return ErrDuplicate
		}
		prev := r
		r.Status = status
		m.requests[id] = r
		m.record(ctx, func() { m.requests[prev.ID] = prev })
	}
	return nil
}

func (m *Memory) filterRequests(keep func(model.ParticipationRequest) bool) []model.ParticipationRequest {
	m.mu.RLock()
	var out []model.ParticipationRequest
	for _, r := range m.requests {
		if keep(r) {
			out = append(out, r)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Created.Equal(out[j].Created) {
			return out[i].ID < out[j].ID
		}
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

func sortByCreated(events []model.Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].CreatedOn.Equal(events[j].CreatedOn) {
			return events[i].ID < events[j].ID
		}
		return events[i].CreatedOn.Before(events[j].CreatedOn)
	})
}

func window[T any](items []T, from, size int) []T {
	size = limit(size)
	if from < 0 {
		from = 0
	}
	if from >= len(items) {
		return nil
	}
	end := from + size
	if end > len(items) {
		end = len(items)
	}
	return items[from:end]
}
