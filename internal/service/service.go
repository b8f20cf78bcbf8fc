// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Shivanand-hulikatti/event-participation/internal/apperr"
	"github.com/Shivanand-hulikatti/event-participation/internal/metrics"
	"github.com/Shivanand-hulikatti/event-participation/internal/model"
	"github.com/Shivanand-hulikatti/event-participation/internal/repository"
)

const defaultOpTimeout = 5 * time.Second

// TxRunner runs a unit of work. Locking reads are only valid inside it.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context, ids []string, page model.Page) ([]model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type EventStore interface {
	CreateEvent(ctx context.Context, e *model.Event) error
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	LockEvent(ctx context.Context, id string) (*model.Event, error)
	UpdateEvent(ctx context.Context, e *model.Event) error
	ListEventsByInitiator(ctx context.Context, initiatorID string, page model.Page) ([]model.Event, error)
	SearchPublicEvents(ctx context.Context, f model.PublicEventParams) ([]model.Event, error)
	SearchAdminEvents(ctx context.Context, f model.AdminEventParams) ([]model.Event, error)
}

type RequestStore interface {
	CreateRequest(ctx context.Context, r *model.ParticipationRequest) error
	GetRequest(ctx context.Context, id string) (*model.ParticipationRequest, error)
	ActiveRequestExists(ctx context.Context, requesterID, eventID string) (bool, error)
	CountConfirmed(ctx context.Context, eventID string) (int, error)
	CountConfirmedByEvents(ctx context.Context, eventIDs []string) (map[string]int, error)
	ListRequestsByIDs(ctx context.Context, ids []string) ([]model.ParticipationRequest, error)
	ListRequestsByEvent(ctx context.Context, eventID string) ([]model.ParticipationRequest, error)
	ListRequestsByEventAndStatus(ctx context.Context, eventID string, status model.RequestStatus) ([]model.ParticipationRequest, error)
	ListRequestsByRequester(ctx context.Context, requesterID string) ([]model.ParticipationRequest, error)
	UpdateRequestStatus(ctx context.Context, ids []string, status model.RequestStatus) error
}

// Store is the full persistence contract; repository.Postgres and
// repository.Memory both satisfy it.
type Store interface {
	TxRunner
	UserStore
	EventStore
	RequestStore
}

type options struct {
	logger      *slog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
	timeout     time.Duration
	viewTimeout time.Duration
	tracer      trace.Tracer
}

// Option configures the services in this package.
type Option func(o *options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithTimeout bounds every store round-trip of one operation.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithViewTimeout bounds the view-count query made while assembling statistics.
func WithViewTimeout(d time.Duration) Option {
	return func(o *options) {
		o.viewTimeout = d
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:      slog.Default(),
		now:         time.Now,
		timeout:     defaultOpTimeout,
		viewTimeout: 2 * time.Second,
		tracer:      otel.Tracer("ewm/service"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = metrics.New(prometheus.NewRegistry())
	}
	return o
}

// clock returns the current time in UTC truncated to the wire precision.
func (o options) clock() time.Time {
	return o.now().UTC().Truncate(time.Second)
}

// begin applies the operation timeout and opens a span.
func (o options) begin(ctx context.Context, name string) (context.Context, func(*error)) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	ctx, span := o.tracer.Start(ctx, name)
	return ctx, func(errp *error) {
		if errp != nil && *errp != nil {
			span.RecordError(*errp)
			span.SetStatus(codes.Error, (*errp).Error())
		}
		span.End()
		cancel()
	}
}

// storeErr classifies an unexpected store failure. Already classified
// errors pass through unchanged.
func storeErr(err error, message string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Internal(err, message+": operation timed out")
	}
	return apperr.Internal(err, message)
}

func userNotFound(id string) error {
	return apperr.NotFound("User with id=%s was not found", id)
}

func eventNotFound(id string) error {
	return apperr.NotFound("Event with id=%s was not found", id)
}

func requestNotFound(id string) error {
	return apperr.NotFound("Request with id=%s was not found", id)
}

// loadUser fetches a user, mapping a miss to NotFound.
func loadUser(ctx context.Context, users UserStore, id string) (*model.User, error) {
	u, err := users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, userNotFound(id)
		}
		return nil, storeErr(err, "load user")
	}
	return u, nil
}

// lockEvent takes the per-event lock, mapping a miss to NotFound.
func lockEvent(ctx context.Context, events EventStore, id string) (*model.Event, error) {
	e, err := events.LockEvent(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, eventNotFound(id)
		}
		return nil, storeErr(err, "lock event")
	}
	return e, nil
}

func loadEvent(ctx context.Context, events EventStore, id string) (*model.Event, error) {
	e, err := events.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, eventNotFound(id)
		}
		return nil, storeErr(err, "load event")
	}
	return e, nil
}
