package stats

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Shivanand-hulikatti/event-participation/internal/apperr"
	"github.com/Shivanand-hulikatti/event-participation/internal/metrics"
	"github.com/Shivanand-hulikatti/event-participation/internal/model"
)

const (
	maxAppLen = model.MaxHitAppLen
	maxURILen = model.MaxHitURILen
	maxIPLen  = model.MaxHitIPLen
)

// Service validates hits and view queries before they reach the store.
type Service struct {
	store        Store
	logger       *slog.Logger
	metrics      *metrics.Metrics
	queryTimeout time.Duration
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithQueryTimeout bounds each store call.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.queryTimeout = d
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:        store,
		logger:       slog.Default(),
		queryTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New(prometheus.NewRegistry())
	}
	return s
}

// RecordHit stores one immutable hit.
func (s *Service) RecordHit(ctx context.Context, in model.HitCreate) (*model.Hit, error) {
	h := &model.Hit{
		App:     strings.TrimSpace(in.App),
		URI:     strings.TrimSpace(in.URI),
		IP:      strings.TrimSpace(in.IP),
		Created: in.Timestamp.Time().UTC(),
	}
	if err := validateHit(h); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	if err := s.store.Save(ctx, h); err != nil {
		return nil, s.internal(err, "save hit")
	}
	s.metrics.HitsStored.Inc()
	s.logger.DebugContext(ctx, "hit recorded", "app", h.App, "uri", h.URI)
	return h, nil
}

// Views counts hits in [q.Start, q.End), most viewed first.
func (s *Service) Views(ctx context.Context, q model.ViewQuery) ([]model.ViewStats, error) {
	if q.Start.IsZero() || q.End.IsZero() {
		return nil, apperr.BadRequest("start and end are required")
	}
	if q.End.Before(q.Start) {
		return nil, apperr.BadRequest("end %s is before start %s",
			model.FormatDateTime(q.End), model.FormatDateTime(q.Start))
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	out, err := s.store.Views(ctx, q)
	if err != nil {
		return nil, s.internal(err, "query views")
	}
	if out == nil {
		out = []model.ViewStats{}
	}
	return out, nil
}

func (s *Service) internal(err error, message string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		message += ": timed out"
	}
	return apperr.Internal(err, message)
}

func validateHit(h *model.Hit) error {
	switch {
	case h.App == "":
		return apperr.BadRequest("app is required")
	case utf8.RuneCountInString(h.App) > maxAppLen:
		return apperr.BadRequest("app must be at most %d characters", maxAppLen)
	case h.URI == "":
		return apperr.BadRequest("uri is required")
	case utf8.RuneCountInString(h.URI) > maxURILen:
		return apperr.BadRequest("uri must be at most %d characters", maxURILen)
	case h.IP == "":
		return apperr.BadRequest("ip is required")
	case utf8.RuneCountInString(h.IP) > maxIPLen:
		return apperr.BadRequest("ip must be at most %d characters", maxIPLen)
	case h.Created.IsZero():
		return apperr.BadRequest("timestamp is required")
	}
	return nil
}
