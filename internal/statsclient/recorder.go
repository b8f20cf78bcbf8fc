package statsclient

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Shivanand-hulikatti/event-participation/internal/metrics"
	"github.com/Shivanand-hulikatti/event-participation/internal/model"
)

// HitSender delivers one hit; Client implements it.
type HitSender interface {
	Hit(ctx context.Context, h model.HitCreate) error
}

// Recorder sends hits in the background so public reads never wait on the
// stats service. Hits are buffered; when the buffer is full new hits are
// dropped. Each send gets its own timeout and is not retried.
type Recorder struct {
	sender  HitSender
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan model.HitCreate
	done   chan struct{}
}

type RecorderOption func(r *Recorder)

func WithSendTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		r.timeout = d
	}
}

func WithRecorderMetrics(m *metrics.Metrics) RecorderOption {
	return func(r *Recorder) {
		r.metrics = m
	}
}

func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// NewRecorder starts the background sender. buffer is the queue capacity.
func NewRecorder(sender HitSender, buffer int, opts ...RecorderOption) *Recorder {
	if buffer <= 0 {
		buffer = 1024
	}
	r := &Recorder{
		sender:  sender,
		timeout: 2 * time.Second,
		logger:  slog.Default(),
		queue:   make(chan model.HitCreate, buffer),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = metrics.New(prometheus.NewRegistry())
	}
	go r.run()
	return r
}

// Record enqueues a hit without blocking. It reports whether the hit was
// accepted.
func (r *Recorder) Record(h model.HitCreate) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.metrics.HitsDropped.Inc()
		return false
	}
	select {
	case r.queue <- h:
		return true
	default:
		r.metrics.HitsDropped.Inc()
		return false
	}
}

// Close stops accepting hits and waits until the queued ones are sent or
// ctx expires.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for h := range r.queue {
		r.send(h)
	}
}

func (r *Recorder) send(h model.HitCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.sender.Hit(ctx, h); err != nil {
		r.metrics.HitSendFailures.Inc()
		r.logger.Warn("hit not recorded", "uri", h.URI, "error", err)
		return
	}
	r.metrics.HitsSent.Inc()
}
