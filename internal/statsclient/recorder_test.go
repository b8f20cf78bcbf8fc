package statsclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/event-participation/internal/metrics"
	"github.com/Shivanand-hulikatti/event-participation/internal/model"
)

type fakeSender struct {
	mu    sync.Mutex
	hits  []model.HitCreate
	err   error
	block chan struct{}
}

func (f *fakeSender) Hit(ctx context.Context, h model.HitCreate) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.hits = append(f.hits, h)
	return nil
}

func (f *fakeSender) sent() []model.HitCreate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.HitCreate(nil), f.hits...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorder_DeliversAndDrainsOnClose(t *testing.T) {
	sender := &fakeSender{}
	m := metrics.New(prometheus.NewRegistry())
	r := NewRecorder(sender, 16, WithRecorderMetrics(m), WithRecorderLogger(quietLogger()))

	for _, uri := range []string{"/events", "/events/1", "/events/2"} {
		assert.True(t, r.Record(model.HitCreate{App: "a", URI: uri, IP: "1.1.1.1", Timestamp: model.DateTime(t0)}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Close(ctx))

	assert.Len(t, sender.sent(), 3)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.HitsSent))
	assert.False(t, r.Record(model.HitCreate{URI: "/late"}))
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	sender := &fakeSender{block: make(chan struct{})}
	m := metrics.New(prometheus.NewRegistry())
	r := NewRecorder(sender, 1, WithRecorderMetrics(m), WithRecorderLogger(quietLogger()))

	// The worker may or may not have taken the first hit off the queue yet,
	// so at most two are accepted out of five.
	accepted := 0
	for range 5 {
		if r.Record(model.HitCreate{URI: "/events"}) {
			accepted++
		}
	}
	assert.LessOrEqual(t, accepted, 2)
	assert.Equal(t, float64(5-accepted), testutil.ToFloat64(m.HitsDropped))

	close(sender.block)
	require.NoError(t, r.Close(context.Background()))
	assert.Len(t, sender.sent(), accepted)
}

func TestRecorder_FailuresAreCountedNotRetried(t *testing.T) {
	sender := &fakeSender{err: errors.New("unreachable")}
	m := metrics.New(prometheus.NewRegistry())
	r := NewRecorder(sender, 4, WithRecorderMetrics(m), WithRecorderLogger(quietLogger()))

	r.Record(model.HitCreate{URI: "/events/9"})
	require.NoError(t, r.Close(context.Background()))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HitSendFailures))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.HitsSent))
}
