package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/event-participation/internal/config"
	"github.com/Shivanand-hulikatti/event-participation/internal/metrics"
	"github.com/Shivanand-hulikatti/event-participation/internal/model"
)

var t0 = time.Date(2030, 3, 1, 9, 0, 0, 0, time.UTC)

type countingSource struct {
	calls int
	stats []model.ViewStats
}

func (c *countingSource) Views(ctx context.Context, q model.ViewQuery) ([]model.ViewStats, error) {
	c.calls++
	return c.stats, nil
}

func TestViews_KeyIgnoresURIOrderAndEndWithinWindow(t *testing.T) {
	v := NewViews(&countingSource{}, nil, 10*time.Second)

	a := v.key(model.ViewQuery{Start: t0, End: t0.Add(time.Hour + time.Second), URIs: []string{"/events/2", "/events/1"}, Unique: true})
	b := v.key(model.ViewQuery{Start: t0, End: t0.Add(time.Hour + 8*time.Second), URIs: []string{"/events/1", "/events/2"}, Unique: true})
	c := v.key(model.ViewQuery{Start: t0, End: t0.Add(time.Hour + 8*time.Second), URIs: []string{"/events/1", "/events/2"}})
	d := v.key(model.ViewQuery{Start: t0, End: t0.Add(time.Hour + 11*time.Second), URIs: []string{"/events/1", "/events/2"}, Unique: true})

	assert.Equal(t, a, b)
	assert.NotEqual(t, b, c)
	assert.NotEqual(t, b, d)
}

func TestViews_FallsThroughWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	src := &countingSource{stats: []model.ViewStats{{App: "a", URI: "/events/1", Hits: 4}}}
	m := metrics.New(prometheus.NewRegistry())
	v := NewViews(src, client, time.Second, WithMetrics(m), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	got, err := v.Views(context.Background(), model.ViewQuery{Start: t0, End: t0.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, src.stats, got)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ViewCacheMisses))
}

func TestNewRedis_EmptyURLDisablesCache(t *testing.T) {
	client, err := NewRedis(context.Background(), config.Redis{})
	require.NoError(t, err)
	assert.Nil(t, client)
}
