package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/Shivanand-hulikatti/event-participation/internal/metrics"
	"github.com/Shivanand-hulikatti/event-participation/internal/model"
)

const viewsKeyPrefix = "ewm:views:"

// ViewSource is the upstream the cache fronts.
type ViewSource interface {
	Views(ctx context.Context, q model.ViewQuery) ([]model.ViewStats, error)
}

// Views caches view-count answers for ttl. The query end is truncated to
// ttl when building the key, so "up to now" queries issued within the same
// window share an entry. Redis failures fall through to the upstream.
type Views struct {
	next    ViewSource
	client  redis.Cmdable
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(v *Views)

func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Views) {
		v.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(v *Views) {
		v.logger = logger
	}
}

// NewViews wraps next with a Redis cache.
func NewViews(next ViewSource, client redis.Cmdable, ttl time.Duration, opts ...Option) *Views {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	v := &Views{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.metrics == nil {
		v.metrics = metrics.New(prometheus.NewRegistry())
	}
	return v
}

func (v *Views) Views(ctx context.Context, q model.ViewQuery) ([]model.ViewStats, error) {
	key := v.key(q)

	raw, err := v.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []model.ViewStats
		if jerr := json.Unmarshal(raw, &cached); jerr == nil {
			v.metrics.ViewCacheHits.Inc()
			return cached, nil
		}
		v.logger.Warn("discarding corrupt view cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		v.logger.Warn("view cache read failed", "error", err)
	}
	v.metrics.ViewCacheMisses.Inc()

	stats, err := v.next.Views(ctx, q)
	if err != nil {
		return nil, err
	}

	if payload, jerr := json.Marshal(stats); jerr == nil {
		if serr := v.client.Set(ctx, key, payload, v.ttl).Err(); serr != nil {
			v.logger.Warn("view cache write failed", "error", serr)
		}
	}
	return stats, nil
}

func (v *Views) key(q model.ViewQuery) string {
	uris := slices.Clone(q.URIs)
	slices.Sort(uris)
	sum := sha256.Sum256([]byte(strings.Join(uris, "\n")))

	var b strings.Builder
	b.WriteString(viewsKeyPrefix)
	b.WriteString(strconv.FormatInt(q.Start.Unix(), 10))
	b.WriteByte(':')
	b.WriteString(strconv.FormatInt(q.End.Truncate(v.ttl).Unix(), 10))
	b.WriteByte(':')
	b.WriteString(strconv.FormatBool(q.Unique))
	b.WriteByte(':')
	b.WriteString(hex.EncodeToString(sum[:8]))
	return b.String()
}
