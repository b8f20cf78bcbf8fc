// Package stats records hits on public resources and turns them into view
// counts. It backs the stats service binary.
package stats

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/lib/pq"

	"github.com/Shivanand-hulikatti/event-participation/internal/model"
)

// Store persists hits and aggregates them.
type Store interface {
	Save(ctx context.Context, h *model.Hit) error
	Views(ctx context.Context, q model.ViewQuery) ([]model.ViewStats, error)
}

// PostgresStore keeps hits in PostgreSQL through database/sql and lib/pq.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Save appends a hit and fills in its id.
func (s *PostgresStore) Save(ctx context.Context, h *model.Hit) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO hits (app, uri, ip, created) VALUES ($1, $2, $3, $4) RETURNING id`,
		h.App, h.URI, h.IP, h.Created.UTC(),
	).Scan(&h.ID)
	if err != nil {
		return fmt.Errorf("insert hit: %w", err)
	}
	return nil
}

const viewsQuery = `SELECT app, uri, %s AS hits
FROM hits
WHERE created >= $1 AND created < $2
  AND ($3::text[] IS NULL OR uri = ANY($3))
GROUP BY app, uri
ORDER BY hits DESC, app, uri`

// Views counts hits per (app, uri) in [q.Start, q.End).
func (s *PostgresStore) Views(ctx context.Context, q model.ViewQuery) ([]model.ViewStats, error) {
	agg := "COUNT(ip)"
	if q.Unique {
		agg = "COUNT(DISTINCT ip)"
	}
	var uris any
	if len(q.URIs) > 0 {
		uris = pq.Array(q.URIs)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(viewsQuery, agg), q.Start.UTC(), q.End.UTC(), uris)
	if err != nil {
		return nil, fmt.Errorf("query views: %w", err)
	}
	defer rows.Close()

	out := []model.ViewStats{}
	for rows.Next() {
		var v model.ViewStats
		if err := rows.Scan(&v.App, &v.URI, &v.Hits); err != nil {
			return nil, fmt.Errorf("scan views: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// MemoryStore keeps hits in process.
type MemoryStore struct {
	mu     sync.RWMutex
	hits   []model.Hit
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, h *model.Hit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	h.ID = s.nextID
	s.hits = append(s.hits, *h)
	return nil
}

func (s *MemoryStore) Views(_ context.Context, q model.ViewQuery) ([]model.ViewStats, error) {
	type key struct{ app, uri string }

	s.mu.RLock()
	total := make(map[key]int64)
	distinct := make(map[key]map[string]struct{})
	for _, h := range s.hits {
		if h.Created.Before(q.Start) || !h.Created.Before(q.End) {
			continue
		}
		if len(q.URIs) > 0 && !slices.Contains(q.URIs, h.URI) {
			continue
		}
		k := key{h.App, h.URI}
		total[k]++
		if distinct[k] == nil {
			distinct[k] = make(map[string]struct{})
		}
		distinct[k][h.IP] = struct{}{}
	}
	s.mu.RUnlock()

	out := make([]model.ViewStats, 0, len(total))
	for k, n := range total {
		if q.Unique {
			n = int64(len(distinct[k]))
		}
		out = append(out, model.ViewStats{App: k.app, URI: k.uri, Hits: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hits != out[j].Hits {
			return out[i].Hits > out[j].Hits
		}
		if out[i].App != out[j].App {
			return out[i].App < out[j].App
		}
		return out[i].URI < out[j].URI
	})
	return out, nil
}
