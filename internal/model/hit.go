package model

import (
	"time"
	"unicode/utf8"
)

// Column limits of the hit store.
const (
	MaxHitAppLen = 100
	MaxHitURILen = 100
	MaxHitIPLen  = 32
)

// Hit is one recorded touch of a public resource. It is never updated.
type Hit struct {
	ID      int64
	App     string
	URI     string
	IP      string
	Created time.Time
}

// HitCreate is the POST /hit payload.
type HitCreate struct {
	App       string   `json:"app"`
	URI       string   `json:"uri"`
	IP        string   `json:"ip"`
	Timestamp DateTime `json:"timestamp"`
}

// Storable reports whether every field is present and within the hit
// store's limits.
func (h HitCreate) Storable() bool {
	return h.App != "" && h.URI != "" && h.IP != "" && !h.Timestamp.IsZero() &&
		utf8.RuneCountInString(h.App) <= MaxHitAppLen &&
		utf8.RuneCountInString(h.URI) <= MaxHitURILen &&
		utf8.RuneCountInString(h.IP) <= MaxHitIPLen
}

// ViewStats is a derived hit count for one (app, uri) pair.
type ViewStats struct {
	App  string `json:"app"`
	URI  string `json:"uri"`
	Hits int64  `json:"hits"`
}

// ViewQuery selects hits in [Start, End).
// An empty URIs slice means every URI.
type ViewQuery struct {
	Start  time.Time
	End    time.Time
	URIs   []string
	Unique bool
}
