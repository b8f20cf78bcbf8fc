package service

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/event-participation/internal/model"
)

// ViewSource answers view-count queries; statsclient.Client and cache.Views
// implement it.
type ViewSource interface {
	Views(ctx context.Context, q model.ViewQuery) ([]model.ViewStats, error)
}

// ConfirmedCounter counts confirmed requests for a set of events.
type ConfirmedCounter interface {
	CountConfirmedByEvents(ctx context.Context, eventIDs []string) (map[string]int, error)
}

const eventURIPrefix = "/events/"

// EventURI is the public path whose hits count as views of an event.
func EventURI(eventID string) string {
	return eventURIPrefix + eventID
}

// StatsAssembler attaches view and confirmed-request counts to events.
type StatsAssembler struct {
	views  ViewSource
	counts ConfirmedCounter
	options
}

// NewStatsAssembler builds an assembler. A nil views source yields zero views.
func NewStatsAssembler(views ViewSource, counts ConfirmedCounter, opts ...Option) *StatsAssembler {
	return &StatsAssembler{views: views, counts: counts, options: newOptions(opts)}
}

// EventStatistics runs one unique-view query and one confirmed-count query
// for the given events, concurrently. View failures degrade to an empty
// map; confirmed-count failures are returned.
func (a *StatsAssembler) EventStatistics(ctx context.Context, events []model.Event, rangeStart *time.Time) (model.EventStatistics, error) {
	stats := model.EventStatistics{
		Views:             map[string]int64{},
		ConfirmedRequests: map[string]int{},
	}
	if len(events) == 0 {
		return stats, nil
	}

	ids := make([]string, len(events))
	uris := make([]string, len(events))
	start := events[0].CreatedOn
	for i, e := range events {
		ids[i] = e.ID
		uris[i] = EventURI(e.ID)
		if e.CreatedOn.Before(start) {
			start = e.CreatedOn
		}
	}
	if rangeStart != nil {
		start = *rangeStart
	}
	// hits carry second precision; push the bound past the current second
	end := a.clock().Add(time.Second)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats.Views = a.fetchViews(gctx, model.ViewQuery{Start: start, End: end, URIs: uris, Unique: true}, ids)
		return nil
	})
	g.Go(func() error {
		counts, err := a.counts.CountConfirmedByEvents(gctx, ids)
		if err != nil {
			return storeErr(err, "count confirmed requests")
		}
		stats.ConfirmedRequests = counts
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.EventStatistics{}, err
	}
	return stats, nil
}

func (a *StatsAssembler) fetchViews(ctx context.Context, q model.ViewQuery, ids []string) map[string]int64 {
	views := make(map[string]int64, len(ids))
	if a.views == nil {
		return views
	}

	ctx, cancel := context.WithTimeout(ctx, a.viewTimeout)
	defer cancel()

	rows, err := a.views.Views(ctx, q)
	if err != nil {
		a.metrics.StatsFailures.Inc()
		a.logger.WarnContext(ctx, "view statistics unavailable", "events", len(ids), "error", err)
		return views
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	for _, row := range rows {
		id, ok := strings.CutPrefix(row.URI, eventURIPrefix)
		if !ok {
			continue
		}
		if _, ok := wanted[id]; ok {
			views[id] += row.Hits
		}
	}
	return views
}
