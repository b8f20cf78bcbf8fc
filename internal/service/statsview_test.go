package service

//go:generate mockgen -source=statsview.go -destination=mocks/mocks.go -package=mocks ViewSource,ConfirmedCounter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/Shivanand-hulikatti/event-participation/internal/apperr"
	"github.com/Shivanand-hulikatti/event-participation/internal/metrics"
	"github.com/Shivanand-hulikatti/event-participation/internal/model"
	"github.com/Shivanand-hulikatti/event-participation/internal/service/mocks"
)

type StatsAssemblerSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	views     *mocks.MockViewSource
	counts    *mocks.MockConfirmedCounter
	metrics   *metrics.Metrics
	assembler *StatsAssembler
	events    []model.Event
}

func TestStatsAssemblerSuite(t *testing.T) {
	suite.Run(t, new(StatsAssemblerSuite))
}

func (s *StatsAssemblerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.views = mocks.NewMockViewSource(s.ctrl)
	s.counts = mocks.NewMockConfirmedCounter(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.assembler = NewStatsAssembler(s.views, s.counts,
		append(testOptions(), WithMetrics(s.metrics), WithViewTimeout(50*time.Millisecond))...)
	s.events = []model.Event{
		{ID: "a", CreatedOn: testNow.Add(-2 * time.Hour)},
		{ID: "b", CreatedOn: testNow.Add(-5 * time.Hour)},
		{ID: "c", CreatedOn: testNow.Add(-1 * time.Hour)},
	}
}

func (s *StatsAssemblerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *StatsAssemblerSuite) TestMergesViewsAndConfirmedCounts() {
	s.views.EXPECT().
		Views(gomock.Any(), model.ViewQuery{
			Start:  testNow.Add(-5 * time.Hour),
			End:    testNow.Add(time.Second),
			URIs:   []string{"/events/a", "/events/b", "/events/c"},
			Unique: true,
		}).
		Return([]model.ViewStats{
			{App: "ewm-main-service", URI: "/events/a", Hits: 7},
			{App: "ewm-main-service", URI: "/events/b", Hits: 2},
			{App: "ewm-main-service", URI: "/events/zzz", Hits: 99},
			{App: "ewm-main-service", URI: "/events", Hits: 50},
		}, nil)
	s.counts.EXPECT().
		CountConfirmedByEvents(gomock.Any(), []string{"a", "b", "c"}).
		Return(map[string]int{"b": 3}, nil)

	stats, err := s.assembler.EventStatistics(context.Background(), s.events, nil)
	s.Require().NoError(err)

	s.Equal(int64(7), stats.ViewsOf("a"))
	s.Equal(int64(2), stats.ViewsOf("b"))
	s.Equal(int64(0), stats.ViewsOf("c"))
	s.Equal(0, stats.ConfirmedOf("a"))
	s.Equal(3, stats.ConfirmedOf("b"))
	s.NotContains(stats.Views, "zzz")
}

func (s *StatsAssemblerSuite) TestRangeStartOverridesEarliestCreation() {
	start := testNow.Add(-48 * time.Hour)
	s.views.EXPECT().
		Views(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q model.ViewQuery) ([]model.ViewStats, error) {
			s.Equal(start, q.Start)
			return nil, nil
		})
	s.counts.EXPECT().CountConfirmedByEvents(gomock.Any(), gomock.Any()).Return(map[string]int{}, nil)

	_, err := s.assembler.EventStatistics(context.Background(), s.events, &start)
	s.Require().NoError(err)
}

func (s *StatsAssemblerSuite) TestViewFailureDegradesToZero() {
	s.views.EXPECT().Views(gomock.Any(), gomock.Any()).Return(nil, errors.New("stats service down"))
	s.counts.EXPECT().CountConfirmedByEvents(gomock.Any(), gomock.Any()).Return(map[string]int{"a": 1}, nil)

	stats, err := s.assembler.EventStatistics(context.Background(), s.events, nil)
	s.Require().NoError(err)
	s.Empty(stats.Views)
	s.Equal(1, stats.ConfirmedOf("a"))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.StatsFailures))
}

func (s *StatsAssemblerSuite) TestSlowViewSourceIsCutOff() {
	s.views.EXPECT().
		Views(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ model.ViewQuery) ([]model.ViewStats, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})
	s.counts.EXPECT().CountConfirmedByEvents(gomock.Any(), gomock.Any()).Return(map[string]int{}, nil)

	start := time.Now()
	stats, err := s.assembler.EventStatistics(context.Background(), s.events, nil)
	s.Require().NoError(err)
	s.Empty(stats.Views)
	s.Less(time.Since(start), time.Second)
}

func (s *StatsAssemblerSuite) TestConfirmedCountFailureIsInternal() {
	s.views.EXPECT().Views(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	s.counts.EXPECT().CountConfirmedByEvents(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	_, err := s.assembler.EventStatistics(context.Background(), s.events, nil)
	s.Require().Error(err)
	s.Equal(apperr.KindInternal, apperr.KindOf(err))
}

func (s *StatsAssemblerSuite) TestNoEventsSkipsQueries() {
	stats, err := s.assembler.EventStatistics(context.Background(), nil, nil)
	s.Require().NoError(err)
	s.Empty(stats.Views)
	s.Empty(stats.ConfirmedRequests)
}
