package stats

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Shivanand-hulikatti/event-participation/internal/apperr"
	"github.com/Shivanand-hulikatti/event-participation/internal/model"
)

type ServiceSuite struct {
	suite.Suite
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.service = NewService(NewMemoryStore(), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func (s *ServiceSuite) hit(uri, ip string, at time.Time) {
	_, err := s.service.RecordHit(s.ctx, model.HitCreate{
		App: "ewm-main-service", URI: uri, IP: ip, Timestamp: model.DateTime(at),
	})
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestRoundTripTotalAndUnique() {
	const (
		hits = 12
		ips  = 4
	)
	for i := range hits {
		s.hit("/events/7", fmt.Sprintf("192.168.0.%d", i%ips), t0.Add(time.Duration(i)*time.Minute))
	}

	total, err := s.service.Views(s.ctx, model.ViewQuery{Start: t0, End: t1, URIs: []string{"/events/7"}})
	s.Require().NoError(err)
	s.Require().Len(total, 1)
	s.Equal(int64(hits), total[0].Hits)

	unique, err := s.service.Views(s.ctx, model.ViewQuery{Start: t0, End: t1, URIs: []string{"/events/7"}, Unique: true})
	s.Require().NoError(err)
	s.Require().Len(unique, 1)
	s.Equal(int64(ips), unique[0].Hits)
}

func (s *ServiceSuite) TestViewsOrderedByCountDescending() {
	s.hit("/events/1", "1.1.1.1", t0)
	s.hit("/events/2", "1.1.1.1", t0)
	s.hit("/events/2", "1.1.1.2", t0)
	s.hit("/events", "1.1.1.3", t0)

	got, err := s.service.Views(s.ctx, model.ViewQuery{Start: t0, End: t1})
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal("/events/2", got[0].URI)
	s.Equal(int64(2), got[0].Hits)
}

func (s *ServiceSuite) TestViewsValidation() {
	_, err := s.service.Views(s.ctx, model.ViewQuery{Start: t1, End: t0})
	s.Equal(apperr.KindBadRequest, apperr.KindOf(err))

	_, err = s.service.Views(s.ctx, model.ViewQuery{End: t0})
	s.Equal(apperr.KindBadRequest, apperr.KindOf(err))

	got, err := s.service.Views(s.ctx, model.ViewQuery{Start: t0, End: t0})
	s.Require().NoError(err)
	s.NotNil(got)
	s.Empty(got)
}

func (s *ServiceSuite) TestRecordHitValidation() {
	valid := model.HitCreate{App: "app", URI: "/events", IP: "10.0.0.1", Timestamp: model.DateTime(t0)}
	cases := map[string]func(*model.HitCreate){
		"missing app":  func(h *model.HitCreate) { h.App = " " },
		"long app":     func(h *model.HitCreate) { h.App = strings.Repeat("a", 101) },
		"long uri":     func(h *model.HitCreate) { h.URI = "/" + strings.Repeat("u", 100) },
		"missing ip":   func(h *model.HitCreate) { h.IP = "" },
		"long ip":      func(h *model.HitCreate) { h.IP = strings.Repeat("9", 33) },
		"no timestamp": func(h *model.HitCreate) { h.Timestamp = model.DateTime{} },
	}
	for name, mutate := range cases {
		in := valid
		mutate(&in)
		_, err := s.service.RecordHit(s.ctx, in)
		s.Equal(apperr.KindBadRequest, apperr.KindOf(err), name)
	}

	h, err := s.service.RecordHit(s.ctx, valid)
	s.Require().NoError(err)
	s.NotZero(h.ID)
}
