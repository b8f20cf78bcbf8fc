package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Shivanand-hulikatti/event-participation/internal/apperr"
	"github.com/Shivanand-hulikatti/event-participation/internal/model"
	"github.com/Shivanand-hulikatti/event-participation/internal/repository"
)

type staticViews map[string]int64

func (v staticViews) Views(_ context.Context, q model.ViewQuery) ([]model.ViewStats, error) {
	var out []model.ViewStats
	for _, uri := range q.URIs {
		if n, ok := v[uri]; ok {
			out = append(out, model.ViewStats{App: "ewm-main-service", URI: uri, Hits: n})
		}
	}
	return out, nil
}

type EventServiceSuite struct {
	suite.Suite
	store   *repository.Memory
	views   staticViews
	service *EventService
	ctx     context.Context
}

func TestEventServiceSuite(t *testing.T) {
	suite.Run(t, new(EventServiceSuite))
}

func (s *EventServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = repository.NewMemory()
	s.views = staticViews{}
	stats := NewStatsAssembler(s.views, s.store, testOptions()...)
	s.service = NewEventService(s.store, stats, testOptions()...)
	for _, id := range []string{"owner", "other"} {
		s.Require().NoError(s.store.CreateUser(s.ctx, &model.User{ID: id, Name: id, Email: id + "@example.com", CreatedAt: testNow}))
	}
}

func newEventRequest(at time.Time) model.NewEventRequest {
	return model.NewEventRequest{
		Title:       "Jazz in the park",
		Annotation:  "An open-air evening of live jazz",
		Description: "Bring a blanket; the quartet starts at sunset and plays until late.",
		EventDate:   model.DateTime(at),
	}
}

func (s *EventServiceSuite) createEvent() *model.EventFull {
	e, err := s.service.Create(s.ctx, "owner", newEventRequest(testNow.Add(72*time.Hour)))
	s.Require().NoError(err)
	return e
}

func (s *EventServiceSuite) publish(id string) {
	action := model.ActionPublishEvent
	_, err := s.service.UpdateByAdmin(s.ctx, id, model.UpdateEventAdminRequest{StateAction: &action})
	s.Require().NoError(err)
}

// ===== Create =====

func (s *EventServiceSuite) TestCreate() {
	s.Run("defaults to pending, moderated and unlimited", func() {
		e := s.createEvent()
		s.Equal(model.EventPending, e.State)
		s.True(e.RequestModeration)
		s.Equal(0, e.ParticipantLimit)
		s.Equal("owner", e.InitiatorID)
		s.Nil(e.PublishedOn)
		s.Equal(model.DateTime(testNow), e.CreatedOn)
	})

	s.Run("explicit limit and moderation", func() {
		in := newEventRequest(testNow.Add(72 * time.Hour))
		limit, moderation := 5, false
		in.ParticipantLimit, in.RequestModeration = &limit, &moderation
		e, err := s.service.Create(s.ctx, "owner", in)
		s.Require().NoError(err)
		s.Equal(5, e.ParticipantLimit)
		s.False(e.RequestModeration)
	})

	s.Run("validation", func() {
		cases := map[string]func(*model.NewEventRequest){
			"short title":      func(r *model.NewEventRequest) { r.Title = "ab" },
			"short annotation": func(r *model.NewEventRequest) { r.Annotation = "too short" },
			"long description": func(r *model.NewEventRequest) { r.Description = strings.Repeat("x", 7001) },
			"date too soon":    func(r *model.NewEventRequest) { r.EventDate = model.DateTime(testNow.Add(time.Hour)) },
			"missing date":     func(r *model.NewEventRequest) { r.EventDate = model.DateTime{} },
			"negative limit":   func(r *model.NewEventRequest) { n := -1; r.ParticipantLimit = &n },
		}
		for name, mutate := range cases {
			in := newEventRequest(testNow.Add(72 * time.Hour))
			mutate(&in)
			_, err := s.service.Create(s.ctx, "owner", in)
			s.Equal(apperr.KindBadRequest, apperr.KindOf(err), name)
		}
	})

	s.Run("unknown initiator", func() {
		_, err := s.service.Create(s.ctx, "ghost", newEventRequest(testNow.Add(72*time.Hour)))
		s.Equal(apperr.KindNotFound, apperr.KindOf(err))
	})
}

// ===== Lifecycle =====

func (s *EventServiceSuite) TestAdminPublishAndReject() {
	e := s.createEvent()

	s.Run("publish stamps publishedOn", func() {
		action := model.ActionPublishEvent
		got, err := s.service.UpdateByAdmin(s.ctx, e.ID, model.UpdateEventAdminRequest{StateAction: &action})
		s.Require().NoError(err)
		s.Equal(model.EventPublished, got.State)
		s.Require().NotNil(got.PublishedOn)
		s.Equal(model.DateTime(testNow), *got.PublishedOn)
	})

	s.Run("second publish is a conflict", func() {
		action := model.ActionPublishEvent
		_, err := s.service.UpdateByAdmin(s.ctx, e.ID, model.UpdateEventAdminRequest{StateAction: &action})
		s.Equal(apperr.KindConflict, apperr.KindOf(err))
	})

	s.Run("rejecting a published event is a conflict", func() {
		action := model.ActionRejectEvent
		_, err := s.service.UpdateByAdmin(s.ctx, e.ID, model.UpdateEventAdminRequest{StateAction: &action})
		s.Equal(apperr.KindConflict, apperr.KindOf(err))
	})

	s.Run("reject a pending event", func() {
		other := s.createEvent()
		action := model.ActionRejectEvent
		got, err := s.service.UpdateByAdmin(s.ctx, other.ID, model.UpdateEventAdminRequest{StateAction: &action})
		s.Require().NoError(err)
		s.Equal(model.EventCanceled, got.State)
	})

	s.Run("unknown event", func() {
		action := model.ActionRejectEvent
		_, err := s.service.UpdateByAdmin(s.ctx, "missing", model.UpdateEventAdminRequest{StateAction: &action})
		s.Equal(apperr.KindNotFound, apperr.KindOf(err))
	})
}

func (s *EventServiceSuite) TestAdminCannotShrinkLimitBelowConfirmed() {
	e := s.createEvent()
	s.publish(e.ID)
	for _, id := range []string{"p1", "p2"} {
		s.Require().NoError(s.store.CreateUser(s.ctx, &model.User{ID: id, Name: id, Email: id + "@example.com", CreatedAt: testNow}))
		s.Require().NoError(s.store.CreateRequest(s.ctx, &model.ParticipationRequest{
			ID: "req-" + id, EventID: e.ID, RequesterID: id, Status: model.RequestConfirmed, Created: testNow,
		}))
	}

	limit := 1
	_, err := s.service.UpdateByAdmin(s.ctx, e.ID, model.UpdateEventAdminRequest{
		EventPatch: model.EventPatch{ParticipantLimit: &limit},
	})
	s.Equal(apperr.KindConflict, apperr.KindOf(err))

	stored, err := s.store.GetEvent(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(0, stored.ParticipantLimit)

	limit = 2
	got, err := s.service.UpdateByAdmin(s.ctx, e.ID, model.UpdateEventAdminRequest{
		EventPatch: model.EventPatch{ParticipantLimit: &limit},
	})
	s.Require().NoError(err)
	s.Equal(2, got.ParticipantLimit)
	s.Equal(2, got.ConfirmedRequests)
}

func (s *EventServiceSuite) TestPublishTooCloseToStart() {
	in := newEventRequest(testNow.Add(3 * time.Hour))
	e, err := s.service.Create(s.ctx, "owner", in)
	s.Require().NoError(err)

	soon := model.DateTime(testNow.Add(90 * time.Minute))
	action := model.ActionPublishEvent
	_, err = s.service.UpdateByAdmin(s.ctx, e.ID, model.UpdateEventAdminRequest{
		EventPatch:  model.EventPatch{EventDate: &soon},
		StateAction: &action,
	})
	s.Require().NoError(err, "90 minutes ahead satisfies the one hour lead")

	late := s.createEvent()
	tooSoon := model.DateTime(testNow.Add(30 * time.Minute))
	_, err = s.service.UpdateByAdmin(s.ctx, late.ID, model.UpdateEventAdminRequest{
		EventPatch:  model.EventPatch{EventDate: &tooSoon},
		StateAction: &action,
	})
	s.Equal(apperr.KindBadRequest, apperr.KindOf(err))
}

func (s *EventServiceSuite) TestInitiatorUpdate() {
	e := s.createEvent()

	s.Run("cancel review then send back", func() {
		cancel := model.ActionCancelReview
		got, err := s.service.UpdateByInitiator(s.ctx, "owner", e.ID, model.UpdateEventUserRequest{StateAction: &cancel})
		s.Require().NoError(err)
		s.Equal(model.EventCanceled, got.State)

		send := model.ActionSendToReview
		title := "Jazz in the garden"
		got, err = s.service.UpdateByInitiator(s.ctx, "owner", e.ID, model.UpdateEventUserRequest{
			EventPatch:  model.EventPatch{Title: &title},
			StateAction: &send,
		})
		s.Require().NoError(err)
		s.Equal(model.EventPending, got.State)
		s.Equal(title, got.Title)
	})

	s.Run("non-initiator is forbidden", func() {
		title := "Hijacked title"
		_, err := s.service.UpdateByInitiator(s.ctx, "other", e.ID, model.UpdateEventUserRequest{
			EventPatch: model.EventPatch{Title: &title},
		})
		s.Equal(apperr.KindForbidden, apperr.KindOf(err))
	})

	s.Run("published event cannot be edited", func() {
		s.publish(e.ID)
		title := "Late change"
		_, err := s.service.UpdateByInitiator(s.ctx, "owner", e.ID, model.UpdateEventUserRequest{
			EventPatch: model.EventPatch{Title: &title},
		})
		s.Equal(apperr.KindConflict, apperr.KindOf(err))

		got, err := s.store.GetEvent(s.ctx, e.ID)
		s.Require().NoError(err)
		s.NotEqual(title, got.Title)
	})
}

// ===== Reads =====

func (s *EventServiceSuite) TestGetPublishedOnly() {
	e := s.createEvent()

	_, err := s.service.GetPublished(s.ctx, e.ID)
	s.Equal(apperr.KindNotFound, apperr.KindOf(err))

	s.publish(e.ID)
	s.views[EventURI(e.ID)] = 4
	got, err := s.service.GetPublished(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(int64(4), got.Views)
}

func (s *EventServiceSuite) TestSearchPublic() {
	first := s.createEvent()
	second := s.createEvent()
	draft := s.createEvent()
	s.publish(first.ID)
	s.publish(second.ID)
	s.views[EventURI(second.ID)] = 10
	s.views[EventURI(first.ID)] = 1

	s.Run("only published events", func() {
		got, err := s.service.SearchPublic(s.ctx, model.PublicEventParams{})
		s.Require().NoError(err)
		s.Len(got, 2)
		for _, e := range got {
			s.NotEqual(draft.ID, e.ID)
		}
	})

	s.Run("sort by views", func() {
		got, err := s.service.SearchPublic(s.ctx, model.PublicEventParams{Sort: model.SortViews})
		s.Require().NoError(err)
		s.Require().Len(got, 2)
		s.Equal(second.ID, got[0].ID)
		s.Equal(int64(10), got[0].Views)
	})

	s.Run("inverted range is rejected", func() {
		start, end := testNow.Add(time.Hour), testNow
		_, err := s.service.SearchPublic(s.ctx, model.PublicEventParams{RangeStart: &start, RangeEnd: &end})
		s.Equal(apperr.KindBadRequest, apperr.KindOf(err))
	})

	s.Run("range end filters later events", func() {
		end := testNow.Add(time.Hour)
		got, err := s.service.SearchPublic(s.ctx, model.PublicEventParams{RangeEnd: &end})
		s.Require().NoError(err)
		s.Empty(got)
	})
}

func (s *EventServiceSuite) TestInitiatorReads() {
	e := s.createEvent()

	got, err := s.service.GetByInitiator(s.ctx, "owner", e.ID)
	s.Require().NoError(err)
	s.Equal(e.ID, got.ID)

	_, err = s.service.GetByInitiator(s.ctx, "other", e.ID)
	s.Equal(apperr.KindForbidden, apperr.KindOf(err))

	list, err := s.service.ListByInitiator(s.ctx, "owner", model.Page{Size: 10})
	s.Require().NoError(err)
	s.Len(list, 1)

	_, err = s.service.ListByInitiator(s.ctx, "owner", model.Page{From: -1})
	s.Equal(apperr.KindBadRequest, apperr.KindOf(err))

	admin, err := s.service.SearchAdmin(s.ctx, model.AdminEventParams{States: []model.EventState{model.EventPending}})
	s.Require().NoError(err)
	s.Len(admin, 1)
}
