package notification

//go:generate mockgen -source=push/push.go -destination=push/mocks/mocks.go -package=mocks Sender

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"custodia/internal/geofence"
	guardianmocks "custodia/internal/guardian/mocks"
	"custodia/internal/notification/push"
	pushmocks "custodia/internal/notification/push/mocks"
	"custodia/internal/platform/metrics"
	"custodia/pkg/domain"
)

type DispatcherTestSuite struct {
	suite.Suite

	ctx        context.Context
	ctrl       *gomock.Controller
	sender     *pushmocks.MockSender
	guardians  *guardianmocks.MockStore
	store      *InMemoryStore
	dispatcher *Dispatcher
}

func TestDispatcherTestSuite(t *testing.T) {
	suite.Run(t, new(DispatcherTestSuite))
}

func (s *DispatcherTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.sender = pushmocks.NewMockSender(s.ctrl)
	s.guardians = guardianmocks.NewMockStore(s.ctrl)
	s.store = NewInMemoryStore()
	s.dispatcher = NewDispatcher(s.store, s.guardians, s.sender,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics.NewWith(prometheus.NewRegistry()),
		WithClock(s.tickingClock()),
	)
}

func (s *DispatcherTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

// tickingClock advances one second per call so record ordering is
// deterministic.
func (s *DispatcherTestSuite) tickingClock() func() time.Time {
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	var calls int
	return func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
}

func (s *DispatcherTestSuite) records(id domain.GuardianID) []Record {
	records, _, err := s.store.List(s.ctx, id, ListFilter{})
	s.Require().NoError(err)
	return records
}

func (s *DispatcherTestSuite) TestDispatch() {
	s.Run("persists record and pushes when address registered", func() {
		g := domain.NewGuardianID()
		s.guardians.EXPECT().PushAddress(gomock.Any(), g).Return("fcm-token", true, nil)
		s.sender.EXPECT().Send(gomock.Any(), "fcm-token", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, msg push.Message) error {
				s.Equal("Safe zone entered", msg.Title)
				s.Equal("zone_enter", msg.Data["type"])
				return nil
			})

		res, err := s.dispatcher.Dispatch(s.ctx, g, "Safe zone entered", "The child entered \"home\"", AdHocPayload{Cat: CategoryZoneEnter})
		s.Require().NoError(err)
		s.True(res.Pushed)
		s.Equal(CategoryZoneEnter, res.Record.Category)

		records := s.records(g)
		s.Require().Len(records, 1)
		s.Equal("The child entered \"home\"", records[0].Message)
		s.False(records[0].Read)
	})

	s.Run("no registered address skips push", func() {
		g := domain.NewGuardianID()
		s.guardians.EXPECT().PushAddress(gomock.Any(), g).Return("", false, nil)

		res, err := s.dispatcher.Dispatch(s.ctx, g, "t", "b", AdHocPayload{})
		s.Require().NoError(err)
		s.False(res.Pushed)
		s.Len(s.records(g), 1)
	})

	s.Run("unregistered address failure clears the stored address", func() {
		g := domain.NewGuardianID()
		s.guardians.EXPECT().PushAddress(gomock.Any(), g).Return("stale-token", true, nil)
		s.sender.EXPECT().Send(gomock.Any(), "stale-token", gomock.Any()).Return(push.ErrNotRegistered)
		s.guardians.EXPECT().ClearPushAddress(gomock.Any(), g, "stale-token").Return(nil)

		res, err := s.dispatcher.Dispatch(s.ctx, g, "t", "b", AdHocPayload{})
		s.Require().NoError(err)
		s.False(res.Pushed)
		// The record stands regardless of push outcome.
		s.Len(s.records(g), 1)
	})

	s.Run("transient failure keeps the address", func() {
		g := domain.NewGuardianID()
		s.guardians.EXPECT().PushAddress(gomock.Any(), g).Return("fcm-token", true, nil)
		s.sender.EXPECT().Send(gomock.Any(), "fcm-token", gomock.Any()).Return(errors.New("transport unavailable"))
		// No ClearPushAddress expectation: the address must survive.

		res, err := s.dispatcher.Dispatch(s.ctx, g, "t", "b", AdHocPayload{})
		s.Require().NoError(err)
		s.False(res.Pushed)
		s.Len(s.records(g), 1)
	})

	s.Run("address lookup failure still persists the record", func() {
		g := domain.NewGuardianID()
		s.guardians.EXPECT().PushAddress(gomock.Any(), g).Return("", false, errors.New("store down"))

		res, err := s.dispatcher.Dispatch(s.ctx, g, "t", "b", AdHocPayload{})
		s.Require().NoError(err)
		s.False(res.Pushed)
		s.Len(s.records(g), 1)
	})
}

func (s *DispatcherTestSuite) TestDispatchDistress() {
	child := domain.NewChildID()

	s.Run("fans out to every linked guardian", func() {
		g1, g2 := domain.NewGuardianID(), domain.NewGuardianID()
		s.guardians.EXPECT().GuardiansOf(gomock.Any(), child).Return([]domain.GuardianID{g1, g2}, nil)
		s.guardians.EXPECT().PushAddress(gomock.Any(), g1).Return("token-1", true, nil)
		s.guardians.EXPECT().PushAddress(gomock.Any(), g2).Return("token-2", true, nil)
		s.sender.EXPECT().Send(gomock.Any(), "token-1", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, msg push.Message) error {
				s.Equal("distress", msg.Data["type"])
				s.Equal("-17.39", msg.Data["lat"])
				return nil
			})
		s.sender.EXPECT().Send(gomock.Any(), "token-2", gomock.Any()).Return(nil)

		res, err := s.dispatcher.DispatchDistress(s.ctx, child, DistressPayload{
			ChildID: child, Lat: -17.39, Lng: -66.15, LocationKnown: true,
		})
		s.Require().NoError(err)
		s.Equal(2, res.Sent)
		s.Len(s.records(g1), 1)
		s.Len(s.records(g2), 1)
	})

	s.Run("push failures do not reduce the fan-out count", func() {
		g1, g2 := domain.NewGuardianID(), domain.NewGuardianID()
		s.guardians.EXPECT().GuardiansOf(gomock.Any(), child).Return([]domain.GuardianID{g1, g2}, nil)
		s.guardians.EXPECT().PushAddress(gomock.Any(), g1).Return("token-1", true, nil)
		s.guardians.EXPECT().PushAddress(gomock.Any(), g2).Return("token-2", true, nil)
		s.sender.EXPECT().Send(gomock.Any(), "token-1", gomock.Any()).Return(errors.New("down"))
		s.sender.EXPECT().Send(gomock.Any(), "token-2", gomock.Any()).Return(errors.New("down"))

		res, err := s.dispatcher.DispatchDistress(s.ctx, child, DistressPayload{ChildID: child, LocationKnown: true})
		s.Require().NoError(err)
		s.Equal(2, res.Sent, "records persisted for both guardians")
	})

	s.Run("zero linked guardians reports zero sent", func() {
		s.guardians.EXPECT().GuardiansOf(gomock.Any(), child).Return(nil, nil)

		res, err := s.dispatcher.DispatchDistress(s.ctx, child, DistressPayload{})
		s.Require().NoError(err)
		s.Zero(res.Sent)
	})

	s.Run("unknown location carries the unavailable marker", func() {
		g := domain.NewGuardianID()
		s.guardians.EXPECT().GuardiansOf(gomock.Any(), child).Return([]domain.GuardianID{g}, nil)
		s.guardians.EXPECT().PushAddress(gomock.Any(), g).Return("token", true, nil)
		s.sender.EXPECT().Send(gomock.Any(), "token", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, msg push.Message) error {
				s.Equal("unavailable", msg.Data["location"])
				s.NotContains(msg.Data, "lat")
				return nil
			})

		_, err := s.dispatcher.DispatchDistress(s.ctx, child, DistressPayload{ChildID: child, LocationKnown: false})
		s.Require().NoError(err)
	})
}

func (s *DispatcherTestSuite) TestDispatchTransition() {
	child := domain.NewChildID()
	zoneID := domain.NewZoneID()
	g := domain.NewGuardianID()

	s.Run("enter", func() {
		s.guardians.EXPECT().GuardiansOf(gomock.Any(), child).Return([]domain.GuardianID{g}, nil)
		s.guardians.EXPECT().PushAddress(gomock.Any(), g).Return("token", true, nil)
		s.sender.EXPECT().Send(gomock.Any(), "token", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, msg push.Message) error {
				s.Equal("zone_enter", msg.Data["type"])
				s.Equal("home", msg.Data["zoneName"])
				s.Equal(zoneID.String(), msg.Data["zoneId"])
				return nil
			})

		err := s.dispatcher.DispatchTransition(s.ctx, geofence.TransitionEvent{
			ChildID: child, ZoneID: zoneID, ZoneName: "home", Kind: geofence.TransitionEnter,
		})
		s.Require().NoError(err)

		records := s.records(g)
		s.Require().Len(records, 1)
		s.Equal(CategoryZoneEnter, records[0].Category)
	})

	s.Run("exit", func() {
		s.guardians.EXPECT().GuardiansOf(gomock.Any(), child).Return([]domain.GuardianID{g}, nil)
		s.guardians.EXPECT().PushAddress(gomock.Any(), g).Return("token", true, nil)
		s.sender.EXPECT().Send(gomock.Any(), "token", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, msg push.Message) error {
				s.Equal("zone_exit", msg.Data["type"])
				return nil
			})

		err := s.dispatcher.DispatchTransition(s.ctx, geofence.TransitionEvent{
			ChildID: child, ZoneID: zoneID, ZoneName: "home", Kind: geofence.TransitionExit,
		})
		s.Require().NoError(err)

		records := s.records(g)
		s.Require().Len(records, 2)
		s.Equal(CategoryZoneExit, records[0].Category, "newest first")
	})
}
