package notification

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

type ServiceTestSuite struct {
	suite.Suite

	ctx      context.Context
	store    *InMemoryStore
	service  *Service
	guardian domain.GuardianID
	other    domain.GuardianID
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
	svc, err := NewService(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
	s.service = svc
	s.guardian = domain.NewGuardianID()
	s.other = domain.NewGuardianID()
}

func (s *ServiceTestSuite) seed(recipient domain.GuardianID, category Category, read bool, age time.Duration) Record {
	rec := Record{
		ID:                  domain.NewNotificationID(),
		RecipientGuardianID: recipient,
		Message:             "msg",
		Category:            category,
		Read:                read,
		CreatedAt:           time.Now().Add(-age),
	}
	s.Require().NoError(s.store.Create(s.ctx, rec))
	return rec
}

func (s *ServiceTestSuite) TestList() {
	s.Run("returns newest first with totals", func() {
		old := s.seed(s.guardian, CategoryZoneEnter, true, 2*time.Hour)
		recent := s.seed(s.guardian, CategoryDistress, false, time.Minute)
		s.seed(s.other, CategoryInfo, false, time.Minute)

		res, err := s.service.List(s.ctx, s.guardian, ListFilter{})
		s.Require().NoError(err)
		s.Equal(2, res.Total)
		s.Equal(1, res.UnreadCount)
		s.Require().Len(res.Notifications, 2)
		s.Equal(recent.ID, res.Notifications[0].ID)
		s.Equal(old.ID, res.Notifications[1].ID)
	})

	s.Run("filters by category and read state", func() {
		s.seed(s.guardian, CategoryZoneEnter, false, time.Minute)
		s.seed(s.guardian, CategoryZoneExit, true, time.Minute)
		s.seed(s.guardian, CategoryZoneExit, false, time.Minute)

		cat := CategoryZoneExit
		unread := false
		res, err := s.service.List(s.ctx, s.guardian, ListFilter{Category: &cat, Read: &unread})
		s.Require().NoError(err)
		s.Equal(1, res.Total)
		s.Require().Len(res.Notifications, 1)
		s.Equal(CategoryZoneExit, res.Notifications[0].Category)
		s.False(res.Notifications[0].Read)
	})

	s.Run("pages with offset and limit", func() {
		for i := 0; i < 5; i++ {
			s.seed(s.guardian, CategoryInfo, false, time.Duration(i)*time.Minute)
		}

		res, err := s.service.List(s.ctx, s.guardian, ListFilter{Limit: 2, Offset: 2})
		s.Require().NoError(err)
		s.Equal(5, res.Total)
		s.Len(res.Notifications, 2)
	})
}

func (s *ServiceTestSuite) TestMarkRead() {
	s.Run("marks owned notifications", func() {
		a := s.seed(s.guardian, CategoryZoneEnter, false, time.Minute)
		b := s.seed(s.guardian, CategoryZoneExit, false, time.Minute)

		updated, err := s.service.MarkRead(s.ctx, s.guardian, []domain.NotificationID{a.ID, b.ID})
		s.Require().NoError(err)
		s.Equal(2, updated)

		count, err := s.service.UnreadCount(s.ctx, s.guardian)
		s.Require().NoError(err)
		s.Zero(count)
	})

	s.Run("rejects foreign ids wholesale", func() {
		mine := s.seed(s.guardian, CategoryInfo, false, time.Minute)
		theirs := s.seed(s.other, CategoryInfo, false, time.Minute)

		_, err := s.service.MarkRead(s.ctx, s.guardian, []domain.NotificationID{mine.ID, theirs.ID})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		// Nothing changed, not even the owned half of the batch.
		count, err := s.service.UnreadCount(s.ctx, s.guardian)
		s.Require().NoError(err)
		s.Equal(1, count)
	})

	s.Run("rejects empty id list", func() {
		_, err := s.service.MarkRead(s.ctx, s.guardian, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *ServiceTestSuite) TestMarkAllRead() {
	s.seed(s.guardian, CategoryZoneEnter, false, time.Minute)
	s.seed(s.guardian, CategoryZoneExit, false, time.Minute)
	s.seed(s.other, CategoryInfo, false, time.Minute)

	updated, err := s.service.MarkAllRead(s.ctx, s.guardian)
	s.Require().NoError(err)
	s.Equal(2, updated)

	count, err := s.service.UnreadCount(s.ctx, s.other)
	s.Require().NoError(err)
	s.Equal(1, count, "other guardians' notifications untouched")
}

func (s *ServiceTestSuite) TestDelete() {
	s.Run("deletes owned notifications", func() {
		rec := s.seed(s.guardian, CategoryInfo, true, time.Minute)

		deleted, err := s.service.Delete(s.ctx, s.guardian, []domain.NotificationID{rec.ID})
		s.Require().NoError(err)
		s.Equal(1, deleted)

		res, err := s.service.List(s.ctx, s.guardian, ListFilter{})
		s.Require().NoError(err)
		s.Zero(res.Total)
	})

	s.Run("rejects foreign ids", func() {
		theirs := s.seed(s.other, CategoryInfo, false, time.Minute)

		_, err := s.service.Delete(s.ctx, s.guardian, []domain.NotificationID{theirs.ID})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ServiceTestSuite) TestPurgeRead() {
	s.seed(s.guardian, CategoryZoneEnter, true, 40*24*time.Hour)
	kept := s.seed(s.guardian, CategoryZoneExit, true, time.Hour)
	unreadOld := s.seed(s.guardian, CategoryDistress, false, 40*24*time.Hour)

	deleted, err := s.service.PurgeRead(s.ctx, 30*24*time.Hour)
	s.Require().NoError(err)
	s.Equal(1, deleted)

	res, err := s.service.List(s.ctx, s.guardian, ListFilter{})
	s.Require().NoError(err)
	s.Equal(2, res.Total)
	ids := []domain.NotificationID{res.Notifications[0].ID, res.Notifications[1].ID}
	s.Contains(ids, kept.ID)
	s.Contains(ids, unreadOld.ID, "unread notifications survive the purge regardless of age")
}
