package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/learntrack/core/notification"
	"github.com/trezcool/learntrack/core/user"
	dummydb "github.com/trezcool/learntrack/storage/database/dummy"
	testutil "github.com/trezcool/learntrack/tests"
)

func setup(t *testing.T) (notification.Repository, notification.Service, user.User, user.User) {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)

	usrRepo := dummydb.NewUserRepository(db)
	repo := dummydb.NewNotificationRepository(db)
	hero := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, nil)
	king := testutil.CreateUser(t, usrRepo, "King", "king@test.cd", "", user.RoleStudent, nil)
	return repo, notification.NewService(repo), hero, king
}

func TestService_RecentUnread(t *testing.T) {
	repo, svc, hero, king := setup(t)
	ctx := context.Background()

	notifs := []notification.Notification{
		notification.New(hero.ID, "first", "/dashboard"),
		notification.New(hero.ID, "second", "/assignments"),
		notification.New(king.ID, "other", "/dashboard"),
	}
	notifs[0].Timestamp = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.CreateNotifications(ctx, notifs))

	t.Run("recent is newest first and scoped to the actor", func(t *testing.T) {
		recent, err := svc.Recent(ctx, hero, 0)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, "second", recent[0].Message)
		assert.Equal(t, "first", recent[1].Message)
	})

	t.Run("limit", func(t *testing.T) {
		recent, err := svc.Recent(ctx, hero, 1)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, "second", recent[0].Message)
	})

	t.Run("unread", func(t *testing.T) {
		unread, err := svc.Unread(ctx, hero)
		require.NoError(t, err)
		assert.Len(t, unread, 2)
	})
}

func TestService_MarkRead(t *testing.T) {
	repo, svc, hero, king := setup(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateNotifications(ctx, []notification.Notification{
		notification.New(hero.ID, "for hero", "/dashboard"),
	}))
	notifs, err := svc.Recent(ctx, hero, 0)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	id := notifs[0].ID

	t.Run("unknown id", func(t *testing.T) {
		assert.ErrorIs(t, svc.MarkRead(ctx, hero, 666), notification.ErrNotFound)
	})

	t.Run("foreign notifications are invisible", func(t *testing.T) {
		assert.ErrorIs(t, svc.MarkRead(ctx, king, id), notification.ErrNotFound)
	})

	t.Run("ok", func(t *testing.T) {
		require.NoError(t, svc.MarkRead(ctx, hero, id))

		unread, err := svc.Unread(ctx, hero)
		require.NoError(t, err)
		assert.Empty(t, unread)
	})
}
