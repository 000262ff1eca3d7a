package notification

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/learntrack/core"
	"github.com/trezcool/learntrack/core/user"
)

// ErrNotFound is returned both when a notification does not exist and when it
// belongs to someone else, so that recipients cannot probe for foreign IDs.
var ErrNotFound = errors.New("notification not found")

type (
	Repository interface {
		// CreateNotifications persists a batch of notifications, typically
		// inside the transaction of the domain event that produced them.
		CreateNotifications(ctx context.Context, notifs []Notification, exec ...core.DBExecutor) error
		GetNotification(ctx context.Context, id int, exec ...core.DBExecutor) (Notification, error)
		QueryNotifications(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Notification, error)
		MarkNotificationRead(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service interface {
		Recent(ctx context.Context, actor user.User, limit int) ([]Notification, error)
		Unread(ctx context.Context, actor user.User) ([]Notification, error)
		MarkRead(ctx context.Context, actor user.User, id int) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Recent returns the latest notifications for the actor, newest first.
func (svc *service) Recent(ctx context.Context, actor user.User, limit int) ([]Notification, error) {
	return svc.repo.QueryNotifications(ctx, QueryFilter{UserID: actor.ID, Limit: limit})
}

func (svc *service) Unread(ctx context.Context, actor user.User) ([]Notification, error) {
	isRead := false
	return svc.repo.QueryNotifications(ctx, QueryFilter{UserID: actor.ID, IsRead: &isRead})
}

// MarkRead flips the read flag of one of the actor's own notifications.
func (svc *service) MarkRead(ctx context.Context, actor user.User, id int) error {
	notif, err := svc.repo.GetNotification(ctx, id)
	if err != nil {
		return err
	}
	if notif.UserID != actor.ID {
		return ErrNotFound
	}
	return svc.repo.MarkNotificationRead(ctx, id)
}
