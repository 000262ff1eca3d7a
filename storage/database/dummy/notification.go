package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/learntrack/core"
	"github.com/trezcool/learntrack/core/notification"
)

type notificationRepository struct {
	db *notificationTable
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db.notif}
}

func (repo *notificationRepository) CreateNotifications(ctx context.Context, notifs []notification.Notification, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, n := range notifs {
		n := n
		repo.db.pk++
		n.ID = repo.db.pk
		repo.db.table[n.ID] = &n
	}
	return nil
}

func (repo *notificationRepository) GetNotification(ctx context.Context, id int, exec ...core.DBExecutor) (notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if n, ok := repo.db.table[id]; ok {
		return *n, nil
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (repo *notificationRepository) QueryNotifications(ctx context.Context, filter notification.QueryFilter, exec ...core.DBExecutor) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	notifs := make([]notification.Notification, 0)
	for _, n := range repo.db.table {
		if filter.UserID != 0 && n.UserID != filter.UserID {
			continue
		}
		if filter.IsRead != nil && n.IsRead != *filter.IsRead {
			continue
		}
		notifs = append(notifs, *n)
	}
	sort.Slice(notifs, func(i, j int) bool { return notifs[i].Timestamp.After(notifs[j].Timestamp) })
	if filter.Limit > 0 && len(notifs) > filter.Limit {
		notifs = notifs[:filter.Limit]
	}
	return notifs, nil
}

func (repo *notificationRepository) MarkNotificationRead(ctx context.Context, id int, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if n, ok := repo.db.table[id]; ok {
		n.IsRead = true
	}
	return nil
}
