package pgrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/learntrack/core"
	"github.com/trezcool/learntrack/core/notification"
)

type notificationRepository struct {
	exec core.DBExecutor
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(exec core.DBExecutor) *notificationRepository {
	return &notificationRepository{exec: exec}
}

type notificationRow struct {
	ID        int            `db:"id"`
	UserID    int            `db:"user_id"`
	Message   string         `db:"message"`
	Link      sql.NullString `db:"link"`
	IsRead    bool           `db:"is_read"`
	Timestamp time.Time      `db:"timestamp"`
	Type      string         `db:"type"`
}

func (r notificationRow) notification() notification.Notification {
	return notification.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Message:   r.Message,
		Link:      r.Link.String,
		IsRead:    r.IsRead,
		Timestamp: r.Timestamp,
		Type:      notification.Type(r.Type),
	}
}

func (repo notificationRepository) CreateNotifications(ctx context.Context, notifs []notification.Notification, exec ...core.DBExecutor) error {
	if len(notifs) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO notifications (user_id, message, link, timestamp, type) VALUES `)
	args := make([]interface{}, 0, len(notifs)*5)
	for i, n := range notifs {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 5
		sb.WriteString("($" + strconv.Itoa(base+1) + ", $" + strconv.Itoa(base+2) + ", $" + strconv.Itoa(base+3) +
			", $" + strconv.Itoa(base+4) + ", $" + strconv.Itoa(base+5) + ")")
		args = append(args, n.UserID, n.Message, nullString(n.Link), n.Timestamp.UTC(), string(n.Type))
	}

	_, err := getExec(repo.exec, exec).ExecContext(ctx, sb.String(), args...)
	return errors.Wrap(err, "inserting notifications")
}

func (repo notificationRepository) GetNotification(ctx context.Context, id int, exec ...core.DBExecutor) (notification.Notification, error) {
	q := `
SELECT id, user_id, message, link, is_read, timestamp, type
FROM notifications WHERE id = $1`
	var row notificationRow
	if err := getExec(repo.exec, exec).GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return notification.Notification{}, notification.ErrNotFound
		}
		return notification.Notification{}, errors.Wrap(err, "getting notification")
	}
	return row.notification(), nil
}

func (repo notificationRepository) QueryNotifications(ctx context.Context, filter notification.QueryFilter, exec ...core.DBExecutor) ([]notification.Notification, error) {
	q := `
SELECT id, user_id, message, link, is_read, timestamp, type
FROM notifications`

	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.UserID != 0 {
		conds = append(conds, `user_id = `+arg(filter.UserID))
	}
	if filter.IsRead != nil {
		conds = append(conds, `is_read = `+arg(*filter.IsRead))
	}
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY timestamp DESC`
	if filter.Limit > 0 {
		q += ` LIMIT ` + arg(filter.Limit)
	}

	var rows []notificationRow
	if err := getExec(repo.exec, exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	notifs := make([]notification.Notification, 0, len(rows))
	for _, r := range rows {
		notifs = append(notifs, r.notification())
	}
	return notifs, nil
}

func (repo notificationRepository) MarkNotificationRead(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE id = $1`, id)
	return errors.Wrap(err, "marking notification read")
}
