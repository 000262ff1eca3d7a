package pgrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/learntrack/core"
	"github.com/trezcool/learntrack/core/messaging"
	"github.com/trezcool/learntrack/core/user"
)

type messageRepository struct {
	exec core.DBExecutor
}

var (
	_ messaging.Repository = (*messageRepository)(nil) // interface compliance check
	_ user.MessageDeleter  = (*messageRepository)(nil)
)

func NewMessageRepository(exec core.DBExecutor) *messageRepository {
	return &messageRepository{exec: exec}
}

type messageRow struct {
	ID         int       `db:"id"`
	SenderID   int       `db:"sender_id"`
	ReceiverID int       `db:"receiver_id"`
	Content    string    `db:"content"`
	Timestamp  time.Time `db:"timestamp"`
	IsRead     bool      `db:"is_read"`
}

func (r messageRow) message() messaging.Message {
	return messaging.Message{
		ID:         r.ID,
		SenderID:   r.SenderID,
		ReceiverID: r.ReceiverID,
		Content:    r.Content,
		Timestamp:  r.Timestamp,
		IsRead:     r.IsRead,
	}
}

func (repo messageRepository) CreateMessage(ctx context.Context, msg messaging.Message, exec ...core.DBExecutor) (messaging.Message, error) {
	q := `
INSERT INTO messages (sender_id, receiver_id, content, timestamp, is_read)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`
	err := getExec(repo.exec, exec).GetContext(ctx, &msg.ID, q,
		msg.SenderID, msg.ReceiverID, msg.Content, msg.Timestamp.UTC(), msg.IsRead)
	if err != nil {
		return messaging.Message{}, errors.Wrap(err, "inserting message")
	}
	return msg, nil
}

func (repo messageRepository) QueryConversation(ctx context.Context, userID, otherID int, exec ...core.DBExecutor) ([]messaging.Message, error) {
	q := `
SELECT id, sender_id, receiver_id, content, timestamp, is_read
FROM messages
WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
ORDER BY timestamp ASC`
	var rows []messageRow
	if err := getExec(repo.exec, exec).SelectContext(ctx, &rows, q, userID, otherID); err != nil {
		return nil, errors.Wrap(err, "querying conversation")
	}
	msgs := make([]messaging.Message, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, r.message())
	}
	return msgs, nil
}

func (repo messageRepository) CountUnread(ctx context.Context, receiverID, senderID int, exec ...core.DBExecutor) (int, error) {
	q := `SELECT count(*) FROM messages WHERE receiver_id = $1 AND sender_id = $2 AND NOT is_read`
	var count int
	if err := getExec(repo.exec, exec).GetContext(ctx, &count, q, receiverID, senderID); err != nil {
		return 0, errors.Wrap(err, "counting unread messages")
	}
	return count, nil
}

func (repo messageRepository) MarkConversationRead(ctx context.Context, receiverID, senderID int, exec ...core.DBExecutor) error {
	q := `UPDATE messages SET is_read = true WHERE receiver_id = $1 AND sender_id = $2 AND NOT is_read`
	_, err := getExec(repo.exec, exec).ExecContext(ctx, q, receiverID, senderID)
	return errors.Wrap(err, "marking conversation read")
}

func (repo messageRepository) DeleteUserMessages(ctx context.Context, userID int, exec ...core.DBExecutor) error {
	q := `DELETE FROM messages WHERE sender_id = $1 OR receiver_id = $1`
	_, err := getExec(repo.exec, exec).ExecContext(ctx, q, userID)
	return errors.Wrap(err, "deleting user messages")
}
