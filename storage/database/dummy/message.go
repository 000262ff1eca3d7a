package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/learntrack/core"
	"github.com/trezcool/learntrack/core/messaging"
	"github.com/trezcool/learntrack/core/user"
)

type messageRepository struct {
	db *messageTable
}

var (
	_ messaging.Repository = (*messageRepository)(nil) // interface compliance check
	_ user.MessageDeleter  = (*messageRepository)(nil)
)

func NewMessageRepository(db *DB) *messageRepository {
	return &messageRepository{db: db.message}
}

func (repo *messageRepository) CreateMessage(ctx context.Context, msg messaging.Message, exec ...core.DBExecutor) (messaging.Message, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pk++
	msg.ID = repo.db.pk
	repo.db.table[msg.ID] = &msg
	return msg, nil
}

func (repo *messageRepository) QueryConversation(ctx context.Context, userID, otherID int, exec ...core.DBExecutor) ([]messaging.Message, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	msgs := make([]messaging.Message, 0)
	for _, msg := range repo.db.table {
		if (msg.SenderID == userID && msg.ReceiverID == otherID) ||
			(msg.SenderID == otherID && msg.ReceiverID == userID) {
			msgs = append(msgs, *msg)
		}
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].Timestamp.Before(msgs[j].Timestamp) })
	return msgs, nil
}

func (repo *messageRepository) CountUnread(ctx context.Context, receiverID, senderID int, exec ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	count := 0
	for _, msg := range repo.db.table {
		if msg.ReceiverID == receiverID && msg.SenderID == senderID && !msg.IsRead {
			count++
		}
	}
	return count, nil
}

func (repo *messageRepository) MarkConversationRead(ctx context.Context, receiverID, senderID int, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, msg := range repo.db.table {
		if msg.ReceiverID == receiverID && msg.SenderID == senderID {
			msg.IsRead = true
		}
	}
	return nil
}

func (repo *messageRepository) DeleteUserMessages(ctx context.Context, userID int, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, msg := range repo.db.table {
		if msg.SenderID == userID || msg.ReceiverID == userID {
			delete(repo.db.table, id)
		}
	}
	return nil
}
