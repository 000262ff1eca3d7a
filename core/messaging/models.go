package messaging

import (
	"time"

	"github.com/trezcool/learntrack/core"
	"github.com/trezcool/learntrack/core/user"
)

type Message struct {
	ID         int       `json:"id"`
	SenderID   int       `json:"sender_id"`
	ReceiverID int       `json:"receiver_id"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"` // UTC
	IsRead     bool      `json:"is_read"`
}

// Contact is a user the actor may message, with the count of messages from
// them the actor has not read yet.
type Contact struct {
	ID     int       `json:"id"`
	Name   string    `json:"name"`
	Role   user.Role `json:"role"`
	Unread int       `json:"unread"`
}

// SendInput contains information needed to send a direct message.
type SendInput struct {
	ReceiverID int    `json:"receiver_id" validate:"required"`
	Content    string `json:"content" validate:"required,max=2000"`
}

func (si *SendInput) Validate() error {
	si.Content = core.CleanString(si.Content)
	return core.Validate.Struct(si)
}
