package notification

import "time"

// Type qualifies a notification for presentation purposes.
type Type string

const TypeInfo Type = "info"

// Notification is immutable once created, except for the IsRead flag.
type Notification struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	IsRead    bool      `json:"is_read"`
	Timestamp time.Time `json:"timestamp"` // UTC
	Type      Type      `json:"type"`
}

// New builds an unsaved info notification for the given recipient.
func New(userID int, message, link string) Notification {
	return Notification{
		UserID:    userID,
		Message:   message,
		Link:      link,
		Timestamp: time.Now().UTC(),
		Type:      TypeInfo,
	}
}

// QueryFilter selects notifications.
type QueryFilter struct {
	UserID int
	IsRead *bool
	Limit  int
}
