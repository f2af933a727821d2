package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// ChatMessage is a message posted in an event's chat.
type ChatMessage struct {
	ID            int64     `db:"id" json:"id"`
	EventID       int64     `db:"event_id" json:"event_id"`
	UserID        int64     `db:"user_id" json:"user_id"`
	Message       string    `db:"message" json:"message"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	IsDeleted     bool      `db:"is_deleted" json:"is_deleted"`
	IsHighlighted bool      `db:"is_highlighted" json:"is_highlighted"`
}

// ChatMessageWithAuthor joins a message with the fields of its author needed for display.
type ChatMessageWithAuthor struct {
	ChatMessage
	Username    string `db:"username"`
	DisplayName string `db:"display_name"`
}

// AuthorName returns the display name, falling back to the username.
func (m ChatMessageWithAuthor) AuthorName() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Username
}

// MessageID identifies a message on the wire. The widget treats it as opaque;
// JSON numbers and strings are both accepted.
type MessageID string

var errInvalidMessageID = errors.New("invalid message id")

// MarshalJSON emits numeric ids as JSON numbers and everything else as strings.
func (id MessageID) MarshalJSON() ([]byte, error) {
	if id != "" && json.Valid([]byte(id)) && isDigits(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a JSON number or string.
func (id *MessageID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = MessageID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errInvalidMessageID
	}
	*id = MessageID(n.String())
	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MessageView is the per-viewer representation of a message returned by the list endpoint.
type MessageView struct {
	ID            MessageID `json:"id"`
	User          string    `json:"user"`
	DisplayName   string    `json:"display_name"`
	Message       string    `json:"message"`
	CreatedAt     string    `json:"created_at"`
	IsHighlighted bool      `json:"is_highlighted"`
	CanDelete     bool      `json:"can_delete"`
}

// MessageList is the body of GET /chat/{event}/messages/.
type MessageList struct {
	Messages []MessageView `json:"messages"`
}

// SendResult is the body of POST /chat/{event}/send/.
type SendResult struct {
	Success bool                `json:"success"`
	Message *MessageView        `json:"message,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// ActionResult is the body of the delete and highlight endpoints.
type ActionResult struct {
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
	IsHighlighted *bool  `json:"is_highlighted,omitempty"`
}
