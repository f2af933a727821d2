package models

// User is an account as seen by the chat.
type User struct {
	ID          int64  `db:"id" json:"id"`
	Username    string `db:"username" json:"username"`
	DisplayName string `db:"display_name" json:"display_name"`
	IsStaff     bool   `db:"is_staff" json:"is_staff"`
}

// CanDeleteMessage reports whether viewer may delete msg in event.
// Staff, the author and the event creator may; a nil viewer may not.
func CanDeleteMessage(viewer *User, msg ChatMessage, event Event) bool {
	if viewer == nil {
		return false
	}
	if viewer.IsStaff {
		return true
	}
	if msg.UserID == viewer.ID {
		return true
	}
	return event.CreatorID == viewer.ID
}
