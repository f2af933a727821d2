package models

import "time"

// Event statuses.
const (
	EventStatusDraft    = "draft"
	EventStatusLive     = "live"
	EventStatusFinished = "finished"
)

// Event is the occasion a chat belongs to.
type Event struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	CreatorID int64     `db:"creator_id" json:"creator_id"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IsLive reports whether messages may be posted.
func (e Event) IsLive() bool {
	return e.Status == EventStatusLive
}
