package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"event-chat/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// ChatMessageRepository defines persistence for event chat messages.
type ChatMessageRepository interface {
	ListVisible(ctx context.Context, eventID int64, limit int) ([]models.ChatMessageWithAuthor, error)
	Create(ctx context.Context, eventID int64, userID int64, text string) (models.ChatMessage, error)
	Get(ctx context.Context, messageID int64) (models.ChatMessage, error)
	SoftDelete(ctx context.Context, messageID int64) error
	ToggleHighlight(ctx context.Context, messageID int64) (bool, error)
}

// ChatMessageRepo is a sqlx-backed repository.
type ChatMessageRepo struct {
	db *sqlx.DB
}

// NewChatMessageRepo constructs ChatMessageRepo.
func NewChatMessageRepo(db *sqlx.DB) *ChatMessageRepo {
	return &ChatMessageRepo{db: db}
}

// ListVisible returns the first limit non-deleted messages of an event, oldest first,
// joined with their authors.
func (r *ChatMessageRepo) ListVisible(ctx context.Context, eventID int64, limit int) ([]models.ChatMessageWithAuthor, error) {
	query := `SELECT m.id, m.event_id, m.user_id, m.message, m.created_at, m.is_deleted, m.is_highlighted,
            u.username, u.display_name
        FROM chat_messages m
        JOIN users u ON u.id = m.user_id
        WHERE m.event_id=$1 AND m.is_deleted = FALSE
        ORDER BY m.created_at ASC, m.id ASC
        LIMIT $2`
	var msgs []models.ChatMessageWithAuthor
	err := r.db.SelectContext(ctx, &msgs, query, eventID, limit)
	return msgs, err
}

// Create stores a new message.
func (r *ChatMessageRepo) Create(ctx context.Context, eventID int64, userID int64, text string) (models.ChatMessage, error) {
	var msg models.ChatMessage
	err := r.db.QueryRowxContext(ctx, `INSERT INTO chat_messages (event_id, user_id, message) VALUES ($1, $2, $3)
        RETURNING id, event_id, user_id, message, created_at, is_deleted, is_highlighted`, eventID, userID, text).
		StructScan(&msg)
	return msg, err
}

// Get retrieves a single message, deleted or not.
func (r *ChatMessageRepo) Get(ctx context.Context, messageID int64) (models.ChatMessage, error) {
	var msg models.ChatMessage
	err := r.db.GetContext(ctx, &msg, `SELECT id, event_id, user_id, message, created_at, is_deleted, is_highlighted FROM chat_messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatMessage{}, ErrMessageNotFound
	}
	return msg, err
}

// SoftDelete hides a message from every viewer.
func (r *ChatMessageRepo) SoftDelete(ctx context.Context, messageID int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE chat_messages SET is_deleted = TRUE WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// ToggleHighlight flips the highlight flag and returns its new value.
func (r *ChatMessageRepo) ToggleHighlight(ctx context.Context, messageID int64) (bool, error) {
	var highlighted bool
	err := r.db.GetContext(ctx, &highlighted, `UPDATE chat_messages SET is_highlighted = NOT is_highlighted WHERE id=$1 RETURNING is_highlighted`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrMessageNotFound
	}
	return highlighted, err
}
