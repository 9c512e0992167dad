package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Message is one recorded inbound message.
type Message struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Text      string    `db:"text"`
	CreatedAt time.Time `db:"created_at"`
}

// Messages is the repository for the messages table.
type Messages struct {
	db *sqlx.DB
}

// NewMessages constructs the messages repository.
func NewMessages(db *sqlx.DB) *Messages {
	return &Messages{db: db}
}

// Add records an inbound message for audit/export purposes.
func (r *Messages) Add(ctx context.Context, userID int64, text string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (user_id, text, created_at) VALUES ($1, $2, NOW())`,
		userID, text)
	if err != nil {
		return fmt.Errorf("add message for user %d: %w", userID, err)
	}
	return nil
}

// ByUser returns every recorded message of one user, oldest first.
func (r *Messages) ByUser(ctx context.Context, userID int64) ([]Message, error) {
	var out []Message
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, user_id, text, created_at FROM messages WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("messages for user %d: %w", userID, err)
	}
	return out, nil
}
