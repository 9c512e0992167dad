// Package storage provides sqlx-backed repositories for bot users and
// recorded messages.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/contentbot/core/logger"
	"log/slog"
)

// Roles assignable to users.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("storage: user not found")

// User is a bot user as persisted in the users table.
type User struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Lang      string    `db:"lang"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// Users is the repository for the users table.
type Users struct {
	db *sqlx.DB
}

// NewUsers constructs the users repository.
func NewUsers(db *sqlx.DB) *Users {
	return &Users{db: db}
}

// Get returns the user with the given Telegram ID.
func (r *Users) Get(ctx context.Context, id int64) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u,
		`SELECT id, name, first_name, last_name, lang, role, created_at FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &u, nil
}

// Upsert inserts the user or refreshes name fields on conflict. The role is
// only overwritten when a non-empty role is provided.
func (r *Users) Upsert(ctx context.Context, u *User) error {
	if u.Lang == "" {
		u.Lang = "en"
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, first_name, last_name, lang, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			lang = EXCLUDED.lang`,
		u.ID, u.Name, u.FirstName, u.LastName, u.Lang, u.Role)
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", u.ID, err)
	}
	return nil
}

// SetRole updates the role of an existing user, inserting a stub row when
// the user has never talked to the bot.
func (r *Users) SetRole(ctx context.Context, id int64, name, role string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, lang, role, created_at)
		VALUES ($1, $2, 'en', $3, NOW())
		ON CONFLICT (id) DO UPDATE SET role = EXCLUDED.role, name = EXCLUDED.name`,
		id, name, role)
	if err != nil {
		return fmt.Errorf("set role for user %d: %w", id, err)
	}
	logger.SVCUsers.InfoContext(ctx, "role updated",
		slog.String("event", "user.role"),
		slog.Int64("user_id", id),
		slog.String("role", role),
	)
	return nil
}

// EnsureAdmin grants the admin role without touching name fields, inserting
// a stub row when the user has never talked to the bot. Used at startup for
// the admin configured in config.
func (r *Users) EnsureAdmin(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, lang, role, created_at)
		VALUES ($1, 'en', 'admin', NOW())
		ON CONFLICT (id) DO UPDATE SET role = EXCLUDED.role`, id)
	if err != nil {
		return fmt.Errorf("ensure admin %d: %w", id, err)
	}
	return nil
}

// Recipients returns the IDs of every known user. The broadcast scheduler
// calls this at fire time so the delivered set always reflects the current
// table contents.
func (r *Users) Recipients(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	return ids, nil
}

// Count returns the number of known users.
func (r *Users) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
