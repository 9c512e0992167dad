package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
)

// Exporter dumps the bot's tables as CSV for the admin export action.
type Exporter struct {
	db *sqlx.DB
}

// NewExporter constructs a table exporter.
func NewExporter(db *sqlx.DB) *Exporter {
	return &Exporter{db: db}
}

// ExportTables returns one CSV blob per supported table, keyed by table name.
func (e *Exporter) ExportTables(ctx context.Context) (map[string][]byte, error) {
	out := make(map[string][]byte, 2)

	users, err := e.exportUsers(ctx)
	if err != nil {
		return nil, err
	}
	out["users"] = users

	messages, err := e.exportMessages(ctx)
	if err != nil {
		return nil, err
	}
	out["messages"] = messages

	return out, nil
}

func (e *Exporter) exportUsers(ctx context.Context) ([]byte, error) {
	var rows []User
	err := e.db.SelectContext(ctx, &rows,
		`SELECT id, name, first_name, last_name, lang, role, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("export users: %w", err)
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"id", "name", "first_name", "last_name", "lang", "role", "created_at"})
	for _, u := range rows {
		_ = w.Write([]string{
			strconv.FormatInt(u.ID, 10),
			u.Name, u.FirstName, u.LastName, u.Lang, u.Role,
			u.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("export users: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Exporter) exportMessages(ctx context.Context) ([]byte, error) {
	var rows []Message
	err := e.db.SelectContext(ctx, &rows,
		`SELECT id, user_id, text, created_at FROM messages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("export messages: %w", err)
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"id", "user_id", "text", "created_at"})
	for _, m := range rows {
		_ = w.Write([]string{
			strconv.FormatInt(m.ID, 10),
			strconv.FormatInt(m.UserID, 10),
			m.Text,
			m.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("export messages: %w", err)
	}
	return buf.Bytes(), nil
}
