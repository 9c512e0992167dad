// Package instagram is the narrow interface to the content-source scraping
// service. Lookup outcomes are tagged types instead of raw status codes so
// workflows can branch on not-found vs. private vs. transient failures.
package instagram

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Lookup failure classes surfaced to workflows.
var (
	// ErrNotFound means the account or hashtag does not exist.
	ErrNotFound = errors.New("instagram: not found")
	// ErrForbidden means the account exists but is private.
	ErrForbidden = errors.New("instagram: account is private")
	// ErrNoMedia means the lookup succeeded but returned no reels.
	ErrNoMedia = errors.New("instagram: no reels found")
)

// ResolveStatus classifies an account existence check.
type ResolveStatus string

const (
	// StatusFound means the account exists and is public.
	StatusFound ResolveStatus = "found"
	// StatusNotFound means no such account exists.
	StatusNotFound ResolveStatus = "not_found"
	// StatusPrivate means the account exists but its media is not visible.
	StatusPrivate ResolveStatus = "private"
)

// Reel is one short-form video with its engagement metrics.
type Reel struct {
	ID       string
	Code     string
	Title    string
	Caption  string
	Likes    int
	Comments int
	Views    int
	PostDate time.Time
	Owner    string
	// VideoURL is the direct media URL, empty when the API withholds it.
	VideoURL string
	// ER is the engagement rate: (likes+comments)/views, 0 when views are 0.
	ER float64
}

// Link returns the public URL of the reel.
func (r Reel) Link() string {
	return "https://www.instagram.com/reel/" + r.Code + "/"
}

// Client is the content-source collaborator consumed by workflow actions.
type Client interface {
	// Resolve checks whether an account exists and whether it is public.
	Resolve(ctx context.Context, username string) (ResolveStatus, error)
	// UserReels fetches up to limit reels of a public account. Errors:
	// ErrNotFound, ErrForbidden, ErrNoMedia, or a transport error.
	UserReels(ctx context.Context, username string, limit int) ([]Reel, error)
	// HashtagReels fetches up to limit top reels for a hashtag. Errors:
	// ErrNotFound, ErrNoMedia, or a transport error.
	HashtagReels(ctx context.Context, hashtag string, limit int) ([]Reel, error)
}

// SanitizeInput normalizes user-entered identifiers: strips whitespace,
// a leading @ or #, and any URL prefix pasted from the app.
func SanitizeInput(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "https://www.instagram.com/")
	s = strings.TrimPrefix(s, "https://instagram.com/")
	s = strings.TrimPrefix(s, "@")
	s = strings.TrimPrefix(s, "#")
	s = strings.TrimSuffix(s, "/")
	if i := strings.IndexAny(s, "/?"); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(s)
}

// EngagementRate computes (likes+comments)/views, guarding division by zero.
func EngagementRate(likes, comments, views int) float64 {
	if views == 0 {
		return 0
	}
	return float64(likes+comments) / float64(views)
}
