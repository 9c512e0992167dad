package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m3rciful/contentbot/core/logger"
	"github.com/m3rciful/contentbot/core/telegram/format"
	"github.com/m3rciful/contentbot/core/telegram/netutil"
)

const httpRetries = 2

// HTTPClient talks to a scraping API over JSON. Authentication is
// basic-auth with the credentials from config.
type HTTPClient struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

// NewHTTPClient builds a client for the scraping API at baseURL.
func NewHTTPClient(baseURL, username, password string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		username: username,
		password: password,
		http:     &http.Client{Timeout: timeout},
	}
}

type profileEnvelope struct {
	User struct {
		Username  string `json:"username"`
		IsPrivate bool   `json:"is_private"`
		MediaNum  int    `json:"media_count"`
	} `json:"user"`
}

type reelsEnvelope struct {
	Items []reelItem `json:"items"`
}

type reelItem struct {
	ID      string  `json:"id"`
	Code    string  `json:"code"`
	Title   *string `json:"title"`
	Caption struct {
		Text string `json:"text"`
	} `json:"caption"`
	LikeCount    int     `json:"like_count"`
	CommentCount int     `json:"comment_count"`
	PlayCount    *int    `json:"play_count"` // null for media without a view counter
	TakenAt      int64   `json:"taken_at"`
	Owner        string  `json:"owner_username"`
	VideoURL     *string `json:"video_url"`
}

// Resolve implements Client.
func (c *HTTPClient) Resolve(ctx context.Context, username string) (ResolveStatus, error) {
	var env profileEnvelope
	err := c.getJSON(ctx, "/v1/user/by/username", url.Values{"username": {username}}, &env)
	switch {
	case err == nil:
	case isNotFound(err):
		return StatusNotFound, nil
	default:
		return "", err
	}
	if env.User.IsPrivate {
		return StatusPrivate, nil
	}
	return StatusFound, nil
}

// UserReels implements Client.
func (c *HTTPClient) UserReels(ctx context.Context, username string, limit int) ([]Reel, error) {
	var env reelsEnvelope
	q := url.Values{"username": {username}, "count": {fmt.Sprint(limit)}}
	if err := c.getJSON(ctx, "/v1/user/reels", q, &env); err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	reels := convertItems(env.Items, limit)
	if len(reels) == 0 {
		return nil, ErrNoMedia
	}
	return reels, nil
}

// HashtagReels implements Client.
func (c *HTTPClient) HashtagReels(ctx context.Context, hashtag string, limit int) ([]Reel, error) {
	var env reelsEnvelope
	q := url.Values{"name": {hashtag}, "count": {fmt.Sprint(limit)}}
	if err := c.getJSON(ctx, "/v1/hashtag/medias/top", q, &env); err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	reels := convertItems(env.Items, limit)
	if len(reels) == 0 {
		return nil, ErrNoMedia
	}
	return reels, nil
}

func convertItems(items []reelItem, limit int) []Reel {
	reels := make([]Reel, 0, len(items))
	for _, it := range items {
		if limit > 0 && len(reels) >= limit {
			break
		}
		views := format.DerefInt(it.PlayCount, 0)
		reels = append(reels, Reel{
			ID:       it.ID,
			Code:     it.Code,
			Title:    format.DerefString(it.Title, ""),
			Caption:  it.Caption.Text,
			Likes:    it.LikeCount,
			Comments: it.CommentCount,
			Views:    views,
			PostDate: time.Unix(it.TakenAt, 0).UTC(),
			Owner:    it.Owner,
			VideoURL: format.DerefString(it.VideoURL, ""),
			ER:       EngagementRate(it.LikeCount, it.CommentCount, views),
		})
	}
	return reels
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("instagram: api status %d: %s", e.code, e.body)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.code == http.StatusNotFound
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	var lastErr error
	for attempt := 0; attempt <= httpRetries; attempt++ {
		if attempt > 0 {
			logger.IG.WarnContext(ctx, "Retrying request", "path", path, "attempt", attempt, "err", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}
		lastErr = c.doOnce(ctx, path, query, out)
		if lastErr == nil || !netutil.ShouldRetry(lastErr) {
			break
		}
	}
	return lastErr
}

func (c *HTTPClient) doOnce(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("instagram: build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("instagram: %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return &statusError{code: resp.StatusCode, body: "not found"}
	case http.StatusForbidden:
		return ErrForbidden
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("instagram: decode %s: %w", path, err)
	}
	return nil
}
