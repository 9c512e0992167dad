package instagram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSanitizeInput(t *testing.T) {
	tests := map[string]string{
		"  SomeUser  ":                              "someuser",
		"@someuser":                                 "someuser",
		"#Travel":                                   "travel",
		"https://www.instagram.com/someuser/":       "someuser",
		"https://instagram.com/someuser?igsh=x":     "someuser",
		"https://www.instagram.com/someuser/reels/": "someuser",
	}
	for in, want := range tests {
		require.Equal(t, want, SanitizeInput(in), "input %q", in)
	}
}

func TestEngagementRate(t *testing.T) {
	require.Zero(t, EngagementRate(10, 5, 0))
	require.InDelta(t, 0.15, EngagementRate(10, 5, 100), 1e-9)
}

func TestReelLink(t *testing.T) {
	r := Reel{Code: "Cxyz"}
	require.Equal(t, "https://www.instagram.com/reel/Cxyz/", r.Link())
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, "api-user", "api-pass", 5*time.Second)
}

func TestHTTPClientResolve(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "api-user", user)
		require.Equal(t, "api-pass", pass)
		require.Equal(t, "/v1/user/by/username", r.URL.Path)

		switch r.URL.Query().Get("username") {
		case "ghost":
			w.WriteHeader(http.StatusNotFound)
		case "hidden":
			w.Write([]byte(`{"user":{"username":"hidden","is_private":true}}`))
		default:
			w.Write([]byte(`{"user":{"username":"someuser","is_private":false}}`))
		}
	})
	ctx := context.Background()

	status, err := c.Resolve(ctx, "someuser")
	require.NoError(t, err)
	require.Equal(t, StatusFound, status)

	status, err = c.Resolve(ctx, "ghost")
	require.NoError(t, err)
	require.Equal(t, StatusNotFound, status)

	status, err = c.Resolve(ctx, "hidden")
	require.NoError(t, err)
	require.Equal(t, StatusPrivate, status)
}

func TestHTTPClientUserReels(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/user/reels", r.URL.Path)
		switch r.URL.Query().Get("username") {
		case "ghost":
			w.WriteHeader(http.StatusNotFound)
		case "hidden":
			w.WriteHeader(http.StatusForbidden)
		case "empty":
			w.Write([]byte(`{"items":[]}`))
		default:
			w.Write([]byte(`{"items":[
				{"id":"1","code":"Ca","like_count":10,"comment_count":5,"play_count":100,"taken_at":1717200000,"owner_username":"someuser","video_url":"https://cdn.example/a.mp4"},
				{"id":"2","code":"Cb","like_count":1,"comment_count":1,"play_count":null,"taken_at":1717100000,"owner_username":"someuser"}
			]}`))
		}
	})
	ctx := context.Background()

	reels, err := c.UserReels(ctx, "someuser", 10)
	require.NoError(t, err)
	require.Len(t, reels, 2)
	require.Equal(t, "Ca", reels[0].Code)
	require.Equal(t, 100, reels[0].Views)
	require.InDelta(t, 0.15, reels[0].ER, 1e-9)
	require.Equal(t, time.Unix(1717200000, 0).UTC(), reels[0].PostDate)
	require.Equal(t, "https://cdn.example/a.mp4", reels[0].VideoURL)

	// Null counters and a missing video_url decode to zero values.
	require.Equal(t, 0, reels[1].Views)
	require.Zero(t, reels[1].ER)
	require.Empty(t, reels[1].VideoURL)

	// The limit truncates server responses.
	reels, err = c.UserReels(ctx, "someuser", 1)
	require.NoError(t, err)
	require.Len(t, reels, 1)

	_, err = c.UserReels(ctx, "ghost", 10)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = c.UserReels(ctx, "hidden", 10)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = c.UserReels(ctx, "empty", 10)
	require.ErrorIs(t, err, ErrNoMedia)
}

func TestHTTPClientHashtagNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/hashtag/medias/top", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := c.HashtagReels(context.Background(), "nosuch", 10)
	require.ErrorIs(t, err, ErrNotFound)
}
