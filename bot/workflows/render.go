package workflows

import (
	"strconv"
	"strings"

	"github.com/m3rciful/contentbot/bot/instagram"
	"github.com/m3rciful/contentbot/bot/report"
	"github.com/m3rciful/contentbot/bot/texts"
)

// groupDigits renders 1234567 as "1 234 567".
func groupDigits(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// comparative renders the above/below-average suffix for a metric.
func comparative(lang string, value int, avg float64) string {
	diff := value - int(avg)
	key := "analyze_account.comparative_more"
	if diff < 0 {
		key = "analyze_account.comparative_less"
		diff = -diff
	}
	return texts.Tf(lang, key, "value", groupDigits(diff))
}

// renderAccountReel formats one reel block with comparatives against the
// account averages.
func renderAccountReel(lang string, r instagram.Reel, s report.Summary) string {
	return texts.Tf(lang, "analyze_account.results",
		"views", groupDigits(r.Views),
		"likes", groupDigits(r.Likes),
		"likes_comparative", comparative(lang, r.Likes, s.AvgLikes),
		"comments", groupDigits(r.Comments),
		"comments_comparative", comparative(lang, r.Comments, s.AvgComments),
		"link", r.Link(),
	)
}

// renderHashtagReel formats one numbered reel block for hashtag results.
func renderHashtagReel(lang string, idx int, r instagram.Reel) string {
	return texts.Tf(lang, "analyze_hashtag.results",
		"idx", strconv.Itoa(idx),
		"views", groupDigits(r.Views),
		"likes", groupDigits(r.Likes),
		"comments", groupDigits(r.Comments),
		"link", r.Link(),
	)
}

// topVideoURLs collects up to n playable video links from the given reels.
func topVideoURLs(reels []instagram.Reel, n int) []string {
	urls := make([]string, 0, n)
	for _, r := range reels {
		if len(urls) == n {
			break
		}
		if r.VideoURL != "" {
			urls = append(urls, r.VideoURL)
		}
	}
	return urls
}
