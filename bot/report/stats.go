// Package report turns fetched reels into summary metrics and xlsx workbooks.
package report

import (
	"sort"

	"github.com/m3rciful/contentbot/bot/instagram"
)

// Summary aggregates engagement over a fetched reel set.
type Summary struct {
	Subject     string
	Total       int
	AvgViews    float64
	AvgLikes    float64
	AvgComments float64
	AvgER       float64
	// Reels sorted by views, most viewed first.
	Reels []instagram.Reel
}

// Summarize sorts reels by views descending and computes averages.
func Summarize(subject string, reels []instagram.Reel) Summary {
	sorted := make([]instagram.Reel, len(reels))
	copy(sorted, reels)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Views > sorted[j].Views
	})

	s := Summary{Subject: subject, Total: len(sorted), Reels: sorted}
	if len(sorted) == 0 {
		return s
	}
	var views, likes, comments int
	var er float64
	for _, r := range sorted {
		views += r.Views
		likes += r.Likes
		comments += r.Comments
		er += r.ER
	}
	n := float64(len(sorted))
	s.AvgViews = float64(views) / n
	s.AvgLikes = float64(likes) / n
	s.AvgComments = float64(comments) / n
	s.AvgER = er / n
	return s
}

// Top returns the first n reels of the summary (already view-sorted).
func (s Summary) Top(n int) []instagram.Reel {
	if n > len(s.Reels) {
		n = len(s.Reels)
	}
	return s.Reels[:n]
}
