package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/m3rciful/contentbot/bot/instagram"
)

func sampleReels() []instagram.Reel {
	return []instagram.Reel{
		{Code: "Ca", Views: 100, Likes: 10, Comments: 2, ER: 0.12},
		{Code: "Cb", Views: 300, Likes: 30, Comments: 4, ER: 0.11},
		{Code: "Cc", Views: 200, Likes: 20, Comments: 6, ER: 0.13},
	}
}

func TestSummarizeSortsAndAverages(t *testing.T) {
	s := Summarize("someuser", sampleReels())

	require.Equal(t, 3, s.Total)
	require.Equal(t, "Cb", s.Reels[0].Code)
	require.Equal(t, "Cc", s.Reels[1].Code)
	require.Equal(t, "Ca", s.Reels[2].Code)

	require.InDelta(t, 200, s.AvgViews, 1e-9)
	require.InDelta(t, 20, s.AvgLikes, 1e-9)
	require.InDelta(t, 4, s.AvgComments, 1e-9)
	require.InDelta(t, 0.12, s.AvgER, 1e-9)
}

func TestSummarizeDoesNotMutateInput(t *testing.T) {
	reels := sampleReels()
	Summarize("someuser", reels)
	require.Equal(t, "Ca", reels[0].Code)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize("someuser", nil)
	require.Zero(t, s.Total)
	require.Zero(t, s.AvgViews)
	require.Empty(t, s.Top(3))
}

func TestTop(t *testing.T) {
	s := Summarize("someuser", sampleReels())
	require.Len(t, s.Top(2), 2)
	require.Len(t, s.Top(10), 3)
}

func TestWorkbook(t *testing.T) {
	s := Summarize("someuser", sampleReels())
	data, err := Workbook(s)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	require.Equal(t, "report_someuser.xlsx", Filename(s))

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.Equal(t, workbookHeader, rows[0])

	// First data row is the most viewed reel.
	require.Equal(t, "300", rows[1][2])
	require.Equal(t, "https://www.instagram.com/reel/Cb/", rows[1][7])
}
