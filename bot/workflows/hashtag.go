package workflows

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/m3rciful/contentbot/bot/instagram"
	"github.com/m3rciful/contentbot/bot/report"
	"github.com/m3rciful/contentbot/bot/texts"
	"github.com/m3rciful/contentbot/core/dialog"
)

const (
	stAwaitingHashtag = dialog.State("awaiting_hashtag")
	stAwaitingHTCount = dialog.State("awaiting_hashtag_count")
)

// HashtagWorkflow analyzes top reels of a hashtag: hashtag -> video count ->
// first page of results, then pages the rest through a cursor.
func (d *Deps) HashtagWorkflow() *dialog.Workflow {
	return &dialog.Workflow{
		ID: "analyze_hashtag",

		Entry: dialog.CallbackKey(CbAnalyzeHashtag),
		Enter: func(ctx context.Context, s *dialog.Session, ev dialog.Event) (dialog.State, error) {
			lang := d.rememberLang(ctx, s)
			if err := d.Sender.Send(ctx, s.Owner, texts.T(lang, "analyze_hashtag.enter_hashtag"), cancelRow(lang)); err != nil {
				return "", err
			}
			return stAwaitingHashtag, nil
		},
		EntryNext: []dialog.State{stAwaitingHashtag},

		States:    []dialog.State{stAwaitingHashtag, stAwaitingHTCount, stShowingResults},
		Terminals: []dialog.State{dialog.StateDone},

		Transitions: []dialog.Transition{
			{
				From:   stAwaitingHashtag,
				When:   dialog.AnyText(),
				Action: d.receiveHashtag,
				Next:   []dialog.State{stAwaitingHashtag, stAwaitingHTCount},
			},
			{
				From:   stAwaitingHTCount,
				When:   dialog.CallbackKey(CbCount),
				Action: d.analyzeHashtag,
				Next:   []dialog.State{stShowingResults, dialog.StateDone},
			},
			{
				From:   stShowingResults,
				When:   dialog.CallbackKey(CbShowNext),
				Action: d.showNextResults,
				Next:   []dialog.State{stShowingResults, dialog.StateDone},
			},
		},

		Unmatched:   dialog.UnmatchedReprompt,
		OnUnmatched: d.repromptHashtag,
		Reentry:     dialog.ReentryReset,
	}
}

func (d *Deps) receiveHashtag(ctx context.Context, s *dialog.Session, ev dialog.Event) (dialog.State, error) {
	lang := d.lang(ctx, s)
	hashtag := instagram.SanitizeInput(ev.Text)
	if hashtag == "" {
		if err := d.Sender.Send(ctx, s.Owner, texts.T(lang, "analyze_hashtag.no_found"), cancelRow(lang)); err != nil {
			return "", err
		}
		return stAwaitingHashtag, nil
	}

	s.Data["hashtag"] = hashtag
	if err := d.Sender.Send(ctx, s.Owner, texts.T(lang, "analyze_hashtag.ask_number_videos"), countRow(), cancelRow(lang)); err != nil {
		return "", err
	}
	return stAwaitingHTCount, nil
}

// analyzeHashtag fetches the top reels, shows the first page and freezes the
// rest behind a cursor. Ordering is decided here once; later pages never
// reshuffle or repeat.
func (d *Deps) analyzeHashtag(ctx context.Context, s *dialog.Session, ev dialog.Event) (dialog.State, error) {
	lang := d.lang(ctx, s)
	count, err := strconv.Atoi(ev.Payload)
	if err != nil || count <= 0 {
		return "", errors.New("workflows: invalid video count payload")
	}
	hashtag, ok := s.GetString("hashtag")
	if !ok {
		return "", errors.New("workflows: hashtag missing from session")
	}

	if err := d.Sender.Send(ctx, s.Owner, texts.T(lang, "analyze_hashtag.received")); err != nil {
		return "", err
	}

	reels, err := d.Instagram.HashtagReels(ctx, hashtag, d.fetchLimit())
	if err != nil {
		if errors.Is(err, instagram.ErrNotFound) || errors.Is(err, instagram.ErrNoMedia) {
			if serr := d.Sender.Send(ctx, s.Owner, texts.T(lang, "analyze_hashtag.no_found"), cancelRow(lang)); serr != nil {
				return "", serr
			}
			return dialog.StateDone, nil
		}
		return "", err
	}

	summary := report.Summarize(hashtag, reels)
	blocks := make([]string, 0, len(summary.Reels))
	for i, r := range summary.Reels {
		blocks = append(blocks, renderHashtagReel(lang, i+1, r))
	}

	shown := count
	if shown > len(blocks) {
		shown = len(blocks)
	}
	header := texts.Tf(lang, "analyze_hashtag.result_ready",
		"n", strconv.Itoa(shown),
		"hashtag", hashtag,
	)
	if err := d.Sender.Send(ctx, s.Owner, header+"\n\n"+strings.Join(blocks[:shown], "\n\n")); err != nil {
		return "", err
	}
	if err := d.Sender.SendVideoGroup(ctx, s.Owner, topVideoURLs(summary.Reels, d.batch())); err != nil {
		return "", err
	}

	workbook, err := report.Workbook(summary)
	if err != nil {
		return "", err
	}
	if err := d.Sender.SendDocument(ctx, s.Owner, report.Filename(summary), workbook, texts.T(lang, "download_report")); err != nil {
		return "", err
	}

	cursor := dialog.NewCursor(blocks, d.batch())
	cursor.Offset = shown
	if cursor.Exhausted() {
		return dialog.StateDone, nil
	}
	s.Data["cursor"] = cursor
	if err := d.Sender.Send(ctx, s.Owner, texts.T(lang, "show_next_videos"), showNextRow(lang)); err != nil {
		return "", err
	}
	return stShowingResults, nil
}

func (d *Deps) repromptHashtag(ctx context.Context, s *dialog.Session, ev dialog.Event) error {
	lang := d.lang(ctx, s)
	switch s.State {
	case stAwaitingHTCount:
		return d.Sender.Send(ctx, s.Owner, texts.T(lang, "analyze_hashtag.ask_number_videos"), countRow(), cancelRow(lang))
	case stShowingResults:
		return d.Sender.Send(ctx, s.Owner, texts.T(lang, "show_next_videos"), showNextRow(lang))
	default:
		return d.Sender.Send(ctx, s.Owner, texts.T(lang, "analyze_hashtag.enter_hashtag"), cancelRow(lang))
	}
}
