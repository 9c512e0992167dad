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
	"github.com/m3rciful/contentbot/core/telegram/keyboard"
)

const (
	stAwaitingNickname = dialog.State("awaiting_nickname")
	stAwaitingCount    = dialog.State("awaiting_count")
)

// countRow is the 5/10/30 video count picker shown by both analyses.
func countRow() []keyboard.InlineBtn {
	return []keyboard.InlineBtn{
		{Text: "5", Unique: CbCount, Data: "5"},
		{Text: "10", Unique: CbCount, Data: "10"},
		{Text: "30", Unique: CbCount, Data: "30"},
	}
}

// AccountWorkflow analyzes a public account's recent reels: nickname ->
// video count -> first page of results plus xlsx workbook, then pages the
// rest through a cursor.
func (d *Deps) AccountWorkflow() *dialog.Workflow {
	return &dialog.Workflow{
		ID: "analyze_account",

		Entry: dialog.CallbackKey(CbAnalyzeAccount),
		Enter: func(ctx context.Context, s *dialog.Session, ev dialog.Event) (dialog.State, error) {
			lang := d.rememberLang(ctx, s)
			if err := d.Sender.Send(ctx, s.Owner, texts.T(lang, "analyze_account.enter_nickname"), cancelRow(lang)); err != nil {
				return "", err
			}
			return stAwaitingNickname, nil
		},
		EntryNext: []dialog.State{stAwaitingNickname},

		States:    []dialog.State{stAwaitingNickname, stAwaitingCount, stShowingResults},
		Terminals: []dialog.State{dialog.StateDone},

		Transitions: []dialog.Transition{
			{
				From:   stAwaitingNickname,
				When:   dialog.AnyText(),
				Action: d.receiveNickname,
				Next:   []dialog.State{stAwaitingNickname, stAwaitingCount, dialog.StateDone},
			},
			{
				From:   stAwaitingCount,
				When:   dialog.CallbackKey(CbCount),
				Action: d.analyzeAccount,
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
		OnUnmatched: d.repromptAccount,
		Reentry:     dialog.ReentryReset,
	}
}

// receiveNickname validates the account: unknown names re-prompt in place,
// private accounts end the workflow, public ones move on to the count picker.
func (d *Deps) receiveNickname(ctx context.Context, s *dialog.Session, ev dialog.Event) (dialog.State, error) {
	lang := d.lang(ctx, s)
	nickname := instagram.SanitizeInput(ev.Text)
	if nickname == "" {
		if err := d.Sender.Send(ctx, s.Owner, texts.T(lang, "analyze_account.no_found"), cancelRow(lang)); err != nil {
			return "", err
		}
		return stAwaitingNickname, nil
	}

	status, err := d.Instagram.Resolve(ctx, nickname)
	if err != nil {
		return "", err
	}
	switch status {
	case instagram.StatusNotFound:
		if err := d.Sender.Send(ctx, s.Owner, texts.T(lang, "analyze_account.no_found"), cancelRow(lang)); err != nil {
			return "", err
		}
		return stAwaitingNickname, nil
	case instagram.StatusPrivate:
		if err := d.Sender.Send(ctx, s.Owner, texts.T(lang, "analyze_account.private_account")); err != nil {
			return "", err
		}
		return dialog.StateDone, nil
	}

	s.Data["nickname"] = nickname
	if err := d.Sender.Send(ctx, s.Owner, texts.T(lang, "analyze_account.ask_number_videos"), countRow(), cancelRow(lang)); err != nil {
		return "", err
	}
	return stAwaitingCount, nil
}

// analyzeAccount fetches the recent reels, shows the first page of comparison
// blocks with the top videos and workbook attached, and freezes the rest
// behind a cursor.
func (d *Deps) analyzeAccount(ctx context.Context, s *dialog.Session, ev dialog.Event) (dialog.State, error) {
	lang := d.lang(ctx, s)
	count, err := strconv.Atoi(ev.Payload)
	if err != nil || count <= 0 {
		return "", errors.New("workflows: invalid video count payload")
	}
	nickname, ok := s.GetString("nickname")
	if !ok {
		return "", errors.New("workflows: nickname missing from session")
	}

	if err := d.Sender.Send(ctx, s.Owner, texts.T(lang, "analyze_account.received")); err != nil {
		return "", err
	}

	reels, err := d.Instagram.UserReels(ctx, nickname, d.fetchLimit())
	if err != nil {
		switch {
		case errors.Is(err, instagram.ErrForbidden):
			if serr := d.Sender.Send(ctx, s.Owner, texts.T(lang, "analyze_account.private_account")); serr != nil {
				return "", serr
			}
			return dialog.StateDone, nil
		case errors.Is(err, instagram.ErrNotFound), errors.Is(err, instagram.ErrNoMedia):
			if serr := d.Sender.Send(ctx, s.Owner, texts.T(lang, "analyze_account.no_found")); serr != nil {
				return "", serr
			}
			return dialog.StateDone, nil
		}
		return "", err
	}

	summary := report.Summarize(nickname, reels)
	blocks := make([]string, 0, len(summary.Reels))
	for _, r := range summary.Reels {
		blocks = append(blocks, renderAccountReel(lang, r, summary))
	}

	shown := count
	if shown > len(blocks) {
		shown = len(blocks)
	}
	header := texts.Tf(lang, "analyze_account.result_ready",
		"n", strconv.Itoa(shown),
		"nickname", nickname,
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

// repromptAccount re-sends the prompt of the state the session is resting in.
func (d *Deps) repromptAccount(ctx context.Context, s *dialog.Session, ev dialog.Event) error {
	lang := d.lang(ctx, s)
	switch s.State {
	case stAwaitingCount:
		return d.Sender.Send(ctx, s.Owner, texts.T(lang, "analyze_account.ask_number_videos"), countRow(), cancelRow(lang))
	case stShowingResults:
		return d.Sender.Send(ctx, s.Owner, texts.T(lang, "show_next_videos"), showNextRow(lang))
	default:
		return d.Sender.Send(ctx, s.Owner, texts.T(lang, "analyze_account.enter_nickname"), cancelRow(lang))
	}
}
