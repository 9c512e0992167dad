package workflows

import (
	"context"
	"errors"
	"strings"

	"github.com/m3rciful/contentbot/bot/texts"
	"github.com/m3rciful/contentbot/core/dialog"
	"github.com/m3rciful/contentbot/core/telegram/keyboard"
)

// stShowingResults is the paging state shared by both analyses: the result
// blocks are frozen behind a cursor and revealed batch by batch.
const stShowingResults = dialog.State("showing_results")

// showNextResults emits the next cursor batch; exhaustion ends the workflow.
func (d *Deps) showNextResults(ctx context.Context, s *dialog.Session, ev dialog.Event) (dialog.State, error) {
	lang := d.lang(ctx, s)
	stored, ok := s.GetCursor("cursor")
	if !ok {
		return "", errors.New("workflows: result cursor missing from session")
	}
	// Advance a copy: the stored cursor must not move if a send fails,
	// otherwise the retried press would skip a page.
	cursor := *stored
	batch, exhausted := cursor.Advance()
	s.Data["cursor"] = &cursor
	if exhausted {
		if err := d.Sender.Send(ctx, s.Owner, texts.T(lang, "no_more_videos")); err != nil {
			return "", err
		}
		return dialog.StateDone, nil
	}

	if cursor.Exhausted() {
		if err := d.Sender.Send(ctx, s.Owner, strings.Join(batch, "\n\n")); err != nil {
			return "", err
		}
		return dialog.StateDone, nil
	}
	if err := d.Sender.Send(ctx, s.Owner, strings.Join(batch, "\n\n"), showNextRow(lang)); err != nil {
		return "", err
	}
	return stShowingResults, nil
}

func showNextRow(lang string) []keyboard.InlineBtn {
	return []keyboard.InlineBtn{{Text: texts.T(lang, "show_next_videos"), Unique: CbShowNext}}
}
