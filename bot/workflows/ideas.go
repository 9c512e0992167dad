package workflows

import (
	"context"
	"strings"

	"github.com/m3rciful/contentbot/bot/llm"
	"github.com/m3rciful/contentbot/bot/texts"
	"github.com/m3rciful/contentbot/core/dialog"
	"github.com/m3rciful/contentbot/core/telegram/keyboard"
)

const (
	stAwaitingQuery = dialog.State("awaiting_query")
	stFollowup      = dialog.State("followup")

	maxQueryLen = 10000
)

// IdeasWorkflow generates content ideas from a topic and keeps the
// conversation open so the user can ask for more.
func (d *Deps) IdeasWorkflow() *dialog.Workflow {
	return &dialog.Workflow{
		ID: "generate_ideas",

		Entry: dialog.CallbackKey(CbGenerateIdeas),
		Enter: func(ctx context.Context, s *dialog.Session, ev dialog.Event) (dialog.State, error) {
			lang := d.rememberLang(ctx, s)
			if err := d.Sender.Send(ctx, s.Owner, texts.T(lang, "generate_ideas.enter_query"), cancelRow(lang)); err != nil {
				return "", err
			}
			return stAwaitingQuery, nil
		},
		EntryNext: []dialog.State{stAwaitingQuery},

		States:    []dialog.State{stAwaitingQuery, stFollowup},
		Terminals: []dialog.State{dialog.StateDone},

		Transitions: []dialog.Transition{
			{
				From:   stAwaitingQuery,
				When:   dialog.AnyText(),
				Action: d.generateIdeas,
				Next:   []dialog.State{stFollowup},
			},
			{
				From:   stFollowup,
				When:   dialog.CallbackKey(CbMoreIdeas),
				Action: d.moreIdeas,
				Next:   []dialog.State{stFollowup},
			},
			{
				From:   stFollowup,
				When:   dialog.AnyText(),
				Action: d.generateIdeas,
				Next:   []dialog.State{stFollowup},
			},
		},

		// Stray button presses while ideas are open are just dropped.
		Unmatched: dialog.UnmatchedIgnore,
		Reentry:   dialog.ReentryReset,
	}
}

// generateIdeas appends the user's topic to the history and replies with a
// fresh idea list. Free text in followup starts a new turn on the same
// history, so refinements keep their context.
func (d *Deps) generateIdeas(ctx context.Context, s *dialog.Session, ev dialog.Event) (dialog.State, error) {
	query := strings.TrimSpace(ev.Text)
	if len(query) > maxQueryLen {
		query = query[:maxQueryLen]
	}
	return d.ideasTurn(ctx, s, query)
}

// moreIdeas asks for another batch on the same topic.
func (d *Deps) moreIdeas(ctx context.Context, s *dialog.Session, ev dialog.Event) (dialog.State, error) {
	lang := d.lang(ctx, s)
	return d.ideasTurn(ctx, s, texts.T(lang, "generate_ideas.more_request"))
}

func (d *Deps) ideasTurn(ctx context.Context, s *dialog.Session, userTurn string) (dialog.State, error) {
	lang := d.lang(ctx, s)
	history := ideaHistory(s)
	history = append(history, llm.Message{Role: llm.RoleUser, Content: userTurn})

	reply, err := d.Ideas.Generate(ctx, history)
	if err != nil {
		return "", err
	}

	history = append(history, llm.Message{Role: llm.RoleAssistant, Content: reply})
	s.Data["history"] = history

	if err := d.Sender.Send(ctx, s.Owner, reply, moreIdeasRow(lang), cancelRow(lang)); err != nil {
		return "", err
	}
	return stFollowup, nil
}

// ideaHistory returns a detached copy of the conversation so far, so a
// failed turn never mutates the stored session's history.
func ideaHistory(s *dialog.Session) []llm.Message {
	v, ok := s.Data["history"]
	if !ok {
		return nil
	}
	stored, ok := v.([]llm.Message)
	if !ok {
		return nil
	}
	return append([]llm.Message(nil), stored...)
}

func moreIdeasRow(lang string) []keyboard.InlineBtn {
	return []keyboard.InlineBtn{{Text: texts.T(lang, "generate_ideas.more"), Unique: CbMoreIdeas}}
}
