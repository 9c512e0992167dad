package workflows

import (
	"context"
	"errors"
	"strconv"

	"github.com/m3rciful/contentbot/bot/texts"
	"github.com/m3rciful/contentbot/core/broadcast"
	"github.com/m3rciful/contentbot/core/dialog"
	tghelpers "github.com/m3rciful/contentbot/core/telegram/helpers"
)

const (
	stAwaitingDatetime = dialog.State("awaiting_datetime")
	stAwaitingMessage  = dialog.State("awaiting_message")

	// StateDenied ends admin-only workflows for non-admin users.
	StateDenied = dialog.State("denied")

	datetimeLayout = "2006-01-02 15:04"
)

// BroadcastWorkflow schedules a deferred message to every known user:
// datetime -> message text -> queued job. Admin only.
func (d *Deps) BroadcastWorkflow() *dialog.Workflow {
	return &dialog.Workflow{
		ID: "public_message",

		Entry: dialog.CallbackKey(CbPublicMessage),
		Enter: func(ctx context.Context, s *dialog.Session, ev dialog.Event) (dialog.State, error) {
			lang := d.rememberLang(ctx, s)
			if !d.isAdmin(ctx, s.Owner) {
				if err := d.Sender.Send(ctx, s.Owner, texts.T(lang, "no_rights")); err != nil {
					return "", err
				}
				return StateDenied, nil
			}
			if err := d.Sender.Send(ctx, s.Owner, d.datetimePrompt(lang), cancelRow(lang)); err != nil {
				return "", err
			}
			return stAwaitingDatetime, nil
		},
		EntryNext: []dialog.State{stAwaitingDatetime, StateDenied},

		States:    []dialog.State{stAwaitingDatetime, stAwaitingMessage},
		Terminals: []dialog.State{dialog.StateDone, StateDenied},

		Transitions: []dialog.Transition{
			{
				From:   stAwaitingDatetime,
				When:   dialog.AnyText(),
				Action: d.receiveDatetime,
				Next:   []dialog.State{stAwaitingDatetime, stAwaitingMessage},
			},
			{
				From:   stAwaitingMessage,
				When:   dialog.AnyText(),
				Action: d.scheduleBroadcast,
				Next:   []dialog.State{dialog.StateDone},
			},
		},

		Unmatched:   dialog.UnmatchedReprompt,
		OnUnmatched: d.repromptBroadcast,
		Reentry:     dialog.ReentryReset,
	}
}

// receiveDatetime parses the run time in the configured timezone. Bad format
// and past datetimes both explain the problem and re-prompt in place.
func (d *Deps) receiveDatetime(ctx context.Context, s *dialog.Session, ev dialog.Event) (dialog.State, error) {
	lang := d.lang(ctx, s)

	runAt, ok := tghelpers.ParseScheduleTime(ev.Text, d.Location)
	if !ok {
		if serr := d.Sender.Send(ctx, s.Owner, texts.T(lang, "invalid_datetime_format")); serr != nil {
			return "", serr
		}
		if serr := d.Sender.Send(ctx, s.Owner, d.datetimePrompt(lang), cancelRow(lang)); serr != nil {
			return "", serr
		}
		return stAwaitingDatetime, nil
	}
	if !runAt.After(d.now()) {
		if serr := d.Sender.Send(ctx, s.Owner, texts.T(lang, "past_datetime_error")); serr != nil {
			return "", serr
		}
		if serr := d.Sender.Send(ctx, s.Owner, d.datetimePrompt(lang), cancelRow(lang)); serr != nil {
			return "", serr
		}
		return stAwaitingDatetime, nil
	}

	s.Data["run_at"] = runAt
	if err := d.Sender.Send(ctx, s.Owner, texts.T(lang, "record_message_prompt"), cancelRow(lang)); err != nil {
		return "", err
	}
	return stAwaitingMessage, nil
}

// scheduleBroadcast queues the job and confirms with the recipient count.
// Recipients are resolved again at fire time, the count is informational.
func (d *Deps) scheduleBroadcast(ctx context.Context, s *dialog.Session, ev dialog.Event) (dialog.State, error) {
	lang := d.lang(ctx, s)
	runAt, ok := s.GetTime("run_at")
	if !ok {
		return "", errors.New("workflows: run time missing from session")
	}

	job := broadcast.NewJob(runAt, broadcast.Payload{Text: ev.Text}, s.Owner)
	if err := d.Scheduler.Schedule(job); err != nil {
		return "", err
	}

	count, err := d.Users.Count(ctx)
	if err != nil {
		count = 0
	}
	confirmation := texts.Tf(lang, "message_scheduled_confirmation",
		"n_users", strconv.Itoa(count),
		"send_datetime", runAt.Format(datetimeLayout),
		"timezone", d.Location.String(),
	)
	if err := d.Sender.Send(ctx, s.Owner, confirmation); err != nil {
		return "", err
	}
	return dialog.StateDone, nil
}

func (d *Deps) repromptBroadcast(ctx context.Context, s *dialog.Session, ev dialog.Event) error {
	lang := d.lang(ctx, s)
	switch s.State {
	case stAwaitingMessage:
		return d.Sender.Send(ctx, s.Owner, texts.T(lang, "record_message_prompt"), cancelRow(lang))
	default:
		return d.Sender.Send(ctx, s.Owner, d.datetimePrompt(lang), cancelRow(lang))
	}
}

func (d *Deps) datetimePrompt(lang string) string {
	return texts.Tf(lang, "enter_datetime_prompt", "timezone", d.Location.String())
}
