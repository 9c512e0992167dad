package workflows

import (
	"context"
	"strconv"
	"strings"

	"github.com/m3rciful/contentbot/bot/storage"
	"github.com/m3rciful/contentbot/bot/texts"
	"github.com/m3rciful/contentbot/core/dialog"
)

const (
	stAwaitingUsername = dialog.State("awaiting_username")
	stAwaitingUserID   = dialog.State("awaiting_user_id")
)

// GrantAdminWorkflow promotes another user to admin: username -> user id ->
// role update. Admin only.
func (d *Deps) GrantAdminWorkflow() *dialog.Workflow {
	return &dialog.Workflow{
		ID: "grant_admin",

		Entry: dialog.CallbackKey(CbAddAdmin),
		Enter: func(ctx context.Context, s *dialog.Session, ev dialog.Event) (dialog.State, error) {
			lang := d.rememberLang(ctx, s)
			if !d.isAdmin(ctx, s.Owner) {
				if err := d.Sender.Send(ctx, s.Owner, texts.T(lang, "no_rights")); err != nil {
					return "", err
				}
				return StateDenied, nil
			}
			if err := d.Sender.Send(ctx, s.Owner, texts.T(lang, "add_admin.enter_username"), cancelRow(lang)); err != nil {
				return "", err
			}
			return stAwaitingUsername, nil
		},
		EntryNext: []dialog.State{stAwaitingUsername, StateDenied},

		States:    []dialog.State{stAwaitingUsername, stAwaitingUserID},
		Terminals: []dialog.State{dialog.StateDone, StateDenied},

		Transitions: []dialog.Transition{
			{
				From:   stAwaitingUsername,
				When:   dialog.AnyText(),
				Action: d.receiveAdminUsername,
				Next:   []dialog.State{stAwaitingUserID},
			},
			{
				From:   stAwaitingUserID,
				When:   dialog.AnyText(),
				Action: d.grantAdmin,
				Next:   []dialog.State{stAwaitingUserID, dialog.StateDone},
			},
		},

		Unmatched:   dialog.UnmatchedReprompt,
		OnUnmatched: d.repromptGrantAdmin,
		Reentry:     dialog.ReentryReset,
	}
}

func (d *Deps) receiveAdminUsername(ctx context.Context, s *dialog.Session, ev dialog.Event) (dialog.State, error) {
	lang := d.lang(ctx, s)
	s.Data["username"] = strings.TrimPrefix(strings.TrimSpace(ev.Text), "@")
	if err := d.Sender.Send(ctx, s.Owner, texts.T(lang, "add_admin.enter_user_id"), cancelRow(lang)); err != nil {
		return "", err
	}
	return stAwaitingUserID, nil
}

// grantAdmin parses the target id and promotes the user; a non-numeric id
// re-prompts in place.
func (d *Deps) grantAdmin(ctx context.Context, s *dialog.Session, ev dialog.Event) (dialog.State, error) {
	lang := d.lang(ctx, s)
	id, err := strconv.ParseInt(strings.TrimSpace(ev.Text), 10, 64)
	if err != nil || id <= 0 {
		if serr := d.Sender.Send(ctx, s.Owner, texts.T(lang, "add_admin.invalid_user_id"), cancelRow(lang)); serr != nil {
			return "", serr
		}
		return stAwaitingUserID, nil
	}

	username, _ := s.GetString("username")
	if err := d.Users.SetRole(ctx, id, username, storage.RoleAdmin); err != nil {
		return "", err
	}

	confirmation := texts.Tf(lang, "add_admin_confirm",
		"username", username,
		"user_id", strconv.FormatInt(id, 10),
	)
	if err := d.Sender.Send(ctx, s.Owner, confirmation); err != nil {
		return "", err
	}
	return dialog.StateDone, nil
}

func (d *Deps) repromptGrantAdmin(ctx context.Context, s *dialog.Session, ev dialog.Event) error {
	lang := d.lang(ctx, s)
	switch s.State {
	case stAwaitingUserID:
		return d.Sender.Send(ctx, s.Owner, texts.T(lang, "add_admin.enter_user_id"), cancelRow(lang))
	default:
		return d.Sender.Send(ctx, s.Owner, texts.T(lang, "add_admin.enter_username"), cancelRow(lang))
	}
}
