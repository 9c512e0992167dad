package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/contentbot/bot/texts"
	"github.com/m3rciful/contentbot/bot/workflows"
	"github.com/m3rciful/contentbot/core/dialog"
	"github.com/m3rciful/contentbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/contentbot/core/telegram/helpers"
)

// dialogAdapter feeds telebot updates into the dialogue engine and
// implements the router.Dialog interface.
type dialogAdapter struct {
	engine *dialog.Engine
	deps   *workflows.Deps
}

func newDialogAdapter(engine *dialog.Engine, deps *workflows.Deps) *dialogAdapter {
	return &dialogAdapter{engine: engine, deps: deps}
}

func (a *dialogAdapter) InProgress(userID int64) bool {
	return a.engine.InProgress(userID)
}

// HandleText offers a free-text update to the engine.
func (a *dialogAdapter) HandleText(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	ev := dialog.TextEvent(c.Sender().ID, c.Text())
	res := a.engine.HandleEvent(ctx, ev)
	return a.finish(c, res)
}

// HandleCallback offers a button press to the engine. It reports false when
// no session transition and no entry trigger matched, so the router can try
// its own fallbacks.
func (a *dialogAdapter) HandleCallback(c tele.Context) (bool, error) {
	ctx := tghelpers.BuildContext(c)
	key, payload := callbacks.ParseCallbackData(c.Callback())
	ev := dialog.CallbackEvent(c.Sender().ID, key, payload)
	res := a.engine.HandleEvent(ctx, ev)
	if res.Kind == dialog.ResultUnmatched && res.Workflow == "" {
		return false, nil
	}
	return true, a.finish(c, res)
}

// finish notifies the user about action failures; the engine already left
// the session untouched, so the same input can simply be retried.
func (a *dialogAdapter) finish(c tele.Context, res dialog.Result) error {
	if !res.Failed() {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	lang := userLang(c)
	if serr := a.deps.Sender.Send(ctx, c.Sender().ID, texts.T(lang, "error")); serr != nil {
		return serr
	}
	return res.Err
}

func userLang(c tele.Context) string {
	if sender := c.Sender(); sender != nil && sender.LanguageCode != "" {
		switch sender.LanguageCode {
		case "ru", "en":
			return sender.LanguageCode
		}
	}
	return texts.DefaultLang
}
