package bot

import (
	"context"
	"sort"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/contentbot/bot/storage"
	"github.com/m3rciful/contentbot/bot/texts"
	"github.com/m3rciful/contentbot/bot/workflows"
	"github.com/m3rciful/contentbot/core/dialog"
	tghelpers "github.com/m3rciful/contentbot/core/telegram/helpers"
	"github.com/m3rciful/contentbot/core/telegram/keyboard"
)

// menuRows builds the main menu, appending admin actions for admins.
func menuRows(lang string, admin bool) [][]keyboard.InlineBtn {
	rows := [][]keyboard.InlineBtn{
		{{Text: texts.T(lang, "menu.analyze_account"), Unique: workflows.CbAnalyzeAccount}},
		{{Text: texts.T(lang, "menu.analyze_hashtag"), Unique: workflows.CbAnalyzeHashtag}},
		{{Text: texts.T(lang, "menu.generate_ideas"), Unique: workflows.CbGenerateIdeas}},
	}
	if admin {
		rows = append(rows,
			[]keyboard.InlineBtn{{Text: texts.T(lang, "admin_menu.send_message"), Unique: workflows.CbPublicMessage}},
			[]keyboard.InlineBtn{{Text: texts.T(lang, "admin_menu.add_admin"), Unique: workflows.CbAddAdmin}},
			[]keyboard.InlineBtn{{Text: texts.T(lang, "admin_menu.export_data"), Unique: workflows.CbExportData}},
		)
	}
	return rows
}

// sendMenu delivers the menu message with inline actions.
func (a *App) sendMenu(c tele.Context, lang string, admin bool) error {
	title := texts.T(lang, "menu.title")
	if admin {
		title = texts.T(lang, "admin_menu.title")
	}
	return tghelpers.SendKeyboard(c, title, keyboard.InlineButtonsRows(menuRows(lang, admin)...))
}

// handleStart greets the user and shows the menu.
func (a *App) handleStart(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	lang, admin := a.userMeta(ctx, c.Sender().ID)

	if err := tghelpers.SendText(c, texts.T(lang, "start")); err != nil {
		return err
	}
	return a.sendMenu(c, lang, admin)
}

// handleMenu abandons any active dialogue and shows the menu again.
func (a *App) handleMenu(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID

	a.engine.HandleEvent(ctx, dialog.CallbackEvent(userID, workflows.CbCancel, ""))

	lang, admin := a.userMeta(ctx, userID)
	return a.sendMenu(c, lang, admin)
}

// handleExport sends every table as a CSV document. Admin only.
func (a *App) handleExport(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID
	lang, admin := a.userMeta(ctx, userID)
	if !admin {
		return tghelpers.SendText(c, texts.T(lang, "no_rights"))
	}

	tables, err := a.exporter.ExportTables(ctx)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := a.deps.Sender.SendDocument(ctx, userID, name+".csv", tables[name], texts.T(lang, "export.ready")); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) userMeta(ctx context.Context, userID int64) (lang string, admin bool) {
	lang = texts.DefaultLang
	u, err := tghelpers.CurrentUser[*storage.User](ctx, a.users, userID)
	if err != nil || u == nil {
		return lang, false
	}
	if u.Lang != "" {
		lang = u.Lang
	}
	return lang, u.IsAdmin() || userID == a.cfg.Telegram.AdminID
}
