package router

import (
	"time"

	tg "github.com/m3rciful/contentbot/core/telegram"
	"github.com/m3rciful/contentbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Dialog is the minimal interface the routers need from the conversation
// engine: whether an owner has an active session, and handlers that feed
// the update into it.
type Dialog interface {
	InProgress(userID int64) bool
	HandleText(c tele.Context) error
	// HandleCallback offers a callback update to the engine. It reports
	// false when the engine had no session or trigger for it.
	HandleCallback(c tele.Context) (bool, error)
}

// TextOptions controls fallback behaviour for text/document updates.
type TextOptions struct {
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// TextRoutes builds handlers for text and document routing. Active dialogues
// win over commands, so a user mid-conversation can type free text without
// it being swallowed by command lookup.
func TextRoutes(dlg Dialog, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if dlg != nil && dlg.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "dialog", start, "", "", func() error {
				return dlg.HandleText(c)
			})
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	docHandler := func(c tele.Context) error {
		start := time.Now()
		if dlg != nil && dlg.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "dialog_document", start, "", "", func() error {
				return dlg.HandleText(c)
			})
		}
		if opts.UnknownDocument != nil {
			return handleWithSummary(c, "unexpected_document", start, "", "", func() error {
				return opts.UnknownDocument(c)
			})
		}
		logHandlerSummary(c, "unexpected_document", start, "skip", "ok", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
		{
			Endpoint: tele.OnDocument,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(docHandler)),
		},
	}
}
