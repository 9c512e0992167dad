package router

import (
	"time"

	tg "github.com/m3rciful/contentbot/core/telegram"
	"github.com/m3rciful/contentbot/core/telegram/middleware"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute returns a handler that routes callbacks through the registry
// first and then through the dialogue engine, so registry keys stay global
// while session-scoped buttons and entry triggers reach the engine.
func CallbackRoute(reg *tg.Registry, dlg Dialog, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key, _ := parseCallback(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		_ = c.Respond()

		if reg != nil {
			if cbHandler, ok := reg.GetCallback(key); ok && cbHandler != nil {
				return handleWithSummary(c, name, start, "", "", func() error {
					return cbHandler(c)
				}, extras...)
			}
		}

		if dlg != nil {
			handled, derr := dlg.HandleCallback(c)
			if handled || derr != nil {
				logHandlerSummary(c, name, start, "", "", derr, extras...)
				return derr
			}
		}

		fallback := opts.NotFound
		if reg != nil && reg.CallbackNotFound() != nil {
			fallback = reg.CallbackNotFound()
		}
		extras = append(extras, slog.String("reason", "not_found"))
		return handleWithSummary(c, name, start, "", "", func() error {
			if fallback != nil {
				return fallback(c)
			}
			return nil
		}, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
