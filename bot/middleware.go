package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/contentbot/bot/storage"
	"github.com/m3rciful/contentbot/core/logger"
	tghelpers "github.com/m3rciful/contentbot/core/telegram/helpers"
	"log/slog"
)

// UserSyncMiddleware upserts the sender on every update and records inbound
// text messages, so exports and broadcast recipient lists stay current.
func UserSyncMiddleware(users *storage.Users, messages *storage.Messages) func(next tele.HandlerFunc) tele.HandlerFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil || sender.IsBot {
				return next(c)
			}

			ctx := tghelpers.BuildContext(c)
			u := &storage.User{
				ID:        sender.ID,
				Name:      sender.Username,
				FirstName: sender.FirstName,
				LastName:  sender.LastName,
				Lang:      sender.LanguageCode,
			}
			if err := users.Upsert(ctx, u); err != nil {
				logger.SVCUsers.WarnContext(ctx, "User upsert failed",
					slog.Int64("user_id", sender.ID),
					slog.String("err", err.Error()),
				)
			}

			if messages != nil && c.Message() != nil && c.Message().Text != "" {
				if err := messages.Add(ctx, sender.ID, c.Message().Text); err != nil {
					logger.SVCUsers.WarnContext(ctx, "Message record failed",
						slog.Int64("user_id", sender.ID),
						slog.String("err", err.Error()),
					)
				}
			}

			return next(c)
		}
	}
}
