package bot

import (
	"bytes"
	"context"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/contentbot/core/broadcast"
	"github.com/m3rciful/contentbot/core/telegram/keyboard"
	tgsender "github.com/m3rciful/contentbot/core/telegram/sender"
)

// botAPI is the slice of *tele.Bot the transport needs; narrowed for tests.
type botAPI interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	SendAlbum(to tele.Recipient, a tele.Album, opts ...interface{}) ([]tele.Message, error)
}

// telegramSender delivers workflow replies through the outbound dispatcher,
// so slow Telegram calls never hold the per-owner dialogue lock.
type telegramSender struct {
	bot        botAPI
	dispatcher *tgsender.Dispatcher
}

func newTelegramSender(bot botAPI, d *tgsender.Dispatcher) *telegramSender {
	return &telegramSender{bot: bot, dispatcher: d}
}

// Send implements workflows.Sender. Rows are rendered one inline row each.
func (s *telegramSender) Send(ctx context.Context, userID int64, text string, rows ...[]keyboard.InlineBtn) error {
	to := &tele.User{ID: userID}
	var args []interface{}
	if len(rows) > 0 {
		args = append(args, keyboard.InlineButtonsRows(rows...))
	}
	return s.dispatcher.Enqueue(ctx, "send", "message", func() error {
		_, err := s.bot.Send(to, text, args...)
		return err
	})
}

// SendDocument implements workflows.Sender.
func (s *telegramSender) SendDocument(ctx context.Context, userID int64, filename string, data []byte, caption string) error {
	to := &tele.User{ID: userID}
	doc := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(data)),
		FileName: filename,
		Caption:  caption,
	}
	return s.dispatcher.Enqueue(ctx, "send", "document", func() error {
		_, err := s.bot.Send(to, doc)
		return err
	})
}

// SendVideoGroup implements workflows.Sender.
func (s *telegramSender) SendVideoGroup(ctx context.Context, userID int64, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	to := &tele.User{ID: userID}
	album := make(tele.Album, 0, len(urls))
	for _, u := range urls {
		album = append(album, &tele.Video{File: tele.FromURL(u)})
	}
	return s.dispatcher.Enqueue(ctx, "send", "mediaGroup", func() error {
		_, err := s.bot.SendAlbum(to, album)
		return err
	})
}

// broadcastDeliverer sends broadcast payloads synchronously so the
// scheduler sees and logs per-recipient failures.
func broadcastDeliverer(bot botAPI) broadcast.Deliverer {
	return broadcast.DeliverFunc(func(ctx context.Context, recipient int64, p broadcast.Payload) error {
		if p.Text == "" && p.MediaRef == "" {
			return fmt.Errorf("broadcast: empty payload")
		}
		to := &tele.User{ID: recipient}
		if p.MediaRef != "" {
			photo := &tele.Photo{File: tele.File{FileID: p.MediaRef}, Caption: p.Text}
			_, err := bot.Send(to, photo)
			return err
		}
		_, err := bot.Send(to, p.Text)
		return err
	})
}
