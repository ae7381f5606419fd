package notify

import (
	"context"

	"github.com/go-telegram/bot"
)

// MessageSender abstracts the chat delivery so the worker can be tested
// without a live bot.
type MessageSender interface {
	Send(ctx context.Context, chatID, text string) error
}

type TelegramSender struct {
	bot *bot.Bot
}

func NewTelegramSender(token string) (*TelegramSender, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, err
	}
	return &TelegramSender{bot: b}, nil
}

func (t *TelegramSender) Send(ctx context.Context, chatID, text string) error {
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	return err
}
