package notify

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier pushes messages to a fixed chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

var _ Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier authenticates the bot token and resolves the chat id.
func NewTelegramNotifier(token, chatIDStr string) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", chatIDStr, err)
	}

	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (n *TelegramNotifier) Send(subject, body string) error {
	msg := tgbotapi.NewMessage(n.chatID, subject+"\n\n"+body)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
