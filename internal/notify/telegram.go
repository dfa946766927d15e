// Package notify pushes trade alerts to Telegram. Entirely optional: the bot
// runs without a token, and send failures are logged and dropped.
package notify

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Telegram sends one-way alerts to a fixed chat.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram creates the notifier. Returns an error when the token is
// rejected by the Telegram API.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Info().Str("username", api.Self.UserName).Msg("Telegram notifier initialized")
	return &Telegram{api: api, chatID: chatID}, nil
}

// Notify sends a plain-text message. Best-effort; the trading loop never
// depends on delivery.
func (t *Telegram) Notify(text string) {
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.api.Send(msg); err != nil {
		log.Warn().Err(err).Msg("Failed to send Telegram alert")
	}
}
