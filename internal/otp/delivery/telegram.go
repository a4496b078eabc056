package delivery

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// botAPI is the slice of tgbotapi.BotAPI the sender uses; swapped for a
// fake in tests.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender posts codes to an operator channel instead of texting the
// phone directly. Useful for pilots where the operator relays codes by hand.
type TelegramSender struct {
	bot    botAPI
	chatID int64
}

// NewTelegramSender connects the bot and returns a sender posting to chatID.
func NewTelegramSender(token string, chatID int64) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &TelegramSender{bot: bot, chatID: chatID}, nil
}

// Send posts the code with the destination phone to the operator channel.
func (s *TelegramSender) Send(phone, code string) error {
	msg := tgbotapi.NewMessage(s.chatID, fmt.Sprintf("OTP for %s: %s", phone, code))
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}
