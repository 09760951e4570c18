package service

import (
	"fmt"
	"log"

	"tradex-go/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// NotifierService delivers trade and status alerts over Telegram. When the
// bot token or chat ID is not configured the service stays disabled and every
// send becomes a no-op, so the trading loop never depends on Telegram being up.
type NotifierService struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	enabled bool
}

func NewNotifierService() *NotifierService {
	token := config.AppConfig.TelegramBotToken
	chatID := parseChatID(config.AppConfig.TelegramChatID)

	if token == "" || chatID == 0 {
		log.Println("⚠️ Telegram not configured, alerts disabled")
		return &NotifierService{enabled: false}
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		log.Printf("⚠️ Failed to create telegram bot, alerts disabled: %v", err)
		return &NotifierService{enabled: false}
	}

	log.Printf("✅ Telegram bot authorized: %s", bot.Self.UserName)

	return &NotifierService{
		bot:     bot,
		chatID:  chatID,
		enabled: true,
	}
}

// Enabled reports whether alerts will actually be delivered.
func (s *NotifierService) Enabled() bool {
	return s.enabled
}

// Send delivers a message to the configured chat. Delivery failures are
// logged and swallowed so an alert can never abort a trading cycle.
func (s *NotifierService) Send(message string) {
	if !s.enabled {
		return
	}

	msg := tgbotapi.NewMessage(s.chatID, message)
	msg.ParseMode = "HTML"

	if _, err := s.bot.Send(msg); err != nil {
		log.Printf("⚠️ Failed to send telegram message: %v", err)
	}
}

// parseChatID converts string chat ID to int64
func parseChatID(chatIDStr string) int64 {
	var chatID int64
	fmt.Sscanf(chatIDStr, "%d", &chatID)
	return chatID
}
