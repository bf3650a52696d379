package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) isAdmin(userID int64) bool {
	for _, adminID := range b.config.Admins {
		if userID == adminID {
			return true
		}
	}
	return false
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	b.send(msg)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.tg.Send(c); err != nil {
		b.logger.Error().Err(err).Msg("Failed to send message")
	}
}

// dashboardKeyboard собирает кнопки кабинета с вшитой сессией.
func (b *Bot) dashboardKeyboard(sessionID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔐 Личный Кабинет", b.config.DashboardURL(sessionID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🌐 Сайт", b.config.Web.BaseURL),
			tgbotapi.NewInlineKeyboardButtonURL("📄 Договор", b.config.Web.BaseURL+b.config.Web.ContractPath),
		),
	)
}

func (b *Bot) siteKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🌐 Сайт", b.config.Web.BaseURL),
			tgbotapi.NewInlineKeyboardButtonURL("📄 Договор", b.config.Web.BaseURL+b.config.Web.ContractPath),
		),
	)
}

func contactKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact("📱 Поделиться номером"),
		),
	)
	keyboard.OneTimeKeyboard = true
	keyboard.ResizeKeyboard = true
	return keyboard
}

func rateLimitKey(userID int64) string {
	return fmt.Sprintf("bot:%d", userID)
}
