package bot

import (
	"errors"

	"otelshin/internal/database"
)

func (b *Bot) getErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, database.ErrPhoneChatIDMismatch) {
		return "⚠️ Этот номер телефона уже привязан к другому Telegram-аккаунту. Если это ваш номер, свяжитесь с менеджером: " + b.config.Manager
	}

	if errors.Is(err, database.ErrNotFound) {
		return "⚠️ Мы не нашли вас в базе клиентов. Свяжитесь с менеджером для оформления хранения: " + b.config.Manager
	}

	// Default error message
	return "❌ Произошла ошибка при обработке вашего запроса. Пожалуйста, попробуйте позже или обратитесь к менеджеру."
}
