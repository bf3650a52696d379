package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"otelshin/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleStats показывает администратору статистику базы клиентов.
func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		b.sendMessage(msg.Chat.ID, "⛔ Команда доступна только администраторам.")
		return
	}

	clients, err := b.directory.ListClients(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Error getting clients for stats")
		b.sendMessage(msg.Chat.ID, "Ошибка при получении данных")
		return
	}

	withPhone := 0
	admins := 0
	active30 := 0
	activeSince := time.Now().AddDate(0, 0, -30)
	for _, client := range clients {
		if client.Phone != "" {
			withPhone++
		}
		if client.IsAdmin {
			admins++
		}
		if client.LastActivity.After(activeSince) {
			active30++
		}
	}

	var message strings.Builder
	message.WriteString("📊 *Статистика*\n\n")

	message.WriteString("👥 *Клиенты*\n")
	message.WriteString(fmt.Sprintf("Всего: *%d*\n", len(clients)))
	message.WriteString(fmt.Sprintf("С телефоном: *%d*\n", withPhone))
	message.WriteString(fmt.Sprintf("Активных (30д): *%d*\n", active30))
	message.WriteString(fmt.Sprintf("Администраторов: *%d*\n\n", admins))

	// ListClients отсортирован по последней активности
	message.WriteString("Последние клиенты:\n")
	count := 5
	if len(clients) < count {
		count = len(clients)
	}
	for i := 0; i < count; i++ {
		client := clients[i]
		emoji := "👤"
		if client.IsAdmin {
			emoji = "👨‍💼"
		} else if client.Phone == "" {
			emoji = "❔"
		}
		message.WriteString(fmt.Sprintf("%s %s - %s\n",
			emoji,
			client.Name,
			client.LastActivity.Format("02.01.2006")))
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, message.String())
	reply.ParseMode = models.ParseModeMarkdown
	b.send(reply)
}
