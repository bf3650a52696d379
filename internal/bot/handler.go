package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"otelshin/internal/database"
	"otelshin/internal/events"
	"otelshin/internal/metrics"
	"otelshin/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleMessage(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message

	switch ev := ClassifyMessage(msg).(type) {
	case StartWithSession:
		metrics.IncWebhookEvent("start_session")
		b.handleStartWithSession(ctx, msg, ev.SessionID)
	case StartBare:
		metrics.IncWebhookEvent("start_bare")
		b.handleStartBare(ctx, msg)
	case ContactShared:
		metrics.IncWebhookEvent("contact")
		b.handleContactShared(ctx, msg, ev)
	case Other:
		metrics.IncWebhookEvent("other")
		b.handleOther(ctx, msg, ev)
	}
}

// handleStartWithSession обрабатывает переход по deep link с сайта. Сессия после этого
// считается авторизованной; повторный переход по той же ссылке безопасен.
func (b *Bot) handleStartWithSession(ctx context.Context, msg *tgbotapi.Message, sessionID string) {
	chatID := msg.Chat.ID
	name := displayName(msg.From)

	b.saveClient(ctx, msg)

	phone := ""
	if client, err := b.directory.GetClientByChatID(ctx, chatID); err == nil {
		phone = client.Phone
		if client.Name != "" {
			name = client.Name
		}
	}

	if err := b.sessions.Authorize(ctx, sessionID, chatID, name, phone); err != nil {
		b.logger.Error().Err(err).Str("session_id", sessionID).Int64("chat_id", chatID).Msg("Failed to authorize session")
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	b.enqueueSessionMirror(ctx, &models.Session{
		SessionID:  sessionID,
		ChatID:     chatID,
		UserName:   name,
		Phone:      phone,
		Authorized: true,
		CreatedAt:  time.Now(),
	})

	if b.metrics != nil {
		b.metrics.SessionsCreated.WithLabelValues("deep_link").Inc()
	}
	b.logger.Info().Str("session_id", sessionID).Int64("chat_id", chatID).Msg("Session authorized via deep link")

	text := fmt.Sprintf(
		"Здравствуйте, %s! 👋\n\nВы успешно авторизованы на сайте ОтельШин.\nВернитесь на вкладку браузера — личный кабинет уже открывается.",
		name)
	if phone != "" {
		text += fmt.Sprintf("\n\nВаш профиль:\n%s\n📱 %s", name, phone)
	}
	reply := tgbotapi.NewMessage(chatID, text)
	reply.ReplyMarkup = b.dashboardKeyboard(sessionID)
	b.send(reply)

	if phone == "" {
		ask := tgbotapi.NewMessage(chatID,
			"Чтобы мы узнавали вас в заказах, поделитесь номером телефона кнопкой ниже.")
		ask.ReplyMarkup = contactKeyboard()
		b.send(ask)
	}
}

// handleStartBare: пользователь пришел в бота напрямую, без ссылки с сайта.
func (b *Bot) handleStartBare(ctx context.Context, msg *tgbotapi.Message) {
	b.saveClient(ctx, msg)

	// Клиент с известным телефоном получает справку по профилю,
	// авторизовывать здесь нечего: сессии с сайта нет.
	if client, err := b.directory.GetClientByChatID(ctx, msg.Chat.ID); err == nil && client.Phone != "" {
		reply := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf(
			"Здравствуйте, %s! 👋\n\nВаш профиль:\n%s\n📱 %s\n\n"+
				"Чтобы войти в кабинет, откройте сайт и нажмите «Войти через Telegram».",
			client.Name, client.Name, client.Phone))
		reply.ReplyMarkup = b.siteKeyboard()
		b.send(reply)
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID,
		"Здравствуйте! Это бот шинного отеля «ОтельШин» 🛞\n\n"+
			"Чтобы войти в личный кабинет, поделитесь номером телефона кнопкой ниже.\n"+
			"Если вы пришли с сайта — вернитесь и нажмите «Войти через Telegram» ещё раз.")
	reply.ReplyMarkup = contactKeyboard()
	b.send(reply)
}

// handleContactShared: пользователь поделился контактом. Бот сам создает
// авторизованную сессию и отдает ссылку в кабинет.
func (b *Bot) handleContactShared(ctx context.Context, msg *tgbotapi.Message, ev ContactShared) {
	chatID := msg.Chat.ID

	// Чужой контакт не принимаем: владельцем должен быть сам отправитель.
	if ev.OwnerID != 0 && ev.OwnerID != msg.From.ID {
		b.sendMessage(chatID, "⚠️ Пожалуйста, поделитесь своим собственным контактом через кнопку.")
		return
	}

	phone := models.NormalizePhone(ev.Phone)
	if phone == "" {
		b.sendMessage(chatID, "⚠️ Не удалось прочитать номер телефона. Попробуйте ещё раз.")
		return
	}

	// Телефон, уже привязанный к другому чату, получает отказ с объяснением.
	if existing, err := b.directory.GetClientByPhone(ctx, phone); err == nil && existing.ChatID != chatID {
		b.logger.Warn().Int64("chat_id", chatID).Int64("owner_chat_id", existing.ChatID).Msg("Phone belongs to another chat")
		b.sendMessage(chatID, b.getErrorMessage(database.ErrPhoneChatIDMismatch))
		return
	}

	name := strings.TrimSpace(ev.FirstName + " " + ev.LastName)
	if name == "" {
		name = displayName(msg.From)
	}

	if err := b.directory.UpdateClientPhone(ctx, chatID, phone, name); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			err = b.directory.CreateOrUpdateClient(ctx, &models.Client{
				ChatID:       chatID,
				Name:         name,
				Phone:        phone,
				LastActivity: time.Now(),
			})
		}
		if err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to save client phone")
			b.sendMessage(chatID, b.getErrorMessage(err))
			return
		}
	}

	b.eventBus.PublishJSON(events.EventPhoneCaptured, events.ClientEventPayload{ChatID: chatID, Name: name, Phone: phone})

	// Серверная сессия: кабинет открывается по ссылке из бота.
	sessionID := models.NewServerSessionID(chatID)
	if err := b.sessions.Authorize(ctx, sessionID, chatID, name, phone); err != nil {
		b.logger.Error().Err(err).Str("session_id", sessionID).Int64("chat_id", chatID).Msg("Failed to authorize server session")
		b.sendMessage(chatID, b.getErrorMessage(err))
		return
	}

	b.enqueueSessionMirror(ctx, &models.Session{
		SessionID:  sessionID,
		ChatID:     chatID,
		UserName:   name,
		Phone:      phone,
		Authorized: true,
		CreatedAt:  time.Now(),
	})
	b.enqueueClientMirror(ctx, chatID)

	if b.metrics != nil {
		b.metrics.SessionsCreated.WithLabelValues("contact").Inc()
	}
	b.logger.Info().Str("session_id", sessionID).Int64("chat_id", chatID).Msg("Server session created from contact")

	reply := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"Спасибо, %s! Номер сохранён ✅\n\nЛичный кабинет доступен по кнопке ниже.", name))
	reply.ReplyMarkup = b.dashboardKeyboard(sessionID)
	b.send(reply)

	// Убираем клавиатуру запроса контакта.
	remove := tgbotapi.NewMessage(chatID, "Кнопки входа сохранены в этом чате.")
	remove.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	b.send(remove)
}

func (b *Bot) handleOther(ctx context.Context, msg *tgbotapi.Message, ev Other) {
	switch ev.Command {
	case "help":
		b.sendHelp(msg.Chat.ID)
	case "site":
		reply := tgbotapi.NewMessage(msg.Chat.ID, "Наш сайт и личный кабинет:")
		reply.ReplyMarkup = b.siteKeyboard()
		b.send(reply)
	case "export":
		b.handleExportClients(ctx, msg)
	case "stats":
		b.handleStats(ctx, msg)
	default:
		b.sendHelp(msg.Chat.ID)
	}
}

func (b *Bot) sendHelp(chatID int64) {
	reply := tgbotapi.NewMessage(chatID,
		"Я помогаю входить в личный кабинет ОтельШин.\n\n"+
			"/start — войти или привязать аккаунт\n"+
			"/site — ссылки на сайт и кабинет\n"+
			"/help — эта справка\n\n"+
			fmt.Sprintf("По вопросам хранения шин: %s", b.config.Manager))
	b.send(reply)
}

// saveClient заводит или обновляет запись клиента по данным Telegram.
func (b *Bot) saveClient(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	client := &models.Client{
		ChatID:       msg.Chat.ID,
		Name:         displayName(msg.From),
		LastActivity: time.Now(),
	}
	if err := b.directory.CreateOrUpdateClient(ctx, client); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("Failed to save client")
		return
	}
	b.enqueueClientMirror(ctx, msg.Chat.ID)
}

func (b *Bot) enqueueSessionMirror(ctx context.Context, session *models.Session) {
	if b.sheetsWorker == nil {
		return
	}
	if err := b.sheetsWorker.EnqueueSession(ctx, session); err != nil {
		b.logger.Error().Err(err).Str("session_id", session.SessionID).Msg("Failed to enqueue session mirror")
	}
}

func (b *Bot) enqueueClientMirror(ctx context.Context, chatID int64) {
	if b.sheetsWorker == nil {
		return
	}
	client, err := b.directory.GetClientByChatID(ctx, chatID)
	if err != nil {
		return
	}
	if err := b.sheetsWorker.EnqueueClient(ctx, client); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to enqueue client mirror")
	}
}

func displayName(user *tgbotapi.User) string {
	if user == nil {
		return ""
	}
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.UserName
	}
	return name
}
