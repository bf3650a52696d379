package domain

import (
	"context"
	"time"

	"otelshin/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SessionStore хранит сессии авторизации. Единственная точка
// синхронизации между ботом и эндпоинтом проверки.
type SessionStore interface {
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	SaveSession(ctx context.Context, session *models.Session) error
	ClearSession(ctx context.Context, sessionID string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// ClientDirectory предоставляет справочник клиентов по chat id.
type ClientDirectory interface {
	GetClientByChatID(ctx context.Context, chatID int64) (*models.Client, error)
	GetClientByPhone(ctx context.Context, phone string) (*models.Client, error)
	CreateOrUpdateClient(ctx context.Context, client *models.Client) error
	UpdateClientPhone(ctx context.Context, chatID int64, phone, name string) error
	UpdateClientActivity(ctx context.Context, chatID int64) error
	ListClients(ctx context.Context) ([]*models.Client, error)
}

// OrderSource отдает заказы клиента при строгом совпадении телефона и chat id.
type OrderSource interface {
	OrdersByPhoneAndChatID(ctx context.Context, phone string, chatID int64) ([]*models.Order, error)
}

// SessionChecker описывает контракт эндпоинта проверки, который опрашивает веб-клиент.
type SessionChecker interface {
	CheckSession(ctx context.Context, sessionID string) (*AuthResult, error)
}

// AuthResult содержит ответ проверки сессии. Profile заполнен только при
// Authorized=true.
type AuthResult struct {
	Authorized bool
	Profile    *models.Profile
}

// TelegramSender абстрагирует Bot API для тестов.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

// EventPublisher публикует доменные события.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SheetsMirror зеркалирует записи в Google Sheets (система учета бизнеса).
type SheetsMirror interface {
	UpsertSession(ctx context.Context, session *models.Session) error
	UpsertClient(ctx context.Context, client *models.Client) error
}

// SyncWorker ставит задачи зеркалирования в очередь.
type SyncWorker interface {
	EnqueueSession(ctx context.Context, session *models.Session) error
	EnqueueClient(ctx context.Context, client *models.Client) error
}
