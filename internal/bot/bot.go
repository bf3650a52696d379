package bot

import (
	"context"
	"os"
	"time"

	"otelshin/internal/auth"
	"otelshin/internal/config"
	"otelshin/internal/domain"
	"otelshin/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Bot struct {
	tg           domain.TelegramSender
	config       *config.Config
	store        domain.SessionStore
	sessions     *auth.SessionService
	directory    domain.ClientDirectory
	sheetsWorker domain.SyncWorker
	eventBus     domain.EventPublisher
	metrics      *Metrics
	logger       *zerolog.Logger
}

func NewBot(
	tg domain.TelegramSender,
	config *config.Config,
	store domain.SessionStore,
	sessions *auth.SessionService,
	directory domain.ClientDirectory,
	sheetsWorker domain.SyncWorker,
	eventBus domain.EventPublisher,
	metrics *Metrics,
	logger *zerolog.Logger,
) (*Bot, error) {
	if eventBus == nil {
		eventBus = events.NewEventBus()
	}

	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	return &Bot{
		tg:           tg,
		config:       config,
		store:        store,
		sessions:     sessions,
		directory:    directory,
		sheetsWorker: sheetsWorker,
		eventBus:     eventBus,
		metrics:      metrics,
		logger:       logger,
	}, nil
}

// Start запускает long polling. Останавливается по ctx.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tg.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tg.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.ProcessUpdate(ctx, update)
		}
	}
}

// Stop stops receiving Telegram updates (best-effort).
func (b *Bot) Stop() {
	if b == nil || b.tg == nil {
		return
	}
	b.tg.StopReceivingUpdates()
}

// ProcessUpdate обрабатывает одно обновление. Общая точка входа для long
// polling и вебхука.
func (b *Bot) ProcessUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		if b.metrics != nil {
			b.metrics.MessagesProcessed.Inc()
			b.metrics.UpdateProcessingTime.Observe(time.Since(start).Seconds())
		}
	}()

	updateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(func() {
		if update.Message == nil || update.Message.From == nil {
			return
		}
		userID := update.Message.From.ID

		// Track activity
		b.trackActivity(userID)

		if !b.isAdmin(userID) {
			allowed, err := b.store.CheckRateLimit(updateCtx, rateLimitKey(userID), b.config.Auth.RateLimitChecks, b.config.Auth.RateLimitWindow)
			if err != nil {
				b.logger.Error().Err(err).Int64("user_id", userID).Msg("Rate limit check failed")
			} else if !allowed {
				b.logger.Warn().Int64("user_id", userID).Msg("Rate limit exceeded")
				b.sendMessage(update.Message.Chat.ID, "⚠️ Вы отправляете сообщения слишком часто. Пожалуйста, подождите немного.")
				return
			}
		}

		b.handleMessage(updateCtx, update)
	})
}
