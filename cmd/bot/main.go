package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"otelshin/internal/auth"
	"otelshin/internal/bot"
	"otelshin/internal/config"
	"otelshin/internal/database"
	"otelshin/internal/domain"
	"otelshin/internal/events"
	"otelshin/internal/google"
	"otelshin/internal/logging"
	"otelshin/internal/metrics"
	"otelshin/internal/repository"
	"otelshin/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	loadExtraAdmins(cfg, &logger)

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sheetsService := initGoogleSheets(ctx, cfg, &logger)

	redisClient, store := initSessionStore(ctx, cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Воркер зеркалирования в Google Sheets. Интерфейс остается nil,
	// если Sheets не настроен, бот тогда пропускает зеркалирование.
	var syncWorker domain.SyncWorker
	if sheetsService != nil {
		retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
		sheetsWorker := worker.NewSheetsWorker(db, sheetsService, redisClient, retryPolicy, &logger)
		go sheetsWorker.Start(ctx)
		syncWorker = sheetsWorker
	}

	eventBus := events.NewEventBus()
	subscribeAuthEvents(eventBus, &logger)

	sessions := auth.NewSessionService(store, db, eventBus, &logger)
	botMetrics := bot.NewMetrics()

	startMetrics(ctx, cfg, &logger)

	return startBot(ctx, cfg, store, sessions, db, syncWorker, eventBus, botMetrics, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "bot-main").Logger()

	return cfg, logger, closer, nil
}

// loadExtraAdmins подмешивает администраторов из отдельного файла: основной
// конфиг деплоится из репозитория, список админов живет на сервере.
func loadExtraAdmins(cfg *config.Config, logger *zerolog.Logger) {
	adminsPath := os.Getenv("ADMINS_PATH")
	if adminsPath == "" {
		adminsPath = "configs/admins.yaml"
	}

	data, err := os.ReadFile(adminsPath)
	if err != nil {
		return
	}

	var extra struct {
		Admins  []int64 `yaml:"admins"`
		Manager string  `yaml:"manager_contact"`
	}
	if err := yaml.Unmarshal(data, &extra); err != nil {
		logger.Warn().Err(err).Str("admins_path", adminsPath).Msg("Ошибка парсинга admins.yaml")
		return
	}

	cfg.Admins = append(cfg.Admins, extra.Admins...)
	if extra.Manager != "" {
		cfg.Manager = extra.Manager
	}
	logger.Info().Int("admins", len(cfg.Admins)).Msg("Admins loaded")
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
		return err
	}
	return nil
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.CredentialsFile == "" || cfg.Google.SpreadsheetID == "" {
		logger.Warn().Msg("Google Sheets не настроен, зеркалирование отключено")
		return nil
	}

	sheetsService, err := google.NewSheetsService(
		cfg.Google.CredentialsFile,
		cfg.Google.SpreadsheetID,
		cfg.Google.SessionsSheet,
		cfg.Google.WebBaseSheet,
		cfg.Google.OrdersSheet,
	)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Google Sheets service")
		return nil
	}

	if err := sheetsService.EnsureSessionsSheet(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to ensure sessions sheet")
	}

	logger.Info().Msg("Google Sheets service initialized successfully")
	return sheetsService
}

func initSessionStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *repository.FailoverSessionStore) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable")
		}
	}

	primary := repository.NewRedisSessionStore(redisClient, cfg.Auth.SessionTTL, cfg.Auth.AuthorizedTTL)
	fallback := repository.NewMemorySessionStore(cfg.Auth.SessionTTL)
	return redisClient, repository.NewFailoverSessionStore(primary, fallback, logger)
}

func subscribeAuthEvents(eventBus *events.EventBus, logger *zerolog.Logger) {
	eventBus.Subscribe(events.EventSessionAuthorized, func(event *events.Event) error {
		logger.Info().RawJSON("payload", event.Payload).Msg("session authorized")
		return nil
	})
	eventBus.Subscribe(events.EventPhoneCaptured, func(event *events.Event) error {
		logger.Info().RawJSON("payload", event.Payload).Msg("phone captured")
		return nil
	})
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Int("port", port).Msg("Prometheus metrics listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

func startBot(
	ctx context.Context,
	cfg *config.Config,
	store *repository.FailoverSessionStore,
	sessions *auth.SessionService,
	db *database.DB,
	syncWorker domain.SyncWorker,
	eventBus *events.EventBus,
	botMetrics *bot.Metrics,
	logger *zerolog.Logger,
) error {
	if cfg.Telegram.BotToken == "" || cfg.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		logger.Error().Msg("Задайте токен бота в config.yaml")
		return os.ErrInvalid
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug

	telegramBot, err := bot.NewBot(
		bot.NewBotWrapper(botAPI), cfg, store, sessions,
		db, syncWorker, eventBus, botMetrics, logger,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания бота")
		return err
	}

	// Вебхук или long polling, по конфигу.
	if cfg.Telegram.WebhookURL != "" {
		webhook, err := tgbotapi.NewWebhook(cfg.Telegram.WebhookURL)
		if err != nil {
			logger.Error().Err(err).Msg("Ошибка конфигурации вебхука")
			return err
		}
		if _, err := botAPI.Request(webhook); err != nil {
			logger.Error().Err(err).Msg("Ошибка регистрации вебхука")
			return err
		}

		ws := bot.NewWebhookServer(telegramBot, cfg.Telegram.WebhookPort, "/webhook")
		go func() {
			if err := ws.Start(); err != nil {
				logger.Error().Err(err).Msg("Webhook server error")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ws.Shutdown(shutdownCtx)
		}()

		logger.Info().Msg("Бот запущен (webhook)...")
		<-ctx.Done()
	} else {
		logger.Info().Msg("Бот запущен (long polling)...")
		telegramBot.Start(ctx)
	}

	logger.Info().Msg("Shutdown complete.")
	return nil
}
