package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"otelshin/internal/domain"
	"otelshin/internal/models"

	"github.com/rs/zerolog"
)

// ErrPollTimeout возвращается, когда потолок опроса исчерпан, а сессия так и
// не авторизована. Для пользователя это "попробуйте снова", не фатальный сбой.
var ErrPollTimeout = errors.New("authorization polling timed out")

// Verifier отвечает на запросы агента опроса. В проде это HTTP-клиент
// эндпоинта проверки, в тестах заглушка.
type Verifier interface {
	Check(ctx context.Context, sessionID string) (*domain.AuthResult, error)
}

// PollerConfig задает цикл опроса. Потолок и интервал настраиваются,
// не зашитая константа протокола.
type PollerConfig struct {
	BotUsername   string
	SessionPrefix string
	Interval      time.Duration
	MaxPolls      int
}

// Callbacks уведомляют о завершении попытки. Каждый колбэк вызывается
// не более одного раза.
type Callbacks struct {
	OnSuccess func(profile *models.Profile)
	OnTimeout func()
}

// Poller реализует агент опроса на стороне веб-клиента: генерирует сессию, отдает
// deep link на бота и крутит цикл проверки до успеха, таймаута или отмены.
type Poller struct {
	verifier Verifier
	cfg      PollerConfig
	cache    *ProfileCache
	logger   *zerolog.Logger
}

func NewPoller(verifier Verifier, cfg PollerConfig, cache *ProfileCache, logger *zerolog.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = models.DefaultPollIntervalSeconds * time.Second
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = models.DefaultMaxPolls
	}
	return &Poller{
		verifier: verifier,
		cfg:      cfg,
		cache:    cache,
		logger:   logger,
	}
}

// Attempt описывает одну попытку авторизации.
type Attempt struct {
	SessionID string
	DeepLink  string

	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	profile *models.Profile
	err     error
}

// Wait блокируется до завершения попытки.
func (a *Attempt) Wait() (*models.Profile, error) {
	<-a.done
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.profile, a.err
}

// Cancel останавливает дальнейшие тики. Запрос в полете не прерывается,
// но его поздний ответ уже не производит побочных эффектов.
func (a *Attempt) Cancel() {
	a.cancel()
}

// Begin генерирует свежий session id, собирает deep link на бота и сразу
// запускает цикл опроса в фоне.
func (p *Poller) Begin(ctx context.Context, cb Callbacks) *Attempt {
	sessionID := models.NewSessionID(p.cfg.SessionPrefix)

	pollCtx, cancel := context.WithCancel(ctx)
	attempt := &Attempt{
		SessionID: sessionID,
		DeepLink:  models.DeepLink(p.cfg.BotUsername, sessionID),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go func() {
		defer close(attempt.done)
		defer cancel()

		profile, err := p.run(pollCtx, sessionID)

		attempt.mu.Lock()
		attempt.profile = profile
		attempt.err = err
		attempt.mu.Unlock()

		switch {
		case err == nil:
			if p.cache != nil {
				p.cache.Set(profile)
			}
			if cb.OnSuccess != nil {
				cb.OnSuccess(profile)
			}
		case errors.Is(err, ErrPollTimeout):
			if cb.OnTimeout != nil {
				cb.OnTimeout()
			}
		}
	}()

	return attempt
}

// run крутит цикл: один запрос на тик, тики не накладываются, следующий
// тик стандартный тикер просто пропускает, пока предыдущий запрос в работе.
func (p *Poller) run(ctx context.Context, sessionID string) (*models.Profile, error) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for poll := 1; poll <= p.cfg.MaxPolls; poll++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		result, err := p.verifier.Check(ctx, sessionID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Транзиентная ошибка не фатальна, ждем следующего тика.
			p.logger.Warn().Err(err).Str("session_id", sessionID).Int("poll", poll).Msg("verification poll failed")
			continue
		}

		if result.Authorized && result.Profile != nil {
			p.logger.Info().Str("session_id", sessionID).Int("poll", poll).Msg("authorization confirmed")
			return result.Profile, nil
		}
	}

	return nil, ErrPollTimeout
}
