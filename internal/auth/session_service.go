package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"otelshin/internal/database"
	"otelshin/internal/domain"
	"otelshin/internal/events"
	"otelshin/internal/metrics"
	"otelshin/internal/models"

	"github.com/rs/zerolog"
)

// SessionService реализует протокол сессионной авторизации поверх
// хранилища сессий и справочника клиентов. Authorize вызывает только бот,
// CheckSession вызывает только эндпоинт проверки.
type SessionService struct {
	store     domain.SessionStore
	directory domain.ClientDirectory
	eventBus  domain.EventPublisher
	logger    *zerolog.Logger
}

func NewSessionService(store domain.SessionStore, directory domain.ClientDirectory, eventBus domain.EventPublisher, logger *zerolog.Logger) *SessionService {
	return &SessionService{
		store:     store,
		directory: directory,
		eventBus:  eventBus,
		logger:    logger,
	}
}

// Authorize помечает сессию авторизованной для данного chat id. Идемпотентна:
// повторный вызов для уже авторизованной сессии перезаписывает запись теми же
// данными, хранилище гарантирует, что флаг authorized не откатится.
func (s *SessionService) Authorize(ctx context.Context, sessionID string, chatID int64, userName, phone string) error {
	if !models.ValidSessionID(sessionID) {
		return fmt.Errorf("invalid session id %q", sessionID)
	}
	if chatID == 0 {
		return errors.New("chat id is required to authorize a session")
	}

	session := &models.Session{
		SessionID:  sessionID,
		ChatID:     chatID,
		UserName:   userName,
		Phone:      phone,
		Authorized: true,
		CreatedAt:  time.Now(),
	}

	if err := s.store.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	metrics.IncSessionAuthorized()
	_ = s.eventBus.PublishJSON(events.EventSessionAuthorized, events.SessionEventPayload{
		SessionID:  sessionID,
		ChatID:     chatID,
		UserName:   userName,
		Phone:      phone,
		Authorized: true,
		CreatedAt:  session.CreatedAt,
	})

	s.logger.Info().Str("session_id", sessionID).Int64("chat_id", chatID).Msg("session authorized")
	return nil
}

// CheckSession реализует контракт эндпоинта проверки. Отсутствующая или еще
// не авторизованная сессия считается ожидаемым состоянием опроса, не ошибкой.
// Только чтение, безопасно вызывать сколько угодно раз.
func (s *SessionService) CheckSession(ctx context.Context, sessionID string) (*domain.AuthResult, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session == nil || !session.Authorized {
		return &domain.AuthResult{Authorized: false}, nil
	}

	// Профиль обогащается из справочника; поля сессии служат запасными значениями,
	// чтобы авторизованная сессия никогда не вернулась пустой.
	profile := &models.Profile{
		ID:     strconv.FormatInt(session.ChatID, 10),
		Name:   session.UserName,
		Phone:  session.Phone,
		ChatID: strconv.FormatInt(session.ChatID, 10),
	}

	client, err := s.directory.GetClientByChatID(ctx, session.ChatID)
	switch {
	case err == nil:
		if client.Name != "" {
			profile.Name = client.Name
		}
		if client.Phone != "" {
			profile.Phone = client.Phone
		}
		profile.Address = client.Address
		profile.CarNumber = client.CarNumber
		profile.IsAdmin = client.IsAdmin
	case errors.Is(err, database.ErrNotFound):
		// клиент еще не попал в справочник, остаёмся на полях сессии
	default:
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("directory lookup failed, using session fields")
	}

	return &domain.AuthResult{Authorized: true, Profile: profile}, nil
}
