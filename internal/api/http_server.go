package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"otelshin/internal/config"
	"otelshin/internal/database"
	"otelshin/internal/domain"
	"otelshin/internal/metrics"
	"otelshin/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// HTTPServer обслуживает эндпоинт проверки сессий, который опрашивает веб-клиент,
// плюс заказы клиента. Никакого состояния между запросами: читает хранилище
// и отвечает.
type HTTPServer struct {
	cfg      config.APIConfig
	checker  domain.SessionChecker
	orders   domain.OrderSource
	limiters sync.Map // map[string]*rate.Limiter
	server   *http.Server
	logger   *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, checker domain.SessionChecker, orders domain.OrderSource, logger *zerolog.Logger) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{cfg: cfg, checker: checker, orders: orders, logger: logger}

	mux.HandleFunc("/api/v1/auth/check", srv.handleAuthCheck)
	mux.HandleFunc("/api/v1/profile", srv.handleProfile)
	mux.HandleFunc("/api/v1/orders", srv.handleOrders)
	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := srv.loggingMiddleware(srv.rateLimitMiddleware(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// handleAuthCheck отвечает веб-клиенту, авторизована ли сессия. Формат
// ответа стабилен: authorized есть всегда, user только при успехе.
func (s *HTTPServer) handleAuthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeAuthError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		metrics.IncAuthCheck("bad_request")
		writeAuthError(w, http.StatusBadRequest, "Session ID required")
		return
	}

	result, err := s.checker.CheckSession(r.Context(), sessionID)
	if err != nil {
		metrics.IncAuthCheck("error")
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("session check failed")
		writeAuthError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !result.Authorized || result.Profile == nil {
		metrics.IncAuthCheck("unauthorized")
		writeJSON(w, http.StatusOK, map[string]any{"authorized": false})
		return
	}

	metrics.IncAuthCheck("authorized")
	writeJSON(w, http.StatusOK, map[string]any{
		"authorized": true,
		"user": map[string]any{
			"id":             result.Profile.ID,
			"chat_id":        result.Profile.ChatID,
			"client_name":    result.Profile.Name,
			"phone":          result.Profile.Phone,
			"car_number":     result.Profile.CarNumber,
			"client_address": result.Profile.Address,
			"is_admin":       result.Profile.IsAdmin,
		},
	})
}

// handleProfile отдает полный профиль авторизованной сессии для кабинета.
func (s *HTTPServer) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "Session ID required")
		return
	}

	result, err := s.checker.CheckSession(r.Context(), sessionID)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("profile lookup failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !result.Authorized || result.Profile == nil {
		writeError(w, http.StatusUnauthorized, "session is not authorized")
		return
	}

	writeJSON(w, http.StatusOK, result.Profile)
}

// handleOrders отдает заказы клиента при строгом совпадении телефона и chat id.
func (s *HTTPServer) handleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	phone := strings.TrimSpace(r.URL.Query().Get("phone"))
	if models.NormalizePhone(phone) == "" {
		writeError(w, http.StatusBadRequest, "phone is required")
		return
	}

	chatID, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("chat_id")), 10, 64)
	if err != nil || chatID == 0 {
		writeError(w, http.StatusBadRequest, "chat_id is required")
		return
	}

	if s.orders == nil {
		writeError(w, http.StatusServiceUnavailable, "orders source is not configured")
		return
	}

	orders, err := s.orders.OrdersByPhoneAndChatID(r.Context(), phone, chatID)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrPhoneChatIDMismatch):
			writeErrorKind(w, http.StatusForbidden, "PHONE_CHATID_MISMATCH", "phone belongs to a different account")
		case errors.Is(err, database.ErrNotFound):
			writeErrorKind(w, http.StatusNotFound, "USER_NOT_FOUND", "phone is not registered")
		default:
			s.logger.Error().Err(err).Int64("chat_id", chatID).Msg("orders lookup failed")
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	if orders == nil {
		orders = []*models.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// rateLimitMiddleware ограничивает частоту запросов по клиенту. Ключом служит
// сессия, если она есть, иначе IP: один настойчивый поллер не должен
// выжимать остальных.
func (s *HTTPServer) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.RateLimit.RPS <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		lim := s.getLimiter(clientKey(r))
		if !lim.Allow() {
			metrics.IncAuthCheck("rate_limited")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if session := strings.TrimSpace(r.URL.Query().Get("session")); session != "" {
		return session
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (s *HTTPServer) getLimiter(key string) *rate.Limiter {
	if v, ok := s.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := s.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(s.cfg.RateLimit.RPS), burst)
	actual, loaded := s.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		l := s.logger.With().Str("request_id", requestID).Logger()
		next.ServeHTTP(recorder, r.WithContext(l.WithContext(r.Context())))

		l.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeAuthError всегда несет authorized=false: клиентский поллер разбирает
// это поле, не код ответа.
func writeAuthError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{"authorized": false, "error": message})
}

func writeErrorKind(w http.ResponseWriter, statusCode int, kind, message string) {
	writeJSON(w, statusCode, map[string]string{"kind": kind, "error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
