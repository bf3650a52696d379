package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// WebhookServer принимает обновления от Telegram по HTTP. Ответ всегда
// 200 "OK": иначе Telegram будет бесконечно повторять доставку, а свои сбои
// мы и так видим в логах.
type WebhookServer struct {
	bot  *Bot
	srv  *http.Server
	path string
}

func NewWebhookServer(bot *Bot, port int, path string) *WebhookServer {
	if path == "" {
		path = "/webhook"
	}

	ws := &WebhookServer{bot: bot, path: path}

	mux := http.NewServeMux()
	mux.HandleFunc(path, ws.handleUpdate)

	ws.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return ws
}

func (ws *WebhookServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	defer func() {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}()

	if r.Method != http.MethodPost {
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		ws.bot.logger.Warn().Err(err).Msg("Failed to decode webhook update")
		return
	}

	ws.bot.ProcessUpdate(r.Context(), update)
}

// Start блокируется до остановки сервера.
func (ws *WebhookServer) Start() error {
	ws.bot.logger.Info().Str("addr", ws.srv.Addr).Str("path", ws.path).Msg("Webhook server starting")
	if err := ws.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (ws *WebhookServer) Shutdown(ctx context.Context) error {
	return ws.srv.Shutdown(ctx)
}
