package models

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// Session связывает ожидающую авторизацию на сайте с будущим
// взаимодействием пользователя с ботом. Пишет в нее только бот.
type Session struct {
	SessionID  string    `json:"session_id"`
	ChatID     int64     `json:"chat_id"`
	UserName   string    `json:"user_name"`
	Phone      string    `json:"phone"`
	Authorized bool      `json:"authorized"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewSessionID генерирует клиентский идентификатор сессии для deep link.
// Формат повторяет веб-клиент: session_<millis>_<random base36>.
func NewSessionID(prefix string) string {
	if prefix == "" {
		prefix = SessionIDPrefix
	}
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), randomSuffix(9))
}

// NewServerSessionID генерирует серверный идентификатор сессии, привязанный
// к chat id. Используется ботом, когда пользователь уже в диалоге.
func NewServerSessionID(chatID int64) string {
	return fmt.Sprintf("telegram_%d_%d", chatID, time.Now().UnixMilli())
}

// ValidSessionID отсекает мусорные payload'ы команды /start.
func ValidSessionID(id string) bool {
	if len(id) <= MinSessionIDLength {
		return false
	}
	return !strings.ContainsAny(id, " \t\n")
}

func randomSuffix(n int) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}

// DeepLink собирает ссылку на бота с вшитым session id.
func DeepLink(botUsername, sessionID string) string {
	return "https://t.me/" + botUsername + "?start=" + sessionID
}

// ParseChatID разбирает chat id из строкового представления (лист
// telegram_sessions хранит его текстом).
func ParseChatID(raw string) int64 {
	id, _ := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	return id
}
