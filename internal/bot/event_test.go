package bot

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startMessage(arg string) *tgbotapi.Message {
	text := "/start"
	entityLen := len(text)
	if arg != "" {
		text += " " + arg
	}
	return &tgbotapi.Message{
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: entityLen}},
		From:     &tgbotapi.User{ID: 1},
		Chat:     &tgbotapi.Chat{ID: 1},
	}
}

func TestClassifyMessage_StartWithSession(t *testing.T) {
	ev := ClassifyMessage(startMessage("session_1741616000000_a1b2c3d4e"))
	typed, ok := ev.(StartWithSession)
	require.True(t, ok, "expected StartWithSession, got %T", ev)
	assert.Equal(t, "session_1741616000000_a1b2c3d4e", typed.SessionID)
}

func TestClassifyMessage_StartBare(t *testing.T) {
	cases := []string{"", "abc", "a b c", "   "}
	for _, arg := range cases {
		ev := ClassifyMessage(startMessage(arg))
		_, ok := ev.(StartBare)
		assert.True(t, ok, "arg %q: expected StartBare, got %T", arg, ev)
	}
}

func TestClassifyMessage_Contact(t *testing.T) {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: 42},
		Chat: &tgbotapi.Chat{ID: 42},
		Contact: &tgbotapi.Contact{
			PhoneNumber: "+79991234567",
			FirstName:   "Иван",
			UserID:      42,
		},
	}

	ev := ClassifyMessage(msg)
	typed, ok := ev.(ContactShared)
	require.True(t, ok, "expected ContactShared, got %T", ev)
	assert.Equal(t, "+79991234567", typed.Phone)
	assert.Equal(t, int64(42), typed.OwnerID)
}

func TestClassifyMessage_Other(t *testing.T) {
	msg := &tgbotapi.Message{
		Text:     "/help",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 5}},
		From:     &tgbotapi.User{ID: 1},
		Chat:     &tgbotapi.Chat{ID: 1},
	}
	ev := ClassifyMessage(msg)
	typed, ok := ev.(Other)
	require.True(t, ok, "expected Other, got %T", ev)
	assert.Equal(t, "help", typed.Command)

	plain := ClassifyMessage(&tgbotapi.Message{Text: "привет", From: &tgbotapi.User{ID: 1}, Chat: &tgbotapi.Chat{ID: 1}})
	_, ok = plain.(Other)
	assert.True(t, ok)

	_, ok = ClassifyMessage(nil).(Other)
	assert.True(t, ok)
}
