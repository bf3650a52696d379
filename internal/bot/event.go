package bot

import (
	"strings"

	"otelshin/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// InboundEvent размечает событие входящего сообщения. Каждое сообщение
// попадает ровно в один вариант, обработчик обязан разобрать все четыре.
type InboundEvent interface {
	inboundEvent()
}

// StartWithSession: /start с session id из deep link.
type StartWithSession struct {
	SessionID string
}

// StartBare: /start без аргумента, пользователь пришел напрямую, не по ссылке.
type StartBare struct{}

// ContactShared: пользователь поделился контактом через кнопку.
type ContactShared struct {
	Phone     string
	FirstName string
	LastName  string
	OwnerID   int64 // владелец контакта по данным Telegram
}

// Other: любое прочее сообщение, команды, текст, вложения.
type Other struct {
	Command string
	Text    string
}

func (StartWithSession) inboundEvent() {}
func (StartBare) inboundEvent()        {}
func (ContactShared) inboundEvent()    {}
func (Other) inboundEvent()            {}

// ClassifyMessage раскладывает сообщение по вариантам. Слишком короткий или
// мусорный аргумент /start трактуется как /start без аргумента, а не как
// ошибка: пользователь не виноват, что ссылка побилась.
func ClassifyMessage(msg *tgbotapi.Message) InboundEvent {
	if msg == nil {
		return Other{}
	}

	if msg.Contact != nil {
		return ContactShared{
			Phone:     msg.Contact.PhoneNumber,
			FirstName: msg.Contact.FirstName,
			LastName:  msg.Contact.LastName,
			OwnerID:   msg.Contact.UserID,
		}
	}

	if msg.IsCommand() && msg.Command() == "start" {
		arg := strings.TrimSpace(msg.CommandArguments())
		if models.ValidSessionID(arg) {
			return StartWithSession{SessionID: arg}
		}
		return StartBare{}
	}

	if msg.IsCommand() {
		return Other{Command: msg.Command(), Text: msg.Text}
	}

	return Other{Text: msg.Text}
}
