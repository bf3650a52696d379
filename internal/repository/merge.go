package repository

import (
	"time"

	"otelshin/internal/models"
)

// MergeSession накладывает новую запись на существующую. Инвариант:
// authorized переходит из false в true не более одного раза, обратный
// переход запрещен: повторная доставка того же start-события не должна
// разавторизовать сессию. Непустые поля существующей записи сохраняются,
// если новая запись их не несёт.
func MergeSession(existing, incoming *models.Session) *models.Session {
	merged := *incoming

	if merged.CreatedAt.IsZero() {
		merged.CreatedAt = time.Now()
	}

	if existing == nil {
		return &merged
	}

	merged.CreatedAt = existing.CreatedAt
	if existing.Authorized {
		merged.Authorized = true
		if merged.ChatID == 0 {
			merged.ChatID = existing.ChatID
		}
	}
	if merged.UserName == "" {
		merged.UserName = existing.UserName
	}
	if merged.Phone == "" {
		merged.Phone = existing.Phone
	}

	return &merged
}
