package google

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"otelshin/internal/database"
	"otelshin/internal/models"
)

// Колонки листа заказов. Лист заполняют менеджеры, сервис его только читает.
const ordersReadRange = "!A2:S"

// OrdersByPhoneAndChatID возвращает заказы клиента при строгом совпадении
// телефона и chat id. Телефон, найденный под чужим chat id, признак
// перепривязки аккаунта, такой запрос отклоняется целиком.
func (s *SheetsService) OrdersByPhoneAndChatID(ctx context.Context, phone string, chatID int64) ([]*models.Order, error) {
	if models.NormalizePhone(phone) == "" {
		return nil, fmt.Errorf("phone is required")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("chat id is required")
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.ordersSheet+ordersReadRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to read orders sheet: %v", err)
	}

	var orders []*models.Order
	phoneSeen := false
	for _, row := range resp.Values {
		order := parseOrderRow(row)
		if order == nil {
			continue
		}
		if !models.SamePhone(order.Phone, phone) {
			continue
		}
		phoneSeen = true

		// строка без chat id: заказ еще не привязан к Telegram, считаем своим
		if order.ChatID != "" && order.ChatID != strconv.FormatInt(chatID, 10) {
			return nil, database.ErrPhoneChatIDMismatch
		}
		orders = append(orders, order)
	}

	if !phoneSeen {
		return nil, database.ErrNotFound
	}
	return orders, nil
}

func parseOrderRow(row []interface{}) *models.Order {
	if len(row) == 0 {
		return nil
	}
	id := cellString(row, 0)
	if id == "" {
		return nil
	}

	return &models.Order{
		ID:              id,
		ChatID:          cellString(row, 1),
		ClientName:      cellString(row, 2),
		Phone:           cellString(row, 3),
		CarNumber:       cellString(row, 4),
		OrderQR:         cellString(row, 5),
		MonthlyPrice:    cellFloat(row, 6),
		TireCount:       cellInt(row, 7),
		HasDisks:        cellBool(row, 8),
		StartDate:       cellString(row, 9),
		StoragePeriod:   cellInt(row, 10),
		EndDate:         cellString(row, 11),
		StorageLocation: cellString(row, 12),
		StorageCell:     cellString(row, 13),
		TotalAmount:     cellFloat(row, 14),
		Debt:            cellFloat(row, 15),
		Contract:        cellString(row, 16),
		ClientAddress:   cellString(row, 17),
		DealStatus:      cellString(row, 18),
	}
}

func cellString(row []interface{}, idx int) string {
	if idx >= len(row) {
		return ""
	}
	switch v := row[idx].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func cellFloat(row []interface{}, idx int) float64 {
	if idx >= len(row) {
		return 0
	}
	switch v := row[idx].(type) {
	case float64:
		return v
	case string:
		cleaned := strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(v), " ", ""), ",", ".")
		f, _ := strconv.ParseFloat(cleaned, 64)
		return f
	}
	return 0
}

func cellInt(row []interface{}, idx int) int {
	return int(cellFloat(row, idx))
}

func cellBool(row []interface{}, idx int) bool {
	if idx >= len(row) {
		return false
	}
	switch v := row[idx].(type) {
	case bool:
		return v
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		return s == "true" || s == "да" || s == "1" || s == "yes"
	case float64:
		return v != 0
	}
	return false
}
