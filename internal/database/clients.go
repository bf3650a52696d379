package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"otelshin/internal/models"
)

// CreateOrUpdateClient вставляет клиента или обновляет существующего по
// chat_id. Повторная вставка того же chat_id никогда не создает дубликат.
// Имя заполняется только если оно ещё пустое: отображаемое имя из Telegram
// не должно затирать имя, заведённое менеджером. Остальные поля не
// затираются пустыми значениями.
func (db *DB) CreateOrUpdateClient(ctx context.Context, client *models.Client) error {
	query := `INSERT INTO clients (
				chat_id, name, phone, address, car_number, is_admin,
				last_activity, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(chat_id) DO UPDATE SET
                name = CASE WHEN clients.name = '' THEN excluded.name ELSE clients.name END,
                phone = CASE WHEN excluded.phone != '' THEN excluded.phone ELSE clients.phone END,
                address = CASE WHEN excluded.address != '' THEN excluded.address ELSE clients.address END,
                car_number = CASE WHEN excluded.car_number != '' THEN excluded.car_number ELSE clients.car_number END,
                last_activity = excluded.last_activity,
                updated_at = excluded.updated_at`
	lastActivity := client.LastActivity
	if lastActivity.IsZero() {
		lastActivity = time.Now()
	}
	now := time.Now()
	_, err := db.db.ExecContext(ctx, query,
		client.ChatID,
		client.Name,
		client.Phone,
		client.Address,
		client.CarNumber,
		client.IsAdmin,
		lastActivity,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create or update client: %w", err)
	}
	return nil
}

const clientColumns = `id, chat_id, name, phone, address, car_number, is_admin,
	                 last_activity, created_at, updated_at`

func (db *DB) GetClientByChatID(ctx context.Context, chatID int64) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE chat_id = ?`
	return db.queryClient(ctx, query, chatID)
}

func (db *DB) GetClientByPhone(ctx context.Context, phone string) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE phone = ?`
	return db.queryClient(ctx, query, phone)
}

func (db *DB) queryClient(ctx context.Context, query string, args ...interface{}) (*models.Client, error) {
	var c models.Client
	err := db.db.QueryRowContext(ctx, query, args...).Scan(
		&c.ID, &c.ChatID, &c.Name, &c.Phone, &c.Address, &c.CarNumber,
		&c.IsAdmin, &c.LastActivity, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query client: %w", err)
	}
	return &c, nil
}

// UpdateClientPhone обновляет телефон (и имя, если оно передано) после того,
// как пользователь поделился контактом.
func (db *DB) UpdateClientPhone(ctx context.Context, chatID int64, phone, name string) error {
	query := `UPDATE clients
	          SET phone = ?,
	              name = CASE WHEN ? != '' THEN ? ELSE name END,
	              updated_at = ?
	          WHERE chat_id = ?`
	res, err := db.db.ExecContext(ctx, query, phone, name, name, time.Now(), chatID)
	if err != nil {
		return fmt.Errorf("failed to update client phone: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) UpdateClientActivity(ctx context.Context, chatID int64) error {
	query := `UPDATE clients SET last_activity = ?, updated_at = ? WHERE chat_id = ?`
	now := time.Now()
	_, err := db.db.ExecContext(ctx, query, now, now, chatID)
	return err
}

func (db *DB) ListClients(ctx context.Context) ([]*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY last_activity DESC`
	rows, err := db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		c := &models.Client{}
		err := rows.Scan(
			&c.ID, &c.ChatID, &c.Name, &c.Phone, &c.Address, &c.CarNumber,
			&c.IsAdmin, &c.LastActivity, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// FindClientStrict ищет клиента по точному совпадению телефона И chat id.
// Если телефон числится за другим chat id, возвращает
// ErrPhoneChatIDMismatch, чтобы вызывающая сторона отличила опечатку в коде
// доступа от отсутствия клиента.
func (db *DB) FindClientStrict(ctx context.Context, phone string, chatID int64) (*models.Client, error) {
	client, err := db.GetClientByChatID(ctx, chatID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if client != nil && client.Phone == phone {
		return client, nil
	}

	byPhone, err := db.GetClientByPhone(ctx, phone)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if byPhone != nil && byPhone.ChatID != chatID {
		return nil, ErrPhoneChatIDMismatch
	}
	return nil, ErrNotFound
}
