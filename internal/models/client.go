package models

import "time"

// Client описывает запись справочника клиентов (лист WebBase).
// Первичным ключом служит ChatID, он же код доступа в личный кабинет.
type Client struct {
	ID           int64
	ChatID       int64
	Name         string
	Phone        string
	Address      string
	CarNumber    string
	IsAdmin      bool
	LastActivity time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile содержит профиль, который веб-клиент сохраняет локально после
// успешной авторизации.
type Profile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	ChatID    string `json:"chat_id"`
	IsAdmin   bool   `json:"is_admin"`
	Address   string `json:"address"`
	CarNumber string `json:"car_number"`
}
