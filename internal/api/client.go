package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"otelshin/internal/domain"
	"otelshin/internal/models"
)

// Client ходит в эндпоинт проверки по HTTP. Его крутит агент опроса.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type checkResponse struct {
	Authorized bool `json:"authorized"`
	User       *struct {
		ID            string `json:"id"`
		ChatID        string `json:"chat_id"`
		ClientName    string `json:"client_name"`
		Phone         string `json:"phone"`
		CarNumber     string `json:"car_number"`
		ClientAddress string `json:"client_address"`
		IsAdmin       bool   `json:"is_admin"`
	} `json:"user"`
	Error string `json:"error"`
}

// Check опрашивает эндпоинт проверки один раз.
func (c *Client) Check(ctx context.Context, sessionID string) (*domain.AuthResult, error) {
	endpoint := c.baseURL + "/api/v1/auth/check?session=" + url.QueryEscape(sessionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode check response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("check returned %d: %s", resp.StatusCode, body.Error)
	}

	result := &domain.AuthResult{Authorized: body.Authorized}
	if body.Authorized && body.User != nil {
		result.Profile = &models.Profile{
			ID:        body.User.ID,
			ChatID:    body.User.ChatID,
			Name:      body.User.ClientName,
			Phone:     body.User.Phone,
			CarNumber: body.User.CarNumber,
			Address:   body.User.ClientAddress,
			IsAdmin:   body.User.IsAdmin,
		}
	}
	return result, nil
}
