package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"otelshin/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrRowNotFound возвращается, когда строка с нужным ключом не найдена на листе.
var ErrRowNotFound = errors.New("sheet row not found")

// SheetsService зеркалирует сессии и клиентов в ту же Google-таблицу,
// в которой менеджеры ведут заказы. Таблица остается единой точкой учета
// для бизнеса, сервис лишь дописывает свои листы.
type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
	sessionsSheet string
	webBaseSheet  string
	ordersSheet   string

	sessionRowCache map[string]int
	clientRowCache  map[int64]int
	cacheMu         sync.RWMutex
}

func NewSheetsService(credentialsFile, spreadsheetID, sessionsSheet, webBaseSheet, ordersSheet string) (*SheetsService, error) {
	ctx := context.Background()

	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	// Создаем JWT конфигурацию
	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	client := config.Client(ctx)

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %v", err)
	}

	service := &SheetsService{
		service:         srv,
		spreadsheetID:   spreadsheetID,
		sessionsSheet:   sessionsSheet,
		webBaseSheet:    webBaseSheet,
		ordersSheet:     ordersSheet,
		sessionRowCache: make(map[string]int),
		clientRowCache:  make(map[int64]int),
	}

	// Warm up cache in background
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		service.WarmUpCache(ctx)
	}()

	// Periodic cache refresh every 1 hour
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			service.WarmUpCache(ctx)
			cancel()
		}
	}()

	return service, nil
}

// TestConnection проверяет подключение к таблице
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.webBaseSheet+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

// GetServiceAccountEmail возвращает email сервисного аккаунта
func (s *SheetsService) GetServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}

	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}

	return creds.ClientEmail, nil
}

// EnsureSessionsSheet создает лист сессий с заголовками, если его еще нет.
// Вызывается один раз при старте бота.
func (s *SheetsService) EnsureSessionsSheet(ctx context.Context) error {
	spreadsheet, err := s.service.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to get spreadsheet: %v", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == s.sessionsSheet {
			return nil
		}
	}

	_, err = s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: s.sessionsSheet},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to add sessions sheet: %v", err)
	}

	headers := []interface{}{"Session ID", "Chat ID", "User Name", "Phone", "Authorized", "Timestamp"}
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, s.sessionsSheet+"!A1:F1", &sheets.ValueRange{
		Values: [][]interface{}{headers},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// WarmUpCache populates both row index caches by reading the key columns.
func (s *SheetsService) WarmUpCache(ctx context.Context) error {
	sessionsResp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sessionsSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return err
	}
	clientsResp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.webBaseSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.sessionRowCache = make(map[string]int)
	s.clientRowCache = make(map[int64]int)

	for i, row := range sessionsResp.Values {
		if len(row) == 0 {
			continue
		}
		if id, ok := row[0].(string); ok && id != "" {
			s.sessionRowCache[id] = i + 1
		}
	}
	for i, row := range clientsResp.Values {
		if len(row) == 0 {
			continue
		}
		if chatID := cellInt64(row[0]); chatID > 0 {
			s.clientRowCache[chatID] = i + 1
		}
	}
	return nil
}

// UpsertSession обновляет строку сессии или добавляет новую, если ее нет.
func (s *SheetsService) UpsertSession(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is nil")
	}

	rowIdx, err := s.FindSessionRow(ctx, session.SessionID)
	if err != nil {
		if errors.Is(err, ErrRowNotFound) {
			return s.appendSession(ctx, session)
		}
		return err
	}

	rangeData := fmt.Sprintf("%s!A%d:F%d", s.sessionsSheet, rowIdx, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, &sheets.ValueRange{
		Values: [][]interface{}{sessionRowValues(session)},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (s *SheetsService) appendSession(ctx context.Context, session *models.Session) error {
	_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, s.sessionsSheet+"!A:A", &sheets.ValueRange{
		Values: [][]interface{}{sessionRowValues(session)},
	}).ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// UpsertClient обновляет строку клиента в WebBase или добавляет новую.
func (s *SheetsService) UpsertClient(ctx context.Context, client *models.Client) error {
	if client == nil {
		return fmt.Errorf("client is nil")
	}

	rowIdx, err := s.FindClientRow(ctx, client.ChatID)
	if err != nil {
		if errors.Is(err, ErrRowNotFound) {
			_, appendErr := s.service.Spreadsheets.Values.Append(s.spreadsheetID, s.webBaseSheet+"!A:A", &sheets.ValueRange{
				Values: [][]interface{}{clientRowValues(client)},
			}).ValueInputOption("RAW").
				InsertDataOption("INSERT_ROWS").
				Context(ctx).
				Do()
			return appendErr
		}
		return err
	}

	rangeData := fmt.Sprintf("%s!A%d:G%d", s.webBaseSheet, rowIdx, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, &sheets.ValueRange{
		Values: [][]interface{}{clientRowValues(client)},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// FindSessionRow locates row index (1-based) for session id in column A with cache.
func (s *SheetsService) FindSessionRow(ctx context.Context, sessionID string) (int, error) {
	if sessionID == "" {
		return 0, fmt.Errorf("session id is required")
	}

	s.cacheMu.RLock()
	row, ok := s.sessionRowCache[sessionID]
	s.cacheMu.RUnlock()
	if ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sessionsSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, err
	}

	for i, r := range resp.Values {
		if len(r) == 0 {
			continue
		}
		if id, ok := r[0].(string); ok && id == sessionID {
			rowIdx := i + 1 // Values are zero-based; sheet rows are 1-based
			s.cacheMu.Lock()
			s.sessionRowCache[sessionID] = rowIdx
			s.cacheMu.Unlock()
			return rowIdx, nil
		}
	}

	return 0, ErrRowNotFound
}

// FindClientRow locates row index (1-based) for chat id in column A with cache.
func (s *SheetsService) FindClientRow(ctx context.Context, chatID int64) (int, error) {
	if chatID == 0 {
		return 0, fmt.Errorf("chat id is required")
	}

	s.cacheMu.RLock()
	row, ok := s.clientRowCache[chatID]
	s.cacheMu.RUnlock()
	if ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.webBaseSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, err
	}

	for i, r := range resp.Values {
		if len(r) == 0 {
			continue
		}
		if cellInt64(r[0]) == chatID {
			rowIdx := i + 1
			s.cacheMu.Lock()
			s.clientRowCache[chatID] = rowIdx
			s.cacheMu.Unlock()
			return rowIdx, nil
		}
	}

	return 0, ErrRowNotFound
}

// ClearCache clears the row index caches.
func (s *SheetsService) ClearCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.sessionRowCache = make(map[string]int)
	s.clientRowCache = make(map[int64]int)
}

func sessionRowValues(session *models.Session) []interface{} {
	return []interface{}{
		session.SessionID,
		strconv.FormatInt(session.ChatID, 10),
		session.UserName,
		session.Phone,
		session.Authorized,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func clientRowValues(client *models.Client) []interface{} {
	return []interface{}{
		strconv.FormatInt(client.ChatID, 10),
		client.Name,
		client.Phone,
		client.Address,
		client.CarNumber,
		client.IsAdmin,
		client.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

func cellInt64(v interface{}) int64 {
	switch val := v.(type) {
	case float64:
		return int64(val)
	case string:
		n, _ := strconv.ParseInt(val, 10, 64)
		return n
	}
	return 0
}
