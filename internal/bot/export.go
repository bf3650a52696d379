package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xuri/excelize/v2"
)

// handleExportClients обрабатывает /export для администраторов: выгрузка базы клиентов
// в Excel прямо в чат.
func (b *Bot) handleExportClients(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		b.sendMessage(msg.Chat.ID, "⛔ Команда доступна только администраторам.")
		return
	}

	filePath, err := b.exportClientsToExcel(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to export clients")
		b.sendMessage(msg.Chat.ID, "❌ Не удалось сформировать выгрузку. Попробуйте позже.")
		return
	}

	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FilePath(filePath))
	doc.Caption = "База клиентов"
	b.send(doc)
}

// exportClientsToExcel создает Excel файл с базой клиентов
func (b *Bot) exportClientsToExcel(ctx context.Context) (string, error) {
	if err := os.MkdirAll(b.config.Exports.Path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	clients, err := b.directory.ListClients(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting clients: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Клиенты"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"Chat ID", "Имя", "Телефон", "Адрес", "Номер авто", "Админ", "Последняя активность", "Создан"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheetName, "A1", lastHeader, headerStyle)

	for row, client := range clients {
		values := []interface{}{
			client.ChatID,
			client.Name,
			client.Phone,
			client.Address,
			client.CarNumber,
			client.IsAdmin,
			client.LastActivity.Format("02.01.2006 15:04"),
			client.CreatedAt.Format("02.01.2006 15:04"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheetName, cell, value)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 15)
	_ = f.SetColWidth(sheetName, "B", "E", 25)
	_ = f.SetColWidth(sheetName, "F", "H", 18)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("clients_%s.xlsx", time.Now().Format("2006-01-02"))
	filePath := filepath.Join(b.config.Exports.Path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	b.logger.Info().Str("file_path", filePath).Int("clients", len(clients)).Msg("Excel file created")
	return filePath, nil
}
