// Package notify sends operator alerts to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/denimstock/denimstock/internal/inventory"
)

// maxDocumentBytes is the Telegram bot upload limit.
const maxDocumentBytes = 50 << 20

// maxLowStockLines caps the rows listed in one alert.
const maxLowStockLines = 30

// Sender is satisfied by *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts alerts to one chat. A nil *Telegram drops every alert.
type Telegram struct {
	api    Sender
	chatID int64
	logger *slog.Logger
}

// NewTelegram connects to the bot API. It returns nil when token is empty.
func NewTelegram(token string, chatID int64, logger *slog.Logger) (*Telegram, error) {
	if token == "" {
		return nil, nil
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("notify: telegram: %w", err)
	}
	return NewTelegramWithSender(api, chatID, logger), nil
}

// NewTelegramWithSender is used by tests to capture messages.
func NewTelegramWithSender(api Sender, chatID int64, logger *slog.Logger) *Telegram {
	if logger == nil {
		logger = slog.Default()
	}
	return &Telegram{api: api, chatID: chatID, logger: logger}
}

// LowStock reports rows under the threshold.
func (t *Telegram) LowStock(ctx context.Context, rows []inventory.StockView, threshold int) error {
	if t == nil || len(rows) == 0 {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Low stock: %d rows below %d\n", len(rows), threshold)
	for i, r := range rows {
		if i == maxLowStockLines {
			fmt.Fprintf(&b, "... and %d more", len(rows)-maxLowStockLines)
			break
		}
		fmt.Fprintf(&b, "%s (%s) @ %s: %d\n", r.ProductName, r.Barcode, r.WarehouseName, r.Quantity)
	}
	return t.send(tgbotapi.NewMessage(t.chatID, strings.TrimRight(b.String(), "\n")))
}

// BackupCompleted sends the archive, or only its name when it is too large.
func (t *Telegram) BackupCompleted(ctx context.Context, name string, archive []byte) error {
	if t == nil {
		return nil
	}
	if len(archive) > maxDocumentBytes {
		return t.send(tgbotapi.NewMessage(t.chatID, fmt.Sprintf("Backup %s created (%d bytes, too large to attach)", name, len(archive))))
	}
	doc := tgbotapi.NewDocument(t.chatID, tgbotapi.FileBytes{
		Name:  name,
		Bytes: archive,
	})
	doc.Caption = "Backup " + name
	return t.send(doc)
}

func (t *Telegram) send(c tgbotapi.Chattable) error {
	if _, err := t.api.Send(c); err != nil {
		t.logger.Error("telegram send failed", slog.Any("error", err))
		return fmt.Errorf("notify: send: %w", err)
	}
	return nil
}
