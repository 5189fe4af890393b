package storage

import (
	"context"
	"fmt"
	"os"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/semmidev/vigil/internal/config"
)

// Bot API uploads are capped at 50 MB; larger artifacts are announced
// instead of sent.
const telegramMaxUpload = 50 * 1024 * 1024

type TelegramStorage struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(cfg *config.UploadTarget) (*TelegramStorage, error) {
	chatID, err := strconv.ParseInt(cfg.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat_id %q: %w", cfg.ChatID, err)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramStorage{bot: bot, chatID: chatID}, nil
}

func (t *TelegramStorage) Upload(ctx context.Context, localPath string, remoteName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	var msg tgbotapi.Chattable
	if info.Size() > telegramMaxUpload {
		msg = tgbotapi.NewMessage(t.chatID, fmt.Sprintf(
			"Backup %s is %.2f MB, too large to upload to Telegram.",
			remoteName, float64(info.Size())/(1024*1024)))
	} else {
		doc := tgbotapi.NewDocument(t.chatID, tgbotapi.FileReader{Name: remoteName, Reader: file})
		doc.Caption = fmt.Sprintf("Backup: %s (%.2f MB)", remoteName, float64(info.Size())/(1024*1024))
		msg = doc
	}

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram file: %w", err)
	}
	return nil
}
