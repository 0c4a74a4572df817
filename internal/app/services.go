package app

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/denimstock/denimstock/internal/backup"
	"github.com/denimstock/denimstock/internal/notify"
)

// RedisOpts converts the Redis settings into Asynq connection options.
func (c *Config) RedisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// NewBackupStore returns the S3 store when a bucket is configured and the
// local directory store otherwise.
func NewBackupStore(ctx context.Context, cfg *Config) (backup.Store, error) {
	if cfg.S3BackupsEnabled() {
		return backup.NewS3Store(ctx, backup.S3Config{
			Bucket:       cfg.BackupS3Bucket,
			Endpoint:     cfg.BackupS3Endpoint,
			Region:       cfg.BackupS3Region,
			AccessKey:    cfg.BackupS3AccessKey,
			SecretKey:    cfg.BackupS3SecretKey,
			UsePathStyle: cfg.BackupS3PathStyle,
		})
	}
	return backup.NewLocalStore(cfg.BackupDir)
}

// NewNotifier returns the Telegram notifier, or nil when it is not configured.
// A nil *notify.Telegram discards every message.
func NewNotifier(cfg *Config, logger *slog.Logger) (*notify.Telegram, error) {
	if !cfg.TelegramEnabled() {
		return nil, nil
	}
	return notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, logger)
}
