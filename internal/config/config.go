package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/semmidev/vigil/internal/domain"
)

const DefaultSchedule = "0 0 0 * * *"

type Config struct {
	App       AppConfig      `mapstructure:"app"`
	Databases []string       `mapstructure:"databases"`
	Backup    BackupConfig   `mapstructure:"backup"`
	Email     EmailConfig    `mapstructure:"email"`
	Telegram  TelegramConfig `mapstructure:"telegram"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
	Schedule string `mapstructure:"schedule"`
}

type BackupConfig struct {
	LocalPath     string         `mapstructure:"local_path"`
	Compress      bool           `mapstructure:"compress"`
	UploadTargets []UploadTarget `mapstructure:"upload_targets"`
}

type UploadTarget struct {
	Type    string `mapstructure:"type"`
	Enabled bool   `mapstructure:"enabled"`

	// Google Drive
	CredentialsFile string `mapstructure:"credentials_file"`
	FolderID        string `mapstructure:"folder_id"`

	// AWS S3
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`

	// Telegram
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type EmailConfig struct {
	Sender   string        `mapstructure:"sender"`
	Password string        `mapstructure:"password"`
	Receiver string        `mapstructure:"receiver"`
	Host     string        `mapstructure:"smtp_host"`
	Port     int           `mapstructure:"smtp_port"`
	UseTLS   bool          `mapstructure:"use_tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// TelegramConfig enables a second report channel next to email.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

var envBindings = map[string]string{
	"databases":          "DATABASE_PATHS",
	"backup.local_path":  "BACKUP_DIR",
	"email.sender":       "EMAIL_SENDER",
	"email.password":     "EMAIL_PASSWORD",
	"email.receiver":     "EMAIL_RECEIVER",
	"email.smtp_host":    "SMTP_SERVER",
	"email.smtp_port":    "SMTP_PORT",
	"app.log_level":      "LOG_LEVEL",
	"app.log_file":       "LOG_FILE",
	"app.schedule":       "BACKUP_SCHEDULE",
	"telegram.enabled":   "TELEGRAM_ENABLED",
	"telegram.bot_token": "TELEGRAM_BOT_TOKEN",
	"telegram.chat_id":   "TELEGRAM_CHAT_ID",
}

// Load builds the configuration from defaults, an optional YAML file,
// a .env file in the working directory and the process environment.
// Values are not validated here; see Warnings.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetDefault("app.name", "vigil")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.schedule", DefaultSchedule)
	v.SetDefault("backup.local_path", "backups")
	v.SetDefault("backup.compress", true)
	v.SetDefault("email.smtp_host", "smtp.gmail.com")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.use_tls", true)
	v.SetDefault("email.timeout", 30*time.Second)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv copies a dotenv file into the process environment without
// overriding variables that are already set.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Sources resolves every configured path to its backup strategy.
// Surrounding whitespace is dropped and blank entries are skipped.
func (c *Config) Sources() []domain.Source {
	sources := make([]domain.Source, 0, len(c.Databases))
	for _, path := range c.Databases {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		sources = append(sources, domain.ParseSource(path))
	}
	return sources
}

// Warnings lists settings that will make a run fail later on.
func (c *Config) Warnings() []string {
	var warnings []string

	sources := c.Sources()
	if len(sources) == 0 {
		warnings = append(warnings, "no databases configured (DATABASE_PATHS)")
	}
	for _, src := range sources {
		if src.Kind == domain.SourceUnsupported {
			warnings = append(warnings, fmt.Sprintf("unsupported database format: %s", src.Path))
		}
	}
	if c.Email.Sender == "" {
		warnings = append(warnings, "email sender is not set (EMAIL_SENDER)")
	}
	if c.Email.Password == "" {
		warnings = append(warnings, "email password is not set (EMAIL_PASSWORD)")
	}
	if c.Email.Receiver == "" {
		warnings = append(warnings, "email receiver is not set (EMAIL_RECEIVER)")
	}
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == "") {
		warnings = append(warnings, "telegram notifications enabled without bot_token/chat_id")
	}

	return warnings
}

func (c *Config) GetEnabledUploadTargets() []UploadTarget {
	var enabled []UploadTarget
	for _, target := range c.Backup.UploadTargets {
		if target.Enabled {
			enabled = append(enabled, target)
		}
	}
	return enabled
}
