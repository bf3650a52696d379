package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"otelshin/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Auth       AuthConfig       `yaml:"auth"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Google     GoogleConfig     `yaml:"google"`
	Web        WebConfig        `yaml:"web"`
	API        APIConfig        `yaml:"api"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Exports    ExportConfig     `yaml:"exports"`
	Admins     []int64          `yaml:"admins"`
	Manager    string           `yaml:"manager_contact"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken    string `yaml:"bot_token"`
	BotUsername string `yaml:"bot_username"`
	WebhookURL  string `yaml:"webhook_url"`
	WebhookPort int    `yaml:"webhook_port"`
	Debug       bool   `yaml:"debug"`
}

// AuthConfig управляет протоколом сессионной авторизации.
// Потолок опроса и TTL сессий настраиваются, это не часть протокола.
type AuthConfig struct {
	SessionPrefix   string        `yaml:"session_prefix"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	MaxPolls        int           `yaml:"max_polls"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	AuthorizedTTL   time.Duration `yaml:"authorized_ttl"`
	RateLimitChecks int           `yaml:"rate_limit_checks"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	SessionsSheet   string `yaml:"sessions_sheet"`
	WebBaseSheet    string `yaml:"webbase_sheet"`
	OrdersSheet     string `yaml:"orders_sheet"`
}

// WebConfig описывает адреса веб-клиента, в который бот отправляет ссылки.
type WebConfig struct {
	BaseURL       string `yaml:"base_url"`
	DashboardPath string `yaml:"dashboard_path"`
	ContractPath  string `yaml:"contract_path"`
}

type APIConfig struct {
	Port      int                `yaml:"port"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env не обязателен: в контейнере переменные приходят из окружения
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return errors.New("telegram bot token is required")
	}

	if c.Telegram.BotUsername == "" {
		return errors.New("telegram bot username is required")
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Web.BaseURL == "" {
		return errors.New("web base url is required")
	}

	if c.Auth.MaxPolls < 0 {
		return errors.New("auth.max_polls must not be negative")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Auth.SessionPrefix == "" {
		c.Auth.SessionPrefix = models.SessionIDPrefix
	}
	if c.Auth.PollInterval == 0 {
		c.Auth.PollInterval = models.DefaultPollIntervalSeconds * time.Second
	}
	if c.Auth.MaxPolls == 0 {
		c.Auth.MaxPolls = models.DefaultMaxPolls
	}
	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = models.DefaultSessionTTL * time.Second
	}
	if c.Auth.AuthorizedTTL == 0 {
		c.Auth.AuthorizedTTL = models.DefaultAuthorizedTTL * time.Second
	}
	if c.Auth.RateLimitChecks == 0 {
		c.Auth.RateLimitChecks = models.RateLimitChecks
	}
	if c.Auth.RateLimitWindow == 0 {
		c.Auth.RateLimitWindow = models.RateLimitWindow * time.Second
	}

	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.Telegram.WebhookPort == 0 {
		c.Telegram.WebhookPort = 8443
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Google.SessionsSheet == "" {
		c.Google.SessionsSheet = "telegram_sessions"
	}
	if c.Google.WebBaseSheet == "" {
		c.Google.WebBaseSheet = "WebBase"
	}
	if c.Google.OrdersSheet == "" {
		c.Google.OrdersSheet = c.Google.WebBaseSheet
	}

	if c.Web.DashboardPath == "" {
		c.Web.DashboardPath = "/dashboard"
	}
	if c.Web.ContractPath == "" {
		c.Web.ContractPath = "/contract"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}

// DashboardURL возвращает ссылку входа в личный кабинет с вшитой сессией.
func (c *Config) DashboardURL(sessionID string) string {
	return c.Web.BaseURL + c.Web.DashboardPath + "?auth=" + sessionID
}
