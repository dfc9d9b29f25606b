package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	defaultConfigFile = "configs/values_local.yaml"
)

// Config ...
type Config struct {
	Service struct {
		Host              string        `yaml:"host"`
		Port              int           `yaml:"port" validate:"min=1,max=65535"`
		ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
		// MaxBodyBytes — ограничение на тело вебхука.
		MaxBodyBytes int64 `yaml:"max_body_bytes" validate:"min=1"`
	} `yaml:"service"`

	Exchange Exchange `yaml:"exchange"`
	Notify   Notify   `yaml:"notify"`
	Audit    Audit    `yaml:"audit"`

	Tracing struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host" validate:"required_if=Enabled true"`
		Port    int    `yaml:"port"`
	} `yaml:"tracing"`

	Log struct {
		Level       string `yaml:"level" validate:"oneof=debug info warn error"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

type Exchange struct {
	BaseURL       string        `yaml:"base_url" validate:"required,url"`
	APIKey        string        `yaml:"api_key" validate:"required"`
	APISecret     string        `yaml:"api_secret" validate:"required"`
	QuoteAsset    string        `yaml:"quote_asset" validate:"required"`
	AccountPath   string        `yaml:"account_path" validate:"required"`
	OrderPath     string        `yaml:"order_path" validate:"required"`
	TestOrderPath string        `yaml:"test_order_path"`
	DryRun        bool          `yaml:"dry_run"`
	Timeout       time.Duration `yaml:"timeout" validate:"gt=0"`
	ProxyURL      string        `yaml:"proxy_url" validate:"omitempty,url"`

	Retry struct {
		MaxAttempts int           `yaml:"max_attempts" validate:"min=1"`
		Delay       time.Duration `yaml:"delay" validate:"gte=0"`
	} `yaml:"retry"`

	Breaker struct {
		Enabled     bool          `yaml:"enabled"`
		MaxFailures uint32        `yaml:"max_failures" validate:"required_if=Enabled true"`
		OpenTimeout time.Duration `yaml:"open_timeout"`
	} `yaml:"breaker"`
}

type Notify struct {
	Driver         string `yaml:"driver" validate:"oneof=telegram stdout"`
	TelegramToken  string `yaml:"telegram_token" validate:"required_if=Driver telegram"`
	TelegramChatID int64  `yaml:"telegram_chat_id" validate:"required_if=Driver telegram"`
	// ParseMode: "" | "Markdown" | "HTML"
	ParseMode string        `yaml:"parse_mode" validate:"omitempty,oneof=Markdown MarkdownV2 HTML"`
	ProxyURL  string        `yaml:"proxy_url" validate:"omitempty,url"`
	Timeout   time.Duration `yaml:"timeout" validate:"gt=0"`
}

type Audit struct {
	Driver   string `yaml:"driver" validate:"oneof=file postgres"`
	FilePath string `yaml:"file_path" validate:"required_if=Driver file"`
	DB       string `yaml:"db_dsn" validate:"required_if=Driver postgres"`
	// Stream — websocket-трансляция записей аудита на /ws/outcomes.
	Stream bool `yaml:"stream"`
	// StreamToken, если задан, обязателен для подключения к стриму.
	StreamToken string `yaml:"stream_token"`
}

// Addr для http.Server.
func (c *Config) Addr() string {
	return joinHostPort(c.Service.Host, c.Service.Port)
}

// Defaults — значения по умолчанию, файл и env их перекрывают.
func Defaults() Config {
	var c Config
	c.Service.Host = "0.0.0.0"
	c.Service.Port = 5005
	c.Service.ReadHeaderTimeout = 5 * time.Second
	c.Service.MaxBodyBytes = 1 << 20

	c.Exchange.BaseURL = "https://api.toobit.com"
	c.Exchange.QuoteAsset = "USDT"
	c.Exchange.AccountPath = "/api/v1/account"
	c.Exchange.OrderPath = "/api/v1/spot/order"
	c.Exchange.TestOrderPath = "/api/v1/spot/orderTest"
	c.Exchange.Timeout = 10 * time.Second
	c.Exchange.Retry.MaxAttempts = 3
	c.Exchange.Retry.Delay = 2 * time.Second
	c.Exchange.Breaker.Enabled = true
	c.Exchange.Breaker.MaxFailures = 5
	c.Exchange.Breaker.OpenTimeout = 30 * time.Second

	c.Notify.Driver = "telegram"
	c.Notify.Timeout = 10 * time.Second

	c.Audit.Driver = "file"
	c.Audit.FilePath = "data/order_audit.jsonl"
	c.Audit.Stream = true

	c.Tracing.Port = 6831
	c.Log.Level = "info"
	return c
}

// NewConfig: .env -> yaml-файл -> переменные окружения -> валидация.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv(configFilePathENV)
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	return Load(path, explicit)
}

// Load читает конфиг из path. Если required=false, отсутствие файла не ошибка.
func Load(path string, required bool) (*Config, error) {
	cfg := Defaults()

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, errors.Wrapf(err, "decode config file %s", path)
		}
	case os.IsNotExist(err) && !required:
	default:
		return nil, errors.Wrapf(err, "read config file %s", path)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// env -> поле конфига
var envBindings = map[string]string{
	"exchange.api_key":        "API_KEY",
	"exchange.api_secret":     "SECRET_KEY",
	"exchange.base_url":       "EXCHANGE_BASE_URL",
	"exchange.proxy_url":      "EXCHANGE_PROXY_URL",
	"exchange.dry_run":        "EXCHANGE_DRY_RUN",
	"notify.driver":           "NOTIFY_DRIVER",
	"notify.telegram_token":   "TELEGRAM_BOT_TOKEN",
	"notify.telegram_chat_id": "TELEGRAM_CHAT_ID",
	"notify.proxy_url":        "TELEGRAM_PROXY_URL",
	"audit.driver":            "AUDIT_DRIVER",
	"audit.file_path":         "AUDIT_FILE_PATH",
	"audit.db_dsn":            "DATABASE_DSN",
	"audit.stream_token":      "STREAM_TOKEN",
	"service.port":            "WEBHOOK_PORT",
	"log.level":               "LOG_LEVEL",
}

func applyEnv(cfg *Config) error {
	v := viper.New()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return errors.Wrapf(err, "bind env %s", env)
		}
	}

	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = strings.TrimSpace(v.GetString(key))
		}
	}
	setString("exchange.api_key", &cfg.Exchange.APIKey)
	setString("exchange.api_secret", &cfg.Exchange.APISecret)
	setString("exchange.base_url", &cfg.Exchange.BaseURL)
	setString("exchange.proxy_url", &cfg.Exchange.ProxyURL)
	setString("notify.driver", &cfg.Notify.Driver)
	setString("notify.telegram_token", &cfg.Notify.TelegramToken)
	setString("notify.proxy_url", &cfg.Notify.ProxyURL)
	setString("audit.driver", &cfg.Audit.Driver)
	setString("audit.file_path", &cfg.Audit.FilePath)
	setString("audit.db_dsn", &cfg.Audit.DB)
	setString("audit.stream_token", &cfg.Audit.StreamToken)
	setString("log.level", &cfg.Log.Level)

	if v.IsSet("exchange.dry_run") {
		cfg.Exchange.DryRun = v.GetBool("exchange.dry_run")
	}
	if v.IsSet("notify.telegram_chat_id") {
		id, err := parseInt64(v.GetString("notify.telegram_chat_id"))
		if err != nil {
			return errors.Wrap(err, "TELEGRAM_CHAT_ID")
		}
		cfg.Notify.TelegramChatID = id
	}
	if v.IsSet("service.port") {
		cfg.Service.Port = v.GetInt("service.port")
	}
	return nil
}

var validate = validator.New()

// Validate — отсутствие обязательных настроек фатально на старте.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	if cfg.Exchange.DryRun && cfg.Exchange.TestOrderPath == "" {
		return errors.New("invalid config: exchange.test_order_path is required when dry_run is on")
	}
	return nil
}
