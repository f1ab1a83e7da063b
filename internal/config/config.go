package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/ykvlv/prayer-bot/internal/domain"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken  string `envconfig:"BOT_TOKEN"`
	AdminID   int64  `envconfig:"ADMIN_ID"` // allowed to /broadcast and /refresh; 0 disables
	Timezone  string `envconfig:"TIMEZONE" default:"Europe/Moscow"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"` // json|console
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"` // healthz/status

	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"` // sqlite|postgres
	DBPath      string `envconfig:"DB_PATH" default:"./data/prayer-bot.db"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	TimetableSource   string        `envconfig:"TIMETABLE_SOURCE" default:"files"` // files|html
	TimetableDir      string        `envconfig:"TIMETABLE_DIR"`                    // empty: bundled sample data
	TimetableURL      string        `envconfig:"TIMETABLE_URL"`
	TimetableSelector string        `envconfig:"TIMETABLE_SELECTOR" default:"table"`
	TimetableTimeout  time.Duration `envconfig:"TIMETABLE_TIMEOUT" default:"30s"`

	SendRate        int           `envconfig:"SEND_RATE" default:"25"`     // messages per second
	SendTimeout     time.Duration `envconfig:"SEND_TIMEOUT" default:"10s"` // per HTTP send, not counting queueing
	ScheduleWorkers int           `envconfig:"SCHEDULE_WORKERS" default:"8"`
}

// Load reads an optional .env file, then environment variables into Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	if c.SendTimeout <= 0 {
		return errors.New("SEND_TIMEOUT must be positive")
	}
	switch c.DBDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("DB_DRIVER: unsupported %q", c.DBDriver)
	}
	switch c.TimetableSource {
	case "files":
	case "html":
		if c.TimetableURL == "" {
			return errors.New("TIMETABLE_URL is required for TIMETABLE_SOURCE=html")
		}
	default:
		return fmt.Errorf("TIMETABLE_SOURCE: unsupported %q", c.TimetableSource)
	}
	return nil
}

// RequireBot reports a missing BOT_TOKEN; only the serve command needs it.
func (c Config) RequireBot() error {
	if c.BotToken == "" {
		return errors.New("BOT_TOKEN is required")
	}
	return nil
}

// Location resolves the fixed timezone shared by all subscribers.
func (c Config) Location() (*time.Location, error) {
	return domain.ParseLocation(c.Timezone)
}
