package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/SamuelPereira26/Finhouse/internal/accounts"
	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/taxonomy"
)

// FileName is the config file written by "finhouse init".
const FileName = "finhouse.yaml"

// Config represents the top-level finhouse.yaml configuration.
type Config struct {
	Household  HouseholdConfig     `yaml:"household"`
	Accounts   []model.Account     `yaml:"accounts"`
	Categories []taxonomy.Category `yaml:"categories"`
	Thresholds ThresholdsConfig    `yaml:"thresholds"`
	Health     HealthConfig        `yaml:"health"`
	Review     ReviewConfig        `yaml:"review"`
	Notifier   NotifierConfig      `yaml:"notifier"`
	Database   DatabaseConfig      `yaml:"database"`
	Server     ServerConfig        `yaml:"server"`
}

// HouseholdConfig names the household.
type HouseholdConfig struct {
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"`
	TimeZone string `yaml:"time_zone"`
}

// ThresholdsConfig maps classification confidence to review status.
type ThresholdsConfig struct {
	AutoOK    float64 `yaml:"auto_ok"`
	Suggested float64 `yaml:"suggested"`
}

// HealthConfig bounds the batch audits and the transfer matching window.
type HealthConfig struct {
	MaxFutureDays       int `yaml:"max_future_days"`
	MaxPastMonths       int `yaml:"max_past_months"`
	DuplicateWindowDays int `yaml:"duplicate_window_days"`
	TransferWindowDays  int `yaml:"transfer_window_days"`
}

// ReviewConfig controls the reminder schedule.
type ReviewConfig struct {
	Days                []int  `yaml:"days"`
	TransferReminderDay int    `yaml:"transfer_reminder_day"`
	TitheReminderDay    int    `yaml:"tithe_reminder_day"`
	Schedule            string `yaml:"schedule"` // cron spec
}

// NotifierConfig holds chat notification settings.
type NotifierConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig holds Telegram Bot API settings. The token normally comes
// from the environment rather than the file.
type TelegramConfig struct {
	APIURL   string `yaml:"api_url"`
	BotToken string `yaml:"bot_token,omitempty"`
	ChatID   string `yaml:"chat_id,omitempty"`
}

// DatabaseConfig selects the PostgreSQL store when URL is set.
type DatabaseConfig struct {
	URL string `yaml:"url,omitempty"`
}

// ServerConfig controls "finhouse serve".
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	APIToken string `yaml:"api_token,omitempty"`
}

// Load reads a finhouse.yaml file from disk and overlays environment secrets.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with the household defaults.
func Default(name string) *Config {
	return &Config{
		Household: HouseholdConfig{
			Name:     name,
			Currency: "EUR",
			TimeZone: "Europe/Madrid",
		},
		Accounts:   accounts.Default(),
		Categories: taxonomy.DefaultCategories(),
		Thresholds: ThresholdsConfig{
			AutoOK:    0.90,
			Suggested: 0.65,
		},
		Health: HealthConfig{
			MaxFutureDays:       3,
			MaxPastMonths:       24,
			DuplicateWindowDays: 120,
			TransferWindowDays:  3,
		},
		Review: ReviewConfig{
			Days:                []int{1, 8, 15, 22, 28},
			TransferReminderDay: 5,
			TitheReminderDay:    10,
			Schedule:            "0 9 * * *",
		},
		Notifier: NotifierConfig{
			Telegram: TelegramConfig{APIURL: "https://api.telegram.org"},
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// LoadDotEnv loads a .env file into the process environment if one exists.
func LoadDotEnv(paths ...string) {
	_ = godotenv.Load(paths...)
}

// ApplyEnv overlays secrets and deployment settings from the environment.
func (c *Config) ApplyEnv() {
	c.Notifier.Telegram.BotToken = getEnv("TELEGRAM_BOT_TOKEN", c.Notifier.Telegram.BotToken)
	c.Notifier.Telegram.ChatID = getEnv("TELEGRAM_CHAT_ID", c.Notifier.Telegram.ChatID)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Server.APIToken = getEnv("API_TOKEN", c.Server.APIToken)
	c.Server.Addr = getEnv("FINHOUSE_ADDR", c.Server.Addr)
	if v := getEnv("FINHOUSE_TRANSFER_WINDOW_DAYS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Health.TransferWindowDays = n
		}
	}
}

// Validate checks the values the pipeline depends on.
func (c *Config) Validate() error {
	if c.Thresholds.Suggested < 0 || c.Thresholds.AutoOK > 1 || c.Thresholds.Suggested > c.Thresholds.AutoOK {
		return fmt.Errorf("invalid thresholds: suggested=%v auto_ok=%v", c.Thresholds.Suggested, c.Thresholds.AutoOK)
	}
	if c.Health.TransferWindowDays < 0 {
		return fmt.Errorf("invalid transfer_window_days: %d", c.Health.TransferWindowDays)
	}
	seen := make(map[string]bool, len(c.Accounts))
	for _, a := range c.Accounts {
		if strings.TrimSpace(a.ID) == "" {
			return fmt.Errorf("account with empty id")
		}
		if seen[a.ID] {
			return fmt.Errorf("duplicate account id %q", a.ID)
		}
		seen[a.ID] = true
	}
	for _, d := range c.Review.Days {
		if d < 1 || d > 31 {
			return fmt.Errorf("invalid review day %d", d)
		}
	}
	return nil
}

// AccountService returns the account registry described by the config.
func (c *Config) AccountService() *accounts.Service {
	if len(c.Accounts) == 0 {
		return accounts.NewService(accounts.Default())
	}
	return accounts.NewService(c.Accounts)
}

// Taxonomy returns the category tree described by the config.
func (c *Config) Taxonomy() *taxonomy.Taxonomy {
	if len(c.Categories) == 0 {
		return taxonomy.Default()
	}
	return taxonomy.New(c.Categories)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
