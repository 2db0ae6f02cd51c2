// Package config loads application settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Telegram settings
	BotToken string  `envconfig:"BOT_TOKEN" required:"true"`
	AdminIDs []int64 `envconfig:"ADMIN_IDS"`

	// Yandex Cloud credentials (translation + text generation)
	YandexAPIKey     string `envconfig:"YANDEX_API_KEY"`
	YandexGPTAPIKey  string `envconfig:"YANDEX_GPT_API_KEY"`
	YandexFolderID   string `envconfig:"YANDEX_FOLDER_ID"`
	YandexOAuthToken string `envconfig:"YANDEX_OAUTH_TOKEN"`

	// Optional fallback providers
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`

	// Content sources
	HoroscopeURLTemplate string `envconfig:"HOROSCOPE_URL_TEMPLATE" default:"https://www.horoscope.com/us/horoscopes/general/horoscope-general-daily-%s.aspx?sign=%d"`
	HoroscopeFeedURL     string `envconfig:"HOROSCOPE_FEED_URL"`
	DayEnergyURL         string `envconfig:"DAY_ENERGY_URL" default:"https://horoscopes.astro-seek.com/daily-horoscope"`

	// Cache settings
	CacheFilePath      string `envconfig:"CACHE_FILE_PATH" default:"cache/horoscope_cache.json"`
	LunarCacheFilePath string `envconfig:"LUNAR_CACHE_FILE_PATH" default:"cache/lunar_cache.json"`

	// Storage
	DBPath string `envconfig:"DB_PATH" default:"data/bot.db"`

	// Scheduler
	BroadcastHour  int    `envconfig:"BROADCAST_HOUR" default:"10"`
	Timezone       string `envconfig:"TIMEZONE" default:"Europe/Moscow"`
	BroadcastLimit int    `envconfig:"BROADCAST_PER_MINUTE" default:"25"`

	// App settings
	Debug          bool          `envconfig:"DEBUG" default:"false"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	HTTPAddr       string        `envconfig:"HTTP_ADDR" default:":8080"`
	Monitoring     bool          `envconfig:"ENABLE_HTTP_MONITORING" default:"false"`
}

// Load reads .env (when present) and then the process environment.
// A local .env only fills variables that are not already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.BroadcastHour < 0 || c.BroadcastHour > 23 {
		return fmt.Errorf("BROADCAST_HOUR must be in 0..23")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}
	return nil
}
