package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	Gemini GeminiConfig
	Sheets SheetsConfig
	Line   LineConfig
	Log    LogConfig
}

type ServerConfig struct {
	Port     int
	Timezone string
}

type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type SheetsConfig struct {
	SpreadsheetID string
	ClientEmail   string
	PrivateKey    string
	SheetName     string
	ReadPageSize  int
}

type LineConfig struct {
	ChannelSecret string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:     3000,
			Timezone: "Asia/Bangkok",
		},
		Gemini: GeminiConfig{
			BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai",
			Model:   "gemini-2.5-flash",
		},
		Sheets: SheetsConfig{
			SheetName:    "Sheet1",
			ReadPageSize: 100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables always win.
//
// Missing Sheets or Gemini credentials are not an error here: they surface when
// the operation that needs them runs, so the connectivity endpoint can report
// them instead of the process refusing to start.
func Load() (Config, error) {
	_ = godotenv.Load()
	return loadFromEnv(getenv)
}

// env abstracts os.Getenv for testing.
type env func(key string) string

func getenv(key string) string { return os.Getenv(key) }

func loadFromEnv(get env) (Config, error) {
	cfg := defaults()

	if v := get("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return Config{}, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Server.Port = port
	}
	if v := get("TIMEZONE"); v != "" {
		cfg.Server.Timezone = v
	}

	cfg.Gemini.APIKey = get("GEMINI_API_KEY")
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = get("API_KEY")
	}
	if v := get("GEMINI_BASE_URL"); v != "" {
		cfg.Gemini.BaseURL = v
	}
	if v := get("GEMINI_MODEL"); v != "" {
		cfg.Gemini.Model = v
	}

	cfg.Sheets.SpreadsheetID = get("GOOGLE_SHEET_ID")
	cfg.Sheets.ClientEmail = get("GOOGLE_SERVICE_ACCOUNT_EMAIL")
	cfg.Sheets.PrivateKey = get("GOOGLE_PRIVATE_KEY")
	if v := get("SHEET_NAME"); v != "" {
		cfg.Sheets.SheetName = v
	}
	if v := get("SHEET_READ_PAGE_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size <= 0 {
			return Config{}, fmt.Errorf("invalid SHEET_READ_PAGE_SIZE %q", v)
		}
		cfg.Sheets.ReadPageSize = size
	}

	cfg.Line.ChannelSecret = get("LINE_CHANNEL_SECRET")

	if v := get("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	return cfg, nil
}
