package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              int
	DatabaseURL       string
	AutoMigrate       bool
	NatsURL           string
	BusFlushInterval  time.Duration
	BusFlushThreshold int
	BusBufferMax      int
	LogLevel          string
	TurnTimeout       time.Duration
	HistoryMax        int
	HistoryKeep       int
	TicketPrefix      string
	DefaultLanguage   string
	Reasoner          string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	GeminiAPIKey      string
	GeminiModel       string
	ContextMaxChars   int
	ContextTimeout    time.Duration
	SlackBotToken     string
	SlackAlertChannel string
	MetricsStdout     bool
	WSMaxMessageBytes int64
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first; variables already set in the process win.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:              envInt("VANI_PORT", 8080),
		DatabaseURL:       envStr("DATABASE_URL", ""),
		AutoMigrate:       envBool("AUTO_MIGRATE", true),
		NatsURL:           envStr("NATS_URL", ""),
		BusFlushInterval:  time.Duration(envInt("BUS_FLUSH_INTERVAL_MS", 1000)) * time.Millisecond,
		BusFlushThreshold: envInt("BUS_FLUSH_THRESHOLD", 50),
		BusBufferMax:      envInt("BUS_BUFFER_MAX", 1000),
		LogLevel:          envStr("LOG_LEVEL", "info"),
		TurnTimeout:       time.Duration(envInt("TURN_TIMEOUT_MS", 8000)) * time.Millisecond,
		HistoryMax:        envInt("HISTORY_MAX", 20),
		HistoryKeep:       envInt("HISTORY_KEEP", 18),
		TicketPrefix:      strings.ToUpper(envStr("TICKET_PREFIX", "DEL")),
		DefaultLanguage:   strings.ToLower(envStr("DEFAULT_LANGUAGE", "english")),
		Reasoner:          strings.ToLower(envStr("REASONER", "openai")),
		OpenAIAPIKey:      envStr("OPENAI_API_KEY", ""),
		OpenAIModel:       envStr("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:     envStr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GeminiAPIKey:      envStr("GEMINI_API_KEY", ""),
		GeminiModel:       envStr("GEMINI_MODEL", "gemini-2.0-flash"),
		ContextMaxChars:   envInt("CONTEXT_MAX_CHARS", 1200),
		ContextTimeout:    time.Duration(envInt("CONTEXT_TIMEOUT_MS", 2000)) * time.Millisecond,
		SlackBotToken:     envStr("SLACK_BOT_TOKEN", ""),
		SlackAlertChannel: envStr("SLACK_ALERT_CHANNEL", ""),
		MetricsStdout:     envBool("METRICS_STDOUT", false),
		WSMaxMessageBytes: int64(envInt("WS_MAX_MESSAGE_BYTES", 1<<20)),
	}

	// Keep must leave room below the cap or trimming never makes progress.
	if cfg.HistoryMax < 2 {
		cfg.HistoryMax = 2
	}
	if cfg.HistoryKeep <= 0 || cfg.HistoryKeep > cfg.HistoryMax {
		cfg.HistoryKeep = cfg.HistoryMax
	}
	return cfg
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
