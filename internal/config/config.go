package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port            int
	NatsURL         string
	NatsToken       string
	DatabaseURL     string
	SupabaseURL     string
	SupabaseKey     string
	LogLevel        string
	OracleProvider  string
	AnthropicAPIKey string
	Model           string
	TGIURL          string
	MaxPromptRunes  int
	MaxOutputTokens int
	APIToken        string
	SlackBotToken   string
	SlackChannel    string
}

func Load() Config {
	return Config{
		Port:            envInt("CALLSURVEY_PORT", 8760),
		NatsURL:         envStr("NATS_URL", ""),
		NatsToken:       envStr("NATS_TOKEN", ""),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		SupabaseURL:     envStr("SUPABASE_URL", ""),
		SupabaseKey:     envStr("SUPABASE_KEY", ""),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		OracleProvider:  envStr("ORACLE_PROVIDER", "anthropic"),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		Model:           envStr("CALLSURVEY_MODEL", "claude-3-5-haiku-20241022"),
		TGIURL:          envStr("TGI_URL", "http://localhost:8080"),
		MaxPromptRunes:  envInt("MAX_PROMPT_RUNES", 8192),
		MaxOutputTokens: envInt("MAX_OUTPUT_TOKENS", 50),
		APIToken:        envStr("API_TOKEN", ""),
		SlackBotToken:   envStr("SLACK_BOT_TOKEN", ""),
		SlackChannel:    envStr("SLACK_CHANNEL", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt ignores values that are not positive integers.
func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
