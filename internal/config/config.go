package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port   string
	DBPath string

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	// MaxPromptTokens caps a single prompt before it is sent to the
	// generation service.
	MaxPromptTokens int
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Load reads all env vars and builds the config.
func Load() *Config {
	return &Config{
		Port:   getEnv("SATURN_PORT", "3001"),
		DBPath: getEnv("SATURN_DB_PATH", "saturn.db"),

		LLMBaseURL: getEnv("SATURN_LLM_BASE_URL", "http://localhost:11434/v1/"),
		LLMAPIKey:  getEnv("SATURN_LLM_API_KEY", ""),
		LLMModel:   getEnv("SATURN_LLM_MODEL", "llama3.1:8b"),

		MaxPromptTokens: getIntEnv("SATURN_LLM_MAX_PROMPT_TOKENS", 4096),
	}
}
