package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string

	DatabaseURL string
	JobsDBPath  string

	LLMProvider  string
	LLMModel     string
	OpenAIAPIKey string

	RatingScale      string
	BatchSize        int
	BatchIntervalMs  int
	MaxWordsPerChunk int
	MinWordsPerChunk int

	ArchetypeLibraryPath string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:             env,

		DatabaseURL: dbURL,
		JobsDBPath:  getEnv("JOBS_DB_PATH", "./data/jobs.db"),

		LLMProvider:  getEnv("LLM_PROVIDER", "openai"),
		LLMModel:     getEnv("LLM_MODEL", "gpt-4o-mini"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),

		RatingScale:      normalizeScale(getEnv("RATING_SCALE", "1-10")),
		BatchSize:        getEnvInt("ANALYSIS_BATCH_SIZE", 3),
		BatchIntervalMs:  getEnvInt("ANALYSIS_BATCH_INTERVAL_MS", 1000),
		MaxWordsPerChunk: getEnvInt("MAX_WORDS_PER_CHUNK", 1000),
		MinWordsPerChunk: getEnvInt("MIN_WORDS_PER_CHUNK", 150),

		ArchetypeLibraryPath: getEnv("ARCHETYPE_LIBRARY_PATH", ""),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeScale(raw string) string {
	switch strings.TrimSpace(raw) {
	case "1-5", "5":
		return "1-5"
	default:
		return "1-10"
	}
}
