package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port              string
	CORSAllowOrigin   []string
	ObjectStoreType   string
	LocalStoreDir     string
	AWSRegion         string
	S3Bucket          string
	S3Prefix          string
	SSEKMSKeyID       string
	ReasoningProvider string
	ReasoningModel    string
	ReasoningTimeout  time.Duration
	MaxAttempts       int
	RetryBackoff      time.Duration
	ScoringPolicyFile string
	DatabaseURL       string
	Env               string
	SMTPHost          string
	SMTPUser          string
	SMTPPass          string
	FromEmail         string
	ReportEmail       string
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
		Port:              getEnv("PORT", "8080"),
		CORSAllowOrigin:   splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		ObjectStoreType:   normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:     getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:         getEnv("AWS_REGION", ""),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3Prefix:          getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:       getEnv("SSE_KMS_KEY_ID", ""),
		ReasoningProvider: getEnv("REASONING_PROVIDER", "openai"),
		ReasoningModel:    getEnv("REASONING_MODEL", ""),
		ReasoningTimeout:  getEnvSeconds("REASONING_TIMEOUT_SECONDS", 120*time.Second),
		MaxAttempts:       getEnvInt("REASONING_MAX_ATTEMPTS", 3),
		RetryBackoff:      getEnvMillis("REASONING_RETRY_BACKOFF_MS", 300*time.Millisecond),
		ScoringPolicyFile: getEnv("SCORING_POLICY_FILE", ""),
		DatabaseURL:       dbURL,
		Env:               env,
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPUser:          getEnv("SMTP_USER", ""),
		SMTPPass:          getEnv("SMTP_PASS", ""),
		FromEmail:         getEnv("FROM_EMAIL", ""),
		ReportEmail:       getEnv("REPORT_EMAIL", ""),
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
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func getEnvSeconds(key string, def time.Duration) time.Duration {
	if v := getEnvInt(key, 0); v > 0 {
		return time.Duration(v) * time.Second
	}
	return def
}

func getEnvMillis(key string, def time.Duration) time.Duration {
	if v := getEnvInt(key, 0); v > 0 {
		return time.Duration(v) * time.Millisecond
	}
	return def
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

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
