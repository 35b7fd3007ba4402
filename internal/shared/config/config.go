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
	Port            string
	Env             string
	DatabaseURL     string
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string

	// Gemini evaluation settings.
	GeminiAPIKey string
	// Models tried in priority order by the invoker.
	GeminiModels []string

	// Score thresholds for the evaluation outcome.
	QualificationThreshold int
	RejectedMaxScore       int

	// Minimum gap between externally triggered re-evaluations.
	RetryCooldown time.Duration

	// Assessment vendor (invite API + completion webhooks).
	VendorBaseURL string
	VendorToken   string
	WebhookToken  string

	// Identity recorded on webhook-driven candidate writes.
	ServiceIdentity string

	// Outbound mail.
	MailSender               string
	NotMatchingSubjectTmpl   string
	NotMatchingBodyTmpl      string
	RejectedAfterSubjectTmpl string
	RejectedAfterBodyTmpl    string

	// Office conversion binary for Word resumes.
	SofficePath string

	CORSAllowOrigin []string
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
		Env:             env,
		DatabaseURL:     dbURL,
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModels: splitAndTrim(getEnv("GEMINI_MODELS", "gemini-2.5-flash,gemini-2.0-flash")),

		QualificationThreshold: getEnvInt("QUALIFICATION_SCORE_THRESHOLD", 60),
		RejectedMaxScore:       getEnvInt("REJECTED_MAX_SCORE", 20),
		RetryCooldown:          getEnvDuration("EVALUATION_RETRY_COOLDOWN", 5*time.Minute),

		VendorBaseURL: strings.TrimRight(getEnv("ASSESSMENT_VENDOR_BASE_URL", ""), "/"),
		VendorToken:   getEnv("ASSESSMENT_VENDOR_TOKEN", ""),
		WebhookToken:  getEnv("ASSESSMENT_WEBHOOK_TOKEN", ""),

		ServiceIdentity: getEnv("SERVICE_IDENTITY", "evaluation-service"),

		MailSender:               getEnv("MAIL_SENDER", ""),
		NotMatchingSubjectTmpl:   getEnv("MAIL_NOT_MATCHING_SUBJECT", ""),
		NotMatchingBodyTmpl:      getEnv("MAIL_NOT_MATCHING_BODY", ""),
		RejectedAfterSubjectTmpl: getEnv("MAIL_REJECTED_AFTER_TEST_SUBJECT", ""),
		RejectedAfterBodyTmpl:    getEnv("MAIL_REJECTED_AFTER_TEST_BODY", ""),

		SofficePath: getEnv("SOFFICE_PATH", "soffice"),

		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGIN", "")),
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
		log.Printf("config %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config %s invalid duration: %v", key, err)
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

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
