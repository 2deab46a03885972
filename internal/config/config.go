package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port           string
	Env            string
	PublicBaseURL  string
	LogLevel       string
	UseMemoryQueue bool
	WorkerCount    int
	DatabaseURL    string

	// Session storage
	SessionBackend     string
	SessionTTL         time.Duration
	SessionIdleTimeout time.Duration
	SweepInterval      time.Duration
	SessionsTable      string
	ArchiveBucket      string
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool

	// AWS
	AWSRegion            string
	AWSAccessKeyID       string
	AWSSecretAccessKey   string
	AWSEndpointOverride  string
	ConversationQueueURL string

	// Language model
	LLMProvider         string
	LLMFallbackProvider string
	OpenAIAPIKey        string
	OpenAIModel         string
	BedrockModelID      string
	GeminiAPIKey        string
	GeminiModel         string
	NLUTimeout          time.Duration

	// Geo
	GoogleMapsAPIKey string
	GeoTimeout       time.Duration
	GeoRateLimit     float64

	// Booking backend
	BackendBaseURL   string
	BackendJWTSecret string
	BackendTimeout   time.Duration

	// Fleet and dialogue policy
	FleetRatesFile              string
	DefaultDistanceKm           float64
	AirportDefaultPeriod        string
	LocationMinConfidence       float64
	MaxRetriesBeforeForceAccept int
	MaxEmptyTurns               int
	CompanyName                 string

	// Twilio
	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioFromNumber   string
	TwilioWhatsAppFrom string

	// Operations notifications
	OpsEmailRecipients []string
	OpsPhone           string
	EmailProvider      string
	SendGridAPIKey     string
	SendGridSandbox    bool
	SESConfigSet       string
	EmailFrom          string
	EmailFromName      string

	// HTTP surface
	AdminJWTSecret     string
	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present; real env vars win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		UseMemoryQueue: getEnvAsBool("USE_MEMORY_QUEUE", true),
		WorkerCount:    getEnvAsInt("WORKER_COUNT", 2),
		DatabaseURL:    getEnv("DATABASE_URL", ""),

		SessionBackend:     strings.ToLower(getEnv("SESSION_BACKEND", "redis")),
		SessionTTL:         getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		SessionIdleTimeout: getEnvAsDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		SweepInterval:      getEnvAsDuration("SWEEP_INTERVAL", 5*time.Minute),
		SessionsTable:      getEnv("SESSIONS_TABLE", "bareerah_sessions"),
		ArchiveBucket:      getEnv("ARCHIVE_BUCKET", ""),
		RedisAddr:          getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),

		AWSRegion:            getEnv("AWS_REGION", "me-central-1"),
		AWSAccessKeyID:       getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride:  getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		ConversationQueueURL: getEnv("CONVERSATION_QUEUE_URL", ""),

		LLMProvider:         strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		LLMFallbackProvider: strings.ToLower(getEnv("LLM_FALLBACK_PROVIDER", "")),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o"),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		NLUTimeout:          getEnvAsDuration("NLU_TIMEOUT", 4*time.Second),

		GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
		GeoTimeout:       getEnvAsDuration("GEO_TIMEOUT", 3*time.Second),
		GeoRateLimit:     getEnvAsFloat("GEO_RATE_LIMIT", 10),

		BackendBaseURL:   strings.TrimRight(getEnv("BACKEND_BASE_URL", ""), "/"),
		BackendJWTSecret: getEnv("BACKEND_JWT_SECRET", ""),
		BackendTimeout:   getEnvAsDuration("BACKEND_TIMEOUT", 3*time.Second),

		FleetRatesFile:              getEnv("FLEET_RATES_FILE", ""),
		DefaultDistanceKm:           getEnvAsFloat("DEFAULT_DISTANCE_KM", 20),
		AirportDefaultPeriod:        strings.ToUpper(getEnv("AIRPORT_DEFAULT_PERIOD", "AM")),
		LocationMinConfidence:       getEnvAsFloat("LOCATION_MIN_CONFIDENCE", 0.75),
		MaxRetriesBeforeForceAccept: getEnvAsInt("MAX_RETRIES_BEFORE_FORCE_ACCEPT", 2),
		MaxEmptyTurns:               getEnvAsInt("MAX_EMPTY_TURNS", 2),
		CompanyName:                 getEnv("COMPANY_NAME", "Star Skyline Limousine"),

		TwilioAccountSID:   getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:    getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber:   getEnv("TWILIO_FROM_NUMBER", ""),
		TwilioWhatsAppFrom: getEnv("TWILIO_WHATSAPP_FROM", ""),

		OpsEmailRecipients: getEnvAsList("OPS_EMAIL_RECIPIENTS"),
		OpsPhone:           getEnv("OPS_PHONE", ""),
		EmailProvider:      strings.ToLower(getEnv("EMAIL_PROVIDER", "stub")),
		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		SendGridSandbox:    getEnvAsBool("SENDGRID_SANDBOX", false),
		SESConfigSet:       getEnv("SES_CONFIGURATION_SET", ""),
		EmailFrom:          getEnv("EMAIL_FROM", ""),
		EmailFromName:      getEnv("EMAIL_FROM_NAME", "Bareerah"),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
