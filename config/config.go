package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	Env           string
	DatabaseURL   string
	RedisURL      string
	SessionTTL    time.Duration
	FrontendURL   string
	PublicBaseURL string

	LiqPayPublicKey  string
	LiqPayPrivateKey string
	Currency         string

	FirebaseBucket string

	// APIKeys maps a static API key to the account e-mail it acts as.
	APIKeys map[string]string
}

func LoadEnv() error {
	// A missing .env is fine; production sets variables directly.
	_ = godotenv.Load()
	return nil
}

// ValidateEnv checks that critical environment variables are set.
// Missing optional variables are returned as warnings for the caller to log.
func ValidateEnv() ([]string, error) {
	var missing []string

	if os.Getenv("JWT_SECRET") == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if os.Getenv("DATABASE_URL") == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("critical environment variables not set: %v", missing)
	}

	var warnings []string
	optional := map[string]string{
		"LIQPAY_PUBLIC_KEY":              "payment forms cannot be issued",
		"LIQPAY_PRIVATE_KEY":             "payment callbacks cannot be verified",
		"REDIS_URL":                      "sessions are kept in process memory",
		"FIREBASE_STORAGE_BUCKET":        "image uploads will fail",
		"GOOGLE_APPLICATION_CREDENTIALS": "Firebase features may not work",
		"FRONTEND_URL":                   "CORS may not work correctly",
		"PUBLIC_BASE_URL":                "gateway callback URLs fall back to localhost",
		"SMTP_HOST":                      "email notifications will not work",
	}
	for _, key := range []string{
		"LIQPAY_PUBLIC_KEY", "LIQPAY_PRIVATE_KEY", "REDIS_URL", "FIREBASE_STORAGE_BUCKET",
		"GOOGLE_APPLICATION_CREDENTIALS", "FRONTEND_URL", "PUBLIC_BASE_URL", "SMTP_HOST",
	} {
		if os.Getenv(key) == "" {
			warnings = append(warnings, fmt.Sprintf("%s not set - %s", key, optional[key]))
		}
	}

	return warnings, nil
}

// Load reads the configuration from the environment, applying defaults.
func Load() (*Config, error) {
	ttl, err := time.ParseDuration(GetEnv("SESSION_TTL", "336h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	port := GetEnv("PORT", "8080")
	return &Config{
		Port:             port,
		Env:              GetEnv("APP_ENV", "development"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		SessionTTL:       ttl,
		FrontendURL:      os.Getenv("FRONTEND_URL"),
		PublicBaseURL:    strings.TrimRight(GetEnv("PUBLIC_BASE_URL", "http://localhost:"+port), "/"),
		LiqPayPublicKey:  os.Getenv("LIQPAY_PUBLIC_KEY"),
		LiqPayPrivateKey: os.Getenv("LIQPAY_PRIVATE_KEY"),
		Currency:         GetEnv("LIQPAY_CURRENCY", "UAH"),
		FirebaseBucket:   os.Getenv("FIREBASE_STORAGE_BUCKET"),
		APIKeys:          ParseAPIKeys(os.Getenv("API_KEYS")),
	}, nil
}

// ParseAPIKeys parses "key:email,key2:email2". Malformed entries are skipped.
func ParseAPIKeys(raw string) map[string]string {
	keys := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		key, email, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok || key == "" || email == "" {
			continue
		}
		keys[key] = email
	}
	return keys
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
