package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBLogLevel string

	JWTSecret string
	JWTTTL    time.Duration

	CORSOrigins []string

	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string

	RecommendationURL     string
	RecommendationTimeout time.Duration

	GeminiAPIKey string
	GeminiModel  string

	CertificateBaseURL string
	DocumentTimeout    time.Duration
}

// LoadConfig reads .env when present, then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	return &Config{
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "elearning"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBLogLevel: getEnv("DB_LOG_LEVEL", "warn"),

		JWTSecret: getEnv("JWT_SECRET", "secret"),
		JWTTTL:    time.Duration(getEnvInt("JWT_TTL_HOURS", 72)) * time.Hour,

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),

		SupabaseURL:    getEnv("SUPABASE_URL", ""),
		SupabaseKey:    getEnv("SUPABASE_KEY", ""),
		SupabaseBucket: getEnv("SUPABASE_BUCKET", "uploads"),

		RecommendationURL:     getEnv("RECOMMENDATION_URL", "http://127.0.0.1:5000/recommend"),
		RecommendationTimeout: time.Duration(getEnvInt("RECOMMENDATION_TIMEOUT_SECONDS", 3)) * time.Second,

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		CertificateBaseURL: getEnv("CERTIFICATE_BASE_URL", "http://localhost:8080/certificates"),
		DocumentTimeout:    time.Duration(getEnvInt("DOCUMENT_TIMEOUT_SECONDS", 30)) * time.Second,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		log.Printf("invalid %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
