package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	MetricsPort string

	StoreBackend   string
	PostgresConn   string
	MongoURI       string
	MongoDatabase  string
	BreakerEnabled bool

	FirebaseCredentialsPath string
	FirebaseStorageBucket   string

	BlobBackend    string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	RedisAddr    string
	KafkaBrokers []string
	KafkaTopic   string

	AuthMode  string
	JWTSecret string

	LedgerMaxRetries int
	FeedPageSize     int
	SearchWindow     int
	SearchThreshold  float64
}

// Load reads configuration from the environment. Values in a local .env file
// are applied first; a missing file is not an error.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		MetricsPort: getEnv("METRICS_PORT", ""),

		StoreBackend:   getEnv("STORE_BACKEND", "memory"),
		PostgresConn:   getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:       getEnv("MONGO_URI", ""),
		MongoDatabase:  getEnv("MONGO_DATABASE", "memoshare"),
		BreakerEnabled: getEnvBool("STORE_BREAKER", true),

		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		FirebaseStorageBucket:   getEnv("FIREBASE_STORAGE_BUCKET", ""),

		BlobBackend:    getEnv("BLOB_BACKEND", "none"),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "memoshare"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		RedisAddr:    getEnv("REDIS_ADDR", ""),
		KafkaBrokers: getEnvList("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", ""),

		AuthMode:  getEnv("AUTH_MODE", "jwt"),
		JWTSecret: getEnv("JWT_SECRET", ""),

		LedgerMaxRetries: getEnvInt("LEDGER_MAX_RETRIES", 5),
		FeedPageSize:     getEnvInt("FEED_PAGE_SIZE", 10),
		SearchWindow:     getEnvInt("SEARCH_WINDOW", 100),
		SearchThreshold:  getEnvFloat("SEARCH_THRESHOLD", 0.3),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
