package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DatastoreMongo    = "mongo"
	DatastorePostgres = "postgres"
	DatastoreMemory   = "memory"

	StorageLocal = "local"
	StorageMinio = "minio"
)

type Config struct {
	Port                string
	AppEnv              string
	LogLevel            string
	JWTSecret           string
	JWTTTL              time.Duration
	Datastore           string
	MongoURL            string
	MongoDB             string
	DBUrl               string
	StorageDriver       string
	UploadDir           string
	PublicBaseURL       string
	MinioEndpoint       string
	MinioAccessKey      string
	MinioSecretKey      string
	MinioBucket         string
	MinioUseSSL         bool
	MinioPublicURL      string
	PlaceholderImageURL string
	MaxUploadBytes      int
	CORSAllowOrigins    string
	EnableMetrics       bool
	EnableDocs          bool
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "720h"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be a positive duration")
	}

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		AppEnv:              normalizeEnv(getEnv("APP_ENV", "production")),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		JWTSecret:           jwtSecret,
		JWTTTL:              ttl,
		Datastore:           strings.ToLower(strings.TrimSpace(getEnv("DATASTORE", DatastoreMongo))),
		MongoURL:            getEnv("MONGO_URL", "mongodb://localhost:27017"),
		MongoDB:             getEnv("MONGO_DB", "donation_network"),
		DBUrl:               getEnv("DB_URL", ""),
		StorageDriver:       strings.ToLower(strings.TrimSpace(getEnv("STORAGE_DRIVER", StorageLocal))),
		UploadDir:           getEnv("UPLOAD_DIR", "uploads"),
		PublicBaseURL:       strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		MinioEndpoint:       getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:      getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:      getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:         getEnv("MINIO_BUCKET", "donation-network"),
		MinioUseSSL:         getEnvBool("MINIO_USE_SSL", false),
		MinioPublicURL:      getEnv("MINIO_PUBLIC_URL", ""),
		PlaceholderImageURL: getEnv("PLACEHOLDER_IMAGE_URL", "https://via.placeholder.com/300"),
		MaxUploadBytes:      getEnvInt("MAX_UPLOAD_BYTES", 5<<20),
		CORSAllowOrigins:    getEnv("CORS_ALLOW_ORIGINS", "*"),
		EnableMetrics:       getEnvBool("ENABLE_METRICS", true),
		EnableDocs:          getEnvBool("ENABLE_API_DOCS", false),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Datastore {
	case DatastoreMongo:
		if c.MongoURL == "" {
			return fmt.Errorf("MONGO_URL is required for the mongo datastore")
		}
	case DatastorePostgres:
		if c.DBUrl == "" {
			return fmt.Errorf("DB_URL is required for the postgres datastore")
		}
	case DatastoreMemory:
	default:
		return fmt.Errorf("unknown DATASTORE %q", c.Datastore)
	}

	switch c.StorageDriver {
	case StorageLocal, StorageMinio:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

// DocsEnabled serves the API reference only from development builds.
func (c *Config) DocsEnabled() bool {
	return c != nil && c.EnableDocs && c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c == nil || c.AppEnv == "production"
}
