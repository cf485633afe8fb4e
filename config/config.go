package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Port          string
	Env           string
	LogLevel      string
	AllowedOrigin string
	// Store
	StoreDriver  string
	StoreTimeout time.Duration
	// Mongo Config
	MongoURI         string
	MongoDatabase    string
	MongoCollection  string
	MongoMaxPoolSize uint64
	// DB Config (postgres driver)
	DBUrl             string
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnIdleTime time.Duration
	// Auth
	AuthEnabled bool
	JWTSecret   string
	// Cache
	CacheProductTTL time.Duration
	// Rate limiting
	RateLimitRPS        float64
	RateLimitBurst      int
	RateLimitWriteRPS   float64
	RateLimitWriteBurst int
	// R2 Storage
	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2BucketName      string
	R2PublicURL       string
	// Upload Configuration
	MaxUploadSizeMB int64
	R2UploadTimeout time.Duration
}

func LoadConfig() *Config {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// 2. Default fallback: Try loading .env (standard local dev)
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),

		StoreDriver:  getEnv("STORE_DRIVER", StoreMongo),
		StoreTimeout: getDurationEnv("STORE_TIMEOUT", 5*time.Second),

		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:    getEnv("MONGO_DATABASE", "shop"),
		MongoCollection:  getEnv("MONGO_COLLECTION", "products"),
		MongoMaxPoolSize: getUint64Env("MONGO_MAX_POOL_SIZE", 100),

		DBUrl:             getEnv("DB_DSN", ""),
		DBMaxConns:        getInt32Env("DB_MAX_CONNS", 50),
		DBMinConns:        getInt32Env("DB_MIN_CONNS", 10),
		DBMaxConnIdleTime: getDurationEnv("DB_MAX_CONN_IDLE_TIME", time.Minute*15),

		AuthEnabled: getBoolEnv("AUTH_ENABLED", true),
		JWTSecret:   getEnv("JWT_SECRET", "default_secret_CHANGE_ME"),

		// 0 disables the product read cache
		CacheProductTTL: getDurationEnv("CACHE_PRODUCT_TTL", 10*time.Minute),

		// reads: 50 req/s, burst 100; writes: 5 req/s, burst 10
		RateLimitRPS:        getFloat64Env("RATE_LIMIT_RPS", 50),
		RateLimitBurst:      getIntEnv("RATE_LIMIT_BURST", 100),
		RateLimitWriteRPS:   getFloat64Env("RATE_LIMIT_WRITE_RPS", 5),
		RateLimitWriteBurst: getIntEnv("RATE_LIMIT_WRITE_BURST", 10),

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2AccessKeySecret: getEnv("R2_ACCESS_KEY_SECRET", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),

		// Upload defaults: 10MB max, 30s timeout
		MaxUploadSizeMB: getInt64Env("MAX_UPLOAD_SIZE_MB", 10),
		R2UploadTimeout: getDurationEnv("R2_UPLOAD_TIMEOUT", 30*time.Second),
	}
}

// Validate reports settings the selected store driver cannot start without.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the %s store", StoreMongo)
		}
		if c.MongoDatabase == "" || c.MongoCollection == "" {
			return fmt.Errorf("MONGO_DATABASE and MONGO_COLLECTION are required for the %s store", StoreMongo)
		}
	case StorePostgres:
		if c.DBUrl == "" {
			return fmt.Errorf("DB_DSN is required for the %s store", StorePostgres)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	if c.AuthEnabled && c.JWTSecret == "default_secret_CHANGE_ME" {
		log.Println("WARNING: Using default JWT secret. Setting up for failure in production.")
	}
	return nil
}

// R2Enabled reports whether image uploads can be served.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2BucketName != "" && c.R2PublicURL != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}

func getInt64Env(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
		log.Printf("Invalid int64 for %s, using fallback", key)
	}
	return fallback
}
