package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingMongoService is returned by Validate when MONGODB_SERVICE is not set.
var ErrMissingMongoService = errors.New("missing MongoDB server in the MONGODB_SERVICE variable")

// Config stores the application configuration.
type Config struct {
	HTTPPort       string
	RequestTimeout time.Duration

	// MongoDB
	MongoService  string // host or host:port
	MongoUsername string
	MongoPassword string
	MongoPort     string
	MongoDatabase string

	// 种子数据
	SeedFile   string
	SeedObject string // MinIO object key, takes precedence over SeedFile when MinIO is configured

	// MinIO配置
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioRegion    string

	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string

	// 日志配置
	LogLevel      string
	LogFile       string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int
	LogCompress   bool
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
// Environment variables are read once; nothing re-reads them while serving.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),

		MongoService:  strings.TrimSpace(os.Getenv("MONGODB_SERVICE")),
		MongoUsername: os.Getenv("MONGODB_USERNAME"),
		MongoPassword: os.Getenv("MONGODB_PASSWORD"), // 密码不设默认值
		MongoPort:     os.Getenv("MONGODB_PORT"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "songs"),

		SeedFile:   getEnv("SEED_FILE", "data/songs.json"),
		SeedObject: os.Getenv("SEED_OBJECT"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "songs"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),

		RedisHost:     os.Getenv("REDIS_HOST"), // 为空时不发布变更事件
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisChannel:  getEnv("REDIS_CHANNEL", "songs.events"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       os.Getenv("LOG_FILE"),
		LogMaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAge:     getEnvInt("LOG_MAX_AGE", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", false),
	}
}

// Validate reports configuration problems that must stop the process before serving.
func (c *Config) Validate() error {
	if c.MongoService == "" {
		return ErrMissingMongoService
	}
	return nil
}

// UseMinioSeed reports whether the seed should be fetched from object storage.
func (c *Config) UseMinioSeed() bool {
	return c.SeedObject != "" && c.MinioEndpoint != ""
}

// UseRedis reports whether change events should be published.
func (c *Config) UseRedis() bool {
	return c.RedisHost != ""
}
