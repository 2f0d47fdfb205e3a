package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Store     StoreConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Telemetry TelemetryConfig
	AI        AIConfig
}

type ServerConfig struct {
	AppEnv      string
	Port        string
	BaseURL     string
	CORSOrigins []string
	// WebDir holds the built admin SPA. Empty disables static serving.
	WebDir string
}

type LoggerConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnectRetries  int
}

type AuthConfig struct {
	JWTSecret         string
	TokenTTLHours     int
	RegisterCode      string
	AllowRegistration bool
	SecureCookie      bool
	// Seed* create the first OWNER account on an empty database.
	SeedName     string
	SeedEmail    string
	SeedPassword string
}

// StoreConfig holds the shop-level settings used by the sale engine.
type StoreConfig struct {
	BillPrefix     string
	TimeZone       string
	WhatsAppNumber string
}

// RedisConfig is optional. An empty Addr keeps bill numbering in the database.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig is optional. No brokers means sale events are only logged.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type TelemetryConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
}

type AIConfig struct {
	GeminiAPIKey string
	Model        string
}

func Load() *Config {
	appEnv := getEnv("APP_ENV", "development")
	return &Config{
		Server: ServerConfig{
			AppEnv:      appEnv,
			Port:        getEnv("PORT", "8080"),
			BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
			CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:5173"}),
			WebDir:      getEnv("WEB_DIR", "./web"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "mysql"),
			DSN:             getEnv("DB_DSN", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
			ConnectRetries:  getEnvInt("DB_CONNECT_RETRIES", 5),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("JWT_SECRET", ""),
			TokenTTLHours:     getEnvInt("JWT_TTL_HOURS", 24*7),
			RegisterCode:      getEnv("ADMIN_REGISTER_CODE", ""),
			AllowRegistration: getEnvBool("ALLOW_REGISTRATION", false),
			SecureCookie:      getEnvBool("SECURE_COOKIE", appEnv == "production"),
			SeedName:          getEnv("ADMIN_SEED_NAME", "Owner"),
			SeedEmail:         getEnv("ADMIN_SEED_EMAIL", ""),
			SeedPassword:      getEnv("ADMIN_SEED_PASSWORD", ""),
		},
		Store: StoreConfig{
			BillPrefix:     getEnv("BILL_PREFIX", "REDA"),
			TimeZone:       getEnv("STORE_TIMEZONE", "Asia/Colombo"),
			WhatsAppNumber: getEnv("WHATSAPP_NUMBER", "+94721126526"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvSlice("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC_SALES", "sales.events"),
		},
		Telemetry: TelemetryConfig{
			Enabled:     getEnvBool("OTEL_ENABLED", false),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "reda-store"),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		},
		AI: AIConfig{
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			Model:        getEnv("GEMINI_MODEL", "gemini-2.0-flash-001"),
		},
	}
}

// Location resolves the store time zone, falling back to UTC when the
// zone database does not know the name.
func (s StoreConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
