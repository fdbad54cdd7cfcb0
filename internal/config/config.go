package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	APIToken           string
	UserModelReference string
	ShowDocs           bool
	APITitle           string
	HTTPAddr           string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	OTLPEndpoint string

	LogLevel  string
	LogFormat string

	ExpirySweepInterval int

	RedisAddr string
}

// Load loads configuration from environment variables and .env file, then
// layers an optional file-based overlay on top for the handful of fields a
// self-hosted deployment typically wants to manage outside the process
// environment (API_TITLE, SHOW_DOCS).
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "railzway-billing"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: environment,

		APIToken:           strings.TrimSpace(getenv("API_TOKEN", "")),
		UserModelReference: getenv("USER_MODEL_REFERENCE", "billable.User"),
		ShowDocs:           getenvBool("SHOW_DOCS", false),
		APITitle:           getenv("API_TITLE", "Railzway Billing"),
		HTTPAddr:           getenv("HTTP_ADDR", ":8080"),

		DBType:            getenv("DB_TYPE", "sqlite"),
		DBHost:            getenv("DB_HOST", "localhost"),
		DBPort:            getenv("DB_PORT", "5432"),
		DBName:            getenv("DB_NAME", "railzway_billing"),
		DBUser:            getenv("DB_USER", "postgres"),
		DBPassword:        getenv("DB_PASSWORD", ""),
		DBSSLMode:         getenv("DB_SSL_MODE", "disable"),
		DBMaxIdleConn:     int(getenvInt64("DB_MAX_IDLE_CONN", 5)),
		DBMaxOpenConn:     int(getenvInt64("DB_MAX_OPEN_CONN", 20)),
		DBConnMaxLifetime: int(getenvInt64("DB_CONN_MAX_LIFETIME", 3600)),
		DBConnMaxIdleTime: int(getenvInt64("DB_CONN_MAX_IDLE_TIME", 300)),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),

		ExpirySweepInterval: int(getenvInt64("EXPIRY_SWEEP_INTERVAL_SECONDS", 60)),

		RedisAddr: strings.TrimSpace(getenv("REDIS_ADDR", "")),
	}

	applyFileOverlay(&cfg)
	return cfg
}

// applyFileOverlay looks for railzway.{yaml,yml,json} in the working
// directory or /etc/railzway and overrides api_title/show_docs when
// present, leaving cfg untouched when no such file exists. Unlike the
// teacher's billing-config overlay this one does not watch for changes:
// API_TITLE/SHOW_DOCS are read once at boot.
func applyFileOverlay(cfg *Config) {
	v := viper.New()
	v.SetConfigName("railzway")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/railzway")

	if err := v.ReadInConfig(); err != nil {
		return
	}
	if v.IsSet("api_title") {
		cfg.APITitle = v.GetString("api_title")
	}
	if v.IsSet("show_docs") {
		cfg.ShowDocs = v.GetBool("show_docs")
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}
