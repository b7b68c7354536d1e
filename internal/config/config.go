package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Redis
		Tasks
		TokenCleanup
		Audit
		Auth
		Log
		Client
	}

	HTTP struct {
		Port      int32
		Host      string
		APIPrefix string
		ReadOnly  bool // Reject catalog writes with 403
		// HSTSMaxAge in seconds; zero omits Strict-Transport-Security
		HSTSMaxAge int
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Driver   string // sqlite, mysql or postgres
		Path     string // SQLite file path
		DSN      string // Connection string for mysql/postgres
		LogLevel string // silent, error, warn, info
	}
	Redis struct {
		Addr     string // Empty disables the token cache
		Password string
		DB       int
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		MaxRetries      int
		TaskTimeout     time.Duration
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	TokenCleanup struct {
		Schedule string // Cron format: "0 * * * *" = hourly
	}
	Audit struct {
		RetentionDays   int    // Zero keeps events forever
		CleanupSchedule string // Cron format: "30 3 * * *" = daily at 03:30
	}
	Auth struct {
		TokenExpiry time.Duration // Zero means tokens never expire
		BcryptCost  int

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Log struct {
		Level  string
		Format string // console or json
	}
	Client struct {
		BaseURL       string
		SessionPath   string
		EncryptionKey string // Base64 AES-256 key; falls back to <session path>.key
	}
)

// loadDotEnv reads an optional .env file. Variables already present in the
// environment win over the file.
func loadDotEnv() {
	path := os.Getenv("BOOKKINDER_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err == nil {
		_ = godotenv.Load(path)
	}
}

func NewConfig() *Config {
	loadDotEnv()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("api_prefix", "/api")
	v.SetDefault("read_only", false)
	v.SetDefault("hsts_max_age", 0)
	v.SetDefault("shutdown_timeout_in_seconds", 2)

	v.SetDefault("database_driver", DriverSQLite)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")
	v.SetDefault("database_log_level", "warn")

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	// Auth defaults
	v.SetDefault("auth_token_expiry", "720h")     // 30 days
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_timeout", "1m")
	v.SetDefault("task_release_after", "5m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("token_cleanup_schedule", "0 * * * *") // Hourly at :00
	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("audit_cleanup_schedule", "30 3 * * *")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	v.SetDefault("api_base_url", DefaultAPIBaseURL)
	v.SetDefault("client_session_path", DefaultClientSessionPath)
	v.SetDefault("client_encryption_key", "")

	return &Config{
		HTTP: HTTP{
			Port:       v.GetInt32("PORT"),
			Host:       v.GetString("HOST"),
			APIPrefix:  v.GetString("API_PREFIX"),
			ReadOnly:   v.GetBool("READ_ONLY"),
			HSTSMaxAge: v.GetInt("HSTS_MAX_AGE"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Driver:   v.GetString("DATABASE_DRIVER"),
			Path:     v.GetString("DATABASE_PATH"),
			DSN:      v.GetString("DATABASE_DSN"),
			LogLevel: v.GetString("DATABASE_LOG_LEVEL"),
		},
		Redis: Redis{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			MaxRetries:      v.GetInt("TASK_MAX_RETRIES"),
			TaskTimeout:     v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		TokenCleanup: TokenCleanup{
			Schedule: v.GetString("TOKEN_CLEANUP_SCHEDULE"),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Auth: Auth{
			TokenExpiry:      v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Client: Client{
			BaseURL:       v.GetString("API_BASE_URL"),
			SessionPath:   v.GetString("CLIENT_SESSION_PATH"),
			EncryptionKey: v.GetString("CLIENT_ENCRYPTION_KEY"),
		},
	}
}
