package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	SQLitePath    string
	RedisHost     string
	RedisPort     string
	SessionSecret string
	GinMode       string
	Port          string
	OpenAIAPIKey  string

	// Invitation tokens and links
	TokenSecret   string
	InvitationTTL time.Duration
	FrontendURL   string

	// Outgoing mail. An empty SMTPHost logs notifications instead of sending them.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	RequestTimeout time.Duration
	NotifyTimeout  time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBDriver:       getEnv("DB_DRIVER", "mysql"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "3306"),
		DBUser:         getEnv("DB_USER", "projectuser"),
		DBPassword:     getEnv("DB_PASSWORD", "projectpassword"),
		DBName:         getEnv("DB_NAME", "project_collab"),
		SQLitePath:     getEnv("SQLITE_PATH", "project_collab.db"),
		RedisHost:      getEnv("REDIS_HOST", "localhost"),
		RedisPort:      getEnv("REDIS_PORT", "6379"),
		SessionSecret:  getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		Port:           getEnv("PORT", "8080"),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		TokenSecret:    getEnv("TOKEN_SECRET", "default-token-secret-change-me"),
		InvitationTTL:  getDuration("INVITATION_TTL", 7*24*time.Hour),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getInt("SMTP_PORT", 587),
		SMTPUsername:   getEnv("SMTP_USERNAME", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		MailFrom:       getEnv("MAIL_FROM", "no-reply@localhost"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 10*time.Second),
		NotifyTimeout:  getDuration("NOTIFY_TIMEOUT", 15*time.Second),
	}
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
