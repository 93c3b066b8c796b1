package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	PostgresConnStr         string
	MongoURI                string
	RedisAddress            string

	// Public base URLs used when rendering social posts and push payloads
	SiteBaseURL   string
	PublicAPIBase string

	// Directory for uploaded chat images
	ChatUploadDir string

	// Telegram Bot API
	TelegramBotToken string
	TelegramChatID   string

	// Facebook Graph API
	FacebookPageID          string
	FacebookPageAccessToken string

	// Instagram Graph API
	InstagramAccountID   string
	InstagramAccessToken string

	// Job queue tuning
	QueueMaxRetries    int
	QueueRetryBackoff  time.Duration
	WorkerConcurrency  int
	PlatformTimeout    time.Duration
	InstagramPollDelay time.Duration
	InstagramPollMax   int
}

func Load() *Config {
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		RedisAddress:            getEnv("REDIS_ADDRESS", "localhost:6379"),

		SiteBaseURL:   getEnv("SITE_BASE_URL", "https://bozormarket.uz"),
		PublicAPIBase: getEnv("PUBLIC_API_BASE", "https://bozormarket.uz/api"),

		ChatUploadDir: getEnv("CHAT_UPLOAD_DIR", "./uploads/chat"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		FacebookPageID:          getEnv("FACEBOOK_PAGE_ID", ""),
		FacebookPageAccessToken: getEnv("FACEBOOK_PAGE_ACCESS_TOKEN", ""),

		InstagramAccountID:   getEnv("INSTA_ACCOUNT_ID", ""),
		InstagramAccessToken: getEnv("INSTA_ACCESS_TOKEN", ""),

		QueueMaxRetries:    getEnvInt("QUEUE_MAX_RETRIES", 5),
		QueueRetryBackoff:  getEnvDuration("QUEUE_RETRY_BACKOFF", time.Second),
		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", 4),
		PlatformTimeout:    getEnvDuration("PLATFORM_HTTP_TIMEOUT", 30*time.Second),
		InstagramPollDelay: getEnvDuration("INSTA_POLL_DELAY", 3*time.Second),
		InstagramPollMax:   getEnvInt("INSTA_POLL_MAX", 10),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
