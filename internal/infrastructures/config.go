package infrastructures

import (
	"os"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	DATABASE_URL         string
	REDIS_ADDRESS        string
	REDIS_PASSWORD       string
	PORT                 string
	MONTHLY_ISSUANCE_CAP string
	LOCK_WAIT_MS         string
	NOTIFICATION_CHANNEL string
}

var Config *AppConfig

func LoadConfig() *AppConfig {
	godotenv.Load()

	Config = &AppConfig{
		DATABASE_URL:         os.Getenv("DATABASE_URL"),
		REDIS_ADDRESS:        os.Getenv("REDIS_ADDRESS"),
		REDIS_PASSWORD:       os.Getenv("REDIS_PASSWORD"),
		PORT:                 getEnv("PORT", "8080"),
		MONTHLY_ISSUANCE_CAP: getEnv("MONTHLY_ISSUANCE_CAP", "5000.00"),
		LOCK_WAIT_MS:         getEnv("LOCK_WAIT_MS", "500"),
		NOTIFICATION_CHANNEL: getEnv("NOTIFICATION_CHANNEL", "giftcard-events"),
	}

	return Config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
