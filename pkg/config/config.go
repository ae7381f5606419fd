package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBUrl             string
	RedisURL          string
	RedisPassword     string
	JWTSecret         string
	AdminPasswordHash string
	TelegramBotToken  string
	DefaultCurrency   string
	DefaultMaxAgeMins int
	Port              string
	Host              string
	Env               string
	AllowedOrigins    []string
}

func LoadConfig() Config {
	godotenv.Load()

	maxAgeStr := getEnvOr("DEFAULT_MAX_AGE_MINUTES", "30")
	maxAge, err := strconv.Atoi(maxAgeStr)
	if err != nil {
		panic("DEFAULT_MAX_AGE_MINUTES must be a valid integer")
	}

	return Config{
		DBUrl:             getEnv("DATABASE_URL"),
		RedisURL:          getEnv("REDIS_URL"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		JWTSecret:         getEnv("JWT_SECRET"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH"),
		TelegramBotToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		DefaultCurrency:   getEnvOr("DEFAULT_CURRENCY", "AED"),
		DefaultMaxAgeMins: maxAge,
		Port:              getEnv("PORT"),
		Host:              getEnv("HOST"),
		Env:               getEnv("ENV"),
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS"), ","),
	}
}

func getEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	panic(fmt.Sprintf("%s is required", key))
}

func getEnvOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
