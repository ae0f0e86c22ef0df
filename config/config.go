package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Security
	JWTSecret    string
	AuthorityPIN string

	// Server
	Port           string
	TrustedProxies []string

	// Notifications
	SendGridAPIKey   string
	EmailFromName    string
	EmailFromAddress string
}

func Load() *Config {
	// Missing .env is fine; plain env vars still apply.
	godotenv.Load()

	cfg := &Config{
		DBUser:           getEnv("DB_USER", "root"),
		DBPassword:       getEnv("DB_PASSWORD", "password"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "3306"),
		DBName:           getEnv("DB_NAME", "civicwatch"),
		JWTSecret:        getEnv("JWT_SECRET", "your-secret-key-here"),
		AuthorityPIN:     getEnv("AUTHORITY_PIN", "123456"),
		Port:             getEnv("PORT", "8080"),
		SendGridAPIKey:   getEnv("SENDGRID_API_KEY", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "CivicWatch"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", "noreply@civicwatch.example"),
	}

	trustedProxies := os.Getenv("TRUSTED_PROXIES")
	if trustedProxies != "" {
		cfg.TrustedProxies = strings.Split(trustedProxies, ",")
		for i, proxy := range cfg.TrustedProxies {
			cfg.TrustedProxies[i] = strings.TrimSpace(proxy)
		}
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
