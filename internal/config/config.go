package config

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	DBPath       string
	CSRFKey      []byte
	SessionKey   []byte
	CookieDomain string
	CookieSecure bool
}

func LoadConfig() (*Config, error) {
	// .env is optional; real env vars win either way.
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		DBPath:       getEnv("DB_PATH", "./congo.db"),
		CookieDomain: getEnv("COOKIE_DOMAIN", ""),
		CookieSecure: getEnv("COOKIE_SECURE", "false") == "true",
	}

	cfg.CSRFKey = loadKey("CSRF_KEY")
	cfg.SessionKey = loadKey("SESSION_KEY")

	// Make sure port is valid
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		slog.Error("Invalid PORT environment variable. Falling back to default.", "PORT", os.Getenv("PORT"))
		cfg.Port = "8080"
	}

	return cfg, nil
}

// loadKey reads a base64 32-byte key from the environment, generating a
// throwaway one when missing or malformed. Generated keys change on every
// restart, which invalidates sessions, so production must set them.
func loadKey(envVar string) []byte {
	raw := os.Getenv(envVar)
	if raw == "" {
		slog.Warn("Key not set in environment. Generating a random key for development. PLEASE SET IT IN PRODUCTION!", "var", envVar)
		return generateRandomBytes(32)
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(decoded) < 32 {
		slog.Warn("Key is invalid or too short (min 32 bytes). Generating a random key for development.", "var", envVar)
		return generateRandomBytes(32)
	}
	return decoded
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func generateRandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the platform is badly broken; refuse to
		// limp along with a guessable key.
		panic("config: crypto/rand unavailable: " + err.Error())
	}
	return b
}
