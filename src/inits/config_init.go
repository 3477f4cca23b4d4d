package inits

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything the gateway reads from the environment.
type Config struct {
	FlickrAPIKey string
	RedisURL     string
	Host         string
	Port         string

	FriendsCacheTTL time.Duration
	SizesCacheTTL   time.Duration
	InfoCacheTTL    time.Duration
	SessionTTL      time.Duration
}

// LoadConfig reads .env when present and falls back to defaults for
// anything unset.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Print("No .env file found, using environment as-is")
	}

	return Config{
		FlickrAPIKey:    getEnv("FLICKR_API_KEY", ""),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
		Host:            getEnv("HOST", "0.0.0.0"),
		Port:            getEnv("PORT", "2525"),
		FriendsCacheTTL: getEnvSeconds("FRIENDS_CACHE_TTL", 2*60*60),
		SizesCacheTTL:   getEnvSeconds("SIZES_CACHE_TTL", 24*60*60),
		InfoCacheTTL:    getEnvSeconds("INFO_CACHE_TTL", 5*60),
		SessionTTL:      getEnvSeconds("SESSION_TTL", 24*60*60),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	raw := getEnv(key, "")
	if raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return time.Duration(n) * time.Second
		}
		log.Printf("Ignoring non-numeric %v=%q", key, raw)
	}
	return time.Duration(defaultSeconds) * time.Second
}
