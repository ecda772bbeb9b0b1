package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	BlobBasePath string // root of the /images tree

	AuthSecret string
	TokenTTL   time.Duration
	BcryptCost int

	// Admin login is disabled when AdminPassword is empty.
	AdminID       string
	AdminPassword string

	CORSOrigins []string

	// Practice sessions idle longer than this are dropped.
	SessionIdleTimeout time.Duration
	SiteID             string

	// Question cache; empty RedisAddr disables it.
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	QuestionCacheTTL time.Duration
}

func defaults(v *viper.Viper) {
	v.SetDefault("MODE", string(ModeOffline))
	v.SetDefault("HTTP_ADDR", ":5000")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("BLOB_BASE_PATH", "./public/images")
	v.SetDefault("AUTH_HMAC_SECRET", "supersecret-dev-key")
	v.SetDefault("TOKEN_TTL", 7*24*time.Hour)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("ADMIN_ID", "admin")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("SESSION_IDLE_TIMEOUT", 2*time.Hour)
	v.SetDefault("SITE_ID", "local")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:8080")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("QUESTION_CACHE_TTL", 10*time.Minute)
}

// FromEnv reads configuration from the process environment. A .env file in the
// working directory (or the file named by ENV_FILE) is loaded first if present;
// variables already set in the environment win.
func FromEnv() Config {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			log.Fatalf("config: load %s: %v", envFile, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config: stat %s: %v", envFile, err)
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	defaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) Config {
	mode := Mode(strings.ToLower(v.GetString("MODE")))
	if mode != ModeOnline {
		mode = ModeOffline
	}
	cost := v.GetInt("BCRYPT_COST")
	if cost < 4 || cost > 31 {
		cost = 12
	}
	return Config{
		Mode:               mode,
		HTTPAddr:           v.GetString("HTTP_ADDR"),
		DBDriver:           v.GetString("DB_DRIVER"),
		DBDSN:              v.GetString("DB_DSN"),
		BlobBasePath:       v.GetString("BLOB_BASE_PATH"),
		AuthSecret:         v.GetString("AUTH_HMAC_SECRET"),
		TokenTTL:           v.GetDuration("TOKEN_TTL"),
		BcryptCost:         cost,
		AdminID:            v.GetString("ADMIN_ID"),
		AdminPassword:      v.GetString("ADMIN_PASSWORD"),
		CORSOrigins:        splitCSV(v.GetString("CORS_ORIGINS")),
		SessionIdleTimeout: v.GetDuration("SESSION_IDLE_TIMEOUT"),
		SiteID:             v.GetString("SITE_ID"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		QuestionCacheTTL:   v.GetDuration("QUESTION_CACHE_TTL"),
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
