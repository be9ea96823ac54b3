package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	NATS        NATSConfig
	Auth        AuthConfig
	Store       StoreConfig
	Replication ReplicationConfig
	RateLimit   RateLimitConfig
	LogLevel    string
}

type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

// DatabaseConfig selects the booking store. An empty URL keeps bookings in
// memory, snapshotted to StoreConfig.SnapshotPath when that is set.
type DatabaseConfig struct {
	URL         string
	MaxConns    int
	MinConns    int
	MaxLifetime time.Duration
}

type RedisConfig struct {
	URL            string
	IdempotencyTTL time.Duration
}

type NATSConfig struct {
	URL string
}

type AuthConfig struct {
	JWTSecret string
	// AdminPassphraseHash is an argon2id hash. When empty, AdminPassphrase
	// is hashed at startup.
	AdminPassphrase     string
	AdminPassphraseHash string
	AdminSessionTTL     time.Duration
}

type StoreConfig struct {
	Timezone     string
	HorizonDays  int
	SnapshotPath string
}

type ReplicationConfig struct {
	URL       string
	Timeout   time.Duration
	RetrySpec string
	BatchSize int
}

type RateLimitConfig struct {
	BookingsPerMinute int
	LoginsPerMinute   int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			ReadTimeout:    getDuration("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout:   getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:    getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			AllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:5174"}),
		},
		Database: DatabaseConfig{
			URL:         getEnv("DATABASE_URL", ""),
			MaxConns:    getInt("DB_MAX_CONNS", 10),
			MinConns:    getInt("DB_MIN_CONNS", 1),
			MaxLifetime: getDuration("DB_MAX_LIFETIME", time.Hour),
		},
		Redis: RedisConfig{
			URL:            getEnv("REDIS_URL", ""),
			IdempotencyTTL: getDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", ""),
		},
		Auth: AuthConfig{
			JWTSecret:           getEnv("JWT_SECRET", "dev-only-secret-change-in-prod"),
			AdminPassphrase:     getEnv("ADMIN_PASSPHRASE", ""),
			AdminPassphraseHash: getEnv("ADMIN_PASSPHRASE_HASH", ""),
			AdminSessionTTL:     getDuration("ADMIN_SESSION_TTL", 8*time.Hour),
		},
		Store: StoreConfig{
			Timezone:     getEnv("STORE_TIMEZONE", "America/Toronto"),
			HorizonDays:  getInt("BOOKING_HORIZON_DAYS", 30),
			SnapshotPath: getEnv("BOOKINGS_SNAPSHOT_PATH", ""),
		},
		Replication: ReplicationConfig{
			URL:       strings.TrimRight(getEnv("REPLICATION_URL", ""), "/"),
			Timeout:   getDuration("REPLICATION_TIMEOUT", 5*time.Second),
			RetrySpec: getEnv("REPLICATION_RETRY_SPEC", "@every 5m"),
			BatchSize: getInt("REPLICATION_BATCH_SIZE", 50),
		},
		RateLimit: RateLimitConfig{
			BookingsPerMinute: getInt("RATE_LIMIT_BOOKINGS_PER_MINUTE", 10),
			LoginsPerMinute:   getInt("RATE_LIMIT_LOGINS_PER_MINUTE", 5),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Location resolves the store timezone, falling back to UTC.
func (c StoreConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
