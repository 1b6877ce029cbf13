// Package config provides centralized, environment-overridable settings for
// the storefront server.
package config

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		// godotenv never overrides variables already present in the environment
		if err := godotenv.Load(); err == nil {
			log.Println("Loading configuration overrides from .env file...")
		}
	})
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("storefront")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Config file ignored: %v", err)
		}
	} else {
		log.Printf("Loaded config file %s", v.ConfigFileUsed())
	}
	return v
}

var v *viper.Viper

func getInt(key string, defaultValue int) int {
	v.SetDefault(key, defaultValue)
	val := v.GetInt(key)
	if val != defaultValue {
		log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
	}
	return val
}

func getString(key string, defaultValue string) string {
	v.SetDefault(key, defaultValue)
	val := v.GetString(key)
	if val != defaultValue {
		if strings.Contains(key, "SECRET") || strings.Contains(key, "TOKEN") || strings.Contains(key, "DSN") {
			log.Printf("Config override: %s=<redacted>", key)
		} else {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
	}
	return val
}

func getBool(key string, defaultValue bool) bool {
	v.SetDefault(key, defaultValue)
	val := v.GetBool(key)
	if val != defaultValue {
		log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
	}
	return val
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v.SetDefault(key, defaultValue)
	val := v.GetDuration(key)
	if val != defaultValue {
		log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
	}
	return val
}

func getList(key string, defaultValue string) []string {
	raw := getString(key, defaultValue)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string

	// Backend
	BackendBaseURL      string
	BackendAssetBaseURL string
	BackendTimeout      time.Duration
	BackendRetryCount   int
	BackendVendorToken  string

	// Analytics and geolocation
	AnalyticsURL           string
	AnalyticsRatePerSecond int
	AnalyticsQueueSize     int
	GeoLookupURL           string
	GeoLookupTimeout       time.Duration
	TrackingIdleTimeout    time.Duration

	// Browser storage
	StorageDriver    string
	StorageDSN       string
	RedisURL         string
	StorageKeyPrefix string
	SessionSecret    string
	CookieSecure     bool
	VisitorCookieTTL time.Duration

	// Database Pool
	DBMaxOpenConns  int
	DBMaxIdleConns  int
	DBConnLifetime  time.Duration
	DBConnIdleLimit time.Duration

	// Preview
	EditorJWTSecret             string
	PreviewMaxSessions          int
	PreviewRedisRelay           bool
	PreviewMailboxSize          int
	SSEHeartbeatIntervalSeconds int
	WSWriteTimeout              time.Duration

	// Caching
	CatalogCacheTTL time.Duration
	LogoCacheTTL    time.Duration
	CleanupInterval time.Duration
	LogoMaxHeight   int

	// Logging
	LogLevel      string
	LogJSON       bool
	LogToFile     bool
	LogDirectory  string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
)

func init() {
	loadEnvFile()
	v = newViper()

	// Server Configuration
	Port = getString("PORT", "8080")
	ServerReadTimeout = getDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second)
	ServerIdleTimeout = getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)
	ShutdownTimeout = getDuration("SHUTDOWN_TIMEOUT", 30*time.Second)
	CORSAllowedOrigins = getList("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080")

	// Backend
	BackendBaseURL = getString("BACKEND_BASE_URL", "http://localhost:5000/api")
	BackendAssetBaseURL = getString("BACKEND_ASSET_BASE_URL", "http://localhost:5000")
	BackendTimeout = getDuration("BACKEND_TIMEOUT", 10*time.Second)
	BackendRetryCount = getInt("BACKEND_RETRY_COUNT", 1)
	BackendVendorToken = getString("BACKEND_VENDOR_TOKEN", "")

	// Analytics and geolocation
	AnalyticsURL = getString("ANALYTICS_URL", "")
	AnalyticsRatePerSecond = getInt("ANALYTICS_RATE_PER_SECOND", 50)
	AnalyticsQueueSize = getInt("ANALYTICS_QUEUE_SIZE", 1024)
	GeoLookupURL = getString("GEO_LOOKUP_URL", "")
	GeoLookupTimeout = getDuration("GEO_LOOKUP_TIMEOUT", 2*time.Second)
	TrackingIdleTimeout = getDuration("TRACKING_IDLE_TIMEOUT", 30*time.Minute)

	// Browser storage
	StorageDriver = getString("STORAGE_DRIVER", "sqlite3")
	StorageDSN = getString("STORAGE_DSN", "file:storefront.db?_journal_mode=WAL&_busy_timeout=5000")
	RedisURL = getString("REDIS_URL", "")
	StorageKeyPrefix = getString("STORAGE_KEY_PREFIX", "storefront")
	SessionSecret = getString("SESSION_SECRET", "dev-only-session-secret-change-me")
	CookieSecure = getBool("COOKIE_SECURE", false)
	VisitorCookieTTL = getDuration("VISITOR_COOKIE_TTL", 365*24*time.Hour)

	// Database Pool
	DBMaxOpenConns = getInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getInt("DB_MAX_IDLE_CONNS", 3)
	DBConnLifetime = getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	DBConnIdleLimit = getDuration("DB_CONN_MAX_IDLE", 3*time.Minute)

	// Preview
	EditorJWTSecret = getString("EDITOR_JWT_SECRET", "")
	PreviewMaxSessions = getInt("PREVIEW_MAX_SESSIONS", 500)
	PreviewRedisRelay = getBool("PREVIEW_REDIS_RELAY", false)
	PreviewMailboxSize = getInt("PREVIEW_MAILBOX_SIZE", 256)
	SSEHeartbeatIntervalSeconds = getInt("SSE_HEARTBEAT_INTERVAL_SECONDS", 30)
	WSWriteTimeout = getDuration("WS_WRITE_TIMEOUT", 10*time.Second)

	// Caching
	CatalogCacheTTL = getDuration("CATALOG_CACHE_TTL", 2*time.Minute)
	LogoCacheTTL = getDuration("LOGO_CACHE_TTL", time.Hour)
	CleanupInterval = getDuration("CACHE_CLEANUP_INTERVAL", 5*time.Minute)
	LogoMaxHeight = getInt("LOGO_MAX_HEIGHT", 96)

	// Logging
	LogLevel = getString("LOG_LEVEL", "info")
	LogJSON = getBool("LOG_JSON", true)
	LogToFile = getBool("LOG_TO_FILE", false)
	LogDirectory = getString("LOG_DIRECTORY", "logs")
	LogMaxSizeMB = getInt("LOG_MAX_SIZE_MB", 50)
	LogMaxBackups = getInt("LOG_MAX_BACKUPS", 5)
	LogMaxAgeDays = getInt("LOG_MAX_AGE_DAYS", 14)
}

// ChannelLevel returns a per-channel level override such as LOG_LEVEL_PREVIEW.
func ChannelLevel(channel string) (string, bool) {
	key := "LOG_LEVEL_" + strings.ToUpper(strings.ReplaceAll(channel, "-", "_"))
	if !v.IsSet(key) {
		return "", false
	}
	return v.GetString(key), true
}
