package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	ListenAddr      string        // ex: "127.0.0.1:8787"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	CatalogFile    string        // path to the catalog.yaml file
	ReloadInterval time.Duration // interval to reload catalog.yaml (default: 15m)
	ReaperInterval time.Duration // interval to reap idle sessions (default: 10m)
	IdleThreshold  time.Duration // close sessions idle longer than this (default: 2h)

	DataDir         string // directory for tokens and the sqlite database
	VaultPassphrase string // optional, enables encrypted token storage when set

	StoreBackend string // "sqlite" | "redis" | "memory"
	SQLitePath   string // path to the sqlite database file

	// Redis (only used when StoreBackend == "redis")
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)

	CMSBaseURL  string        // remote CMS API base URL
	QuietWindow time.Duration // bookmark sync debounce window (default: 5s)

	BackupSink string // "cms" | "s3" | "none"
	S3Bucket   string // bucket for backup snapshots (required when BackupSink == "s3")
	S3Region   string
	S3Endpoint string // optional, for S3-compatible servers (MinIO, Garage)
}

func Load() *Config {
	dataDir := getenv("READMARK_DATA_DIR", "data")

	cfg := &Config{
		// Server settings
		ListenAddr:      getenv("READMARK_LISTEN_ADDR", "127.0.0.1:8787"),
		ShutdownTimeout: mustDuration("READMARK_SHUTDOWN_TIMEOUT", 10*time.Second),

		// Logging
		LogLevel:  getenv("READMARK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("READMARK_PRETTY_LOG", true),

		// Catalog and background jobs
		CatalogFile:    getenv("READMARK_CATALOG_FILE", "catalog.yaml"),
		ReloadInterval: mustDuration("READMARK_RELOAD_INTERVAL", 15*time.Minute),
		ReaperInterval: mustDuration("READMARK_REAPER_INTERVAL", 10*time.Minute),
		IdleThreshold:  mustDuration("READMARK_IDLE_THRESHOLD", 2*time.Hour),

		// Local state
		DataDir:         dataDir,
		VaultPassphrase: getenv("READMARK_VAULT_PASSPHRASE", ""),
		StoreBackend:    getenv("READMARK_STORE_BACKEND", "sqlite"),
		SQLitePath:      getenv("READMARK_SQLITE_PATH", filepath.Join(dataDir, "readmark.db")),

		// Redis settings
		RedisAddr:           getenv("READMARK_REDIS_ADDR", "localhost:6379"),
		RedisUser:           getenv("READMARK_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("READMARK_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("READMARK_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),

		// Remote CMS
		CMSBaseURL:  requireEnv("READMARK_CMS_URL"),
		QuietWindow: mustDuration("READMARK_QUIET_WINDOW", 5*time.Second),

		// Backups
		BackupSink: getenv("READMARK_BACKUP_SINK", "cms"),
		S3Bucket:   getenv("READMARK_S3_BUCKET", ""),
		S3Region:   getenv("READMARK_S3_REGION", "us-east-1"),
		S3Endpoint: getenv("READMARK_S3_ENDPOINT", ""),
	}

	switch cfg.StoreBackend {
	case "sqlite", "redis", "memory":
	default:
		panic(fmt.Sprintf("❌ FATAL: Invalid READMARK_STORE_BACKEND %q (want sqlite, redis or memory)", cfg.StoreBackend))
	}

	switch cfg.BackupSink {
	case "cms", "none":
	case "s3":
		if cfg.S3Bucket == "" {
			panic("❌ FATAL: READMARK_S3_BUCKET is required when READMARK_BACKUP_SINK=s3")
		}
	default:
		panic(fmt.Sprintf("❌ FATAL: Invalid READMARK_BACKUP_SINK %q (want cms, s3 or none)", cfg.BackupSink))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfgCopy.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		if cfgCopy.VaultPassphrase != "" {
			cfgCopy.VaultPassphrase = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
