package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Auth      AuthConfig
	Storage   StorageConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	LogLevel  slog.Level
}

type ServerConfig struct {
	Host string
	Port string
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

type AuthConfig struct {
	JWTSecret     string
	JWTExpiry     time.Duration
	StaffEmail    string
	StaffPassword string
}

type StorageConfig struct {
	// ExportPath holds workbooks produced by the export endpoint.
	ExportPath string
}

type CORSConfig struct {
	AllowedOrigins string
}

type RateLimitConfig struct {
	ClientRate  float64
	ClientBurst int
	StaffRate   float64
	StaffBurst  int
}

// Load reads the back office configuration. A .env file in the working
// directory is applied first; real environment variables win over it.
func Load() (*Config, error) {
	loadDotEnv()

	jwtExpiry, err := durationEnv("REPAIRDESK_JWT_EXPIRY", "24h")
	if err != nil {
		return nil, err
	}
	clientRate, err := floatEnv("REPAIRDESK_CLIENT_RATE", "10")
	if err != nil {
		return nil, err
	}
	clientBurst, err := intEnv("REPAIRDESK_CLIENT_BURST", "20")
	if err != nil {
		return nil, err
	}
	staffRate, err := floatEnv("REPAIRDESK_STAFF_RATE", "30")
	if err != nil {
		return nil, err
	}
	staffBurst, err := intEnv("REPAIRDESK_STAFF_BURST", "60")
	if err != nil {
		return nil, err
	}
	level, err := levelEnv("REPAIRDESK_LOG_LEVEL", "info")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: envOrDefault("REPAIRDESK_HOST", "0.0.0.0"),
			Port: envOrDefault("REPAIRDESK_PORT", "8080"),
		},
		DB: DBConfig{
			Host:     envOrDefault("REPAIRDESK_DB_HOST", "localhost"),
			Port:     envOrDefault("REPAIRDESK_DB_PORT", "5432"),
			Name:     envOrDefault("REPAIRDESK_DB_NAME", "repairdesk"),
			User:     envOrDefault("REPAIRDESK_DB_USER", "repairdesk"),
			Password: envOrDefault("REPAIRDESK_DB_PASSWORD", "repairdesk"),
			SSLMode:  envOrDefault("REPAIRDESK_DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret:     envOrDefault("REPAIRDESK_JWT_SECRET", "change-me-in-production"),
			JWTExpiry:     jwtExpiry,
			StaffEmail:    envOrDefault("REPAIRDESK_STAFF_EMAIL", "admin@repairdesk.local"),
			StaffPassword: envOrDefault("REPAIRDESK_STAFF_PASSWORD", "admin"),
		},
		Storage: StorageConfig{
			ExportPath: envOrDefault("REPAIRDESK_EXPORT_PATH", "/data/exports"),
		},
		CORS: CORSConfig{
			AllowedOrigins: envOrDefault("REPAIRDESK_CORS_ORIGINS", "http://localhost:3000"),
		},
		RateLimit: RateLimitConfig{
			ClientRate:  clientRate,
			ClientBurst: clientBurst,
			StaffRate:   staffRate,
			StaffBurst:  staffBurst,
		},
		LogLevel: level,
	}

	return cfg, nil
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

type CacheBackend string

const (
	CacheFile   CacheBackend = "file"
	CacheRedis  CacheBackend = "redis"
	CacheMemory CacheBackend = "memory"
)

// DashboardConfig configures the client dashboard binary.
type DashboardConfig struct {
	APIURL      string
	APITimeout  time.Duration
	SessionFile string

	Cache         CacheBackend
	CacheDir      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	ExportDir string

	RefreshInterval      time.Duration
	ConnectivityInterval time.Duration
	TabRestoreDelay      time.Duration
	SearchDebounce       time.Duration
	ToastDuration        time.Duration
	MaxVisibleToasts     int
	FadeOut              time.Duration
	ParallelFetch        bool

	LogLevel slog.Level
}

func LoadDashboard() (*DashboardConfig, error) {
	loadDotEnv()

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := envOrDefault("REPAIRDESK_DASHBOARD_DIR", home+"/.repairdesk")

	cfg := &DashboardConfig{
		APIURL:        strings.TrimRight(envOrDefault("REPAIRDESK_API_URL", "http://localhost:8080"), "/"),
		SessionFile:   envOrDefault("REPAIRDESK_SESSION_FILE", base+"/session"),
		Cache:         CacheBackend(envOrDefault("REPAIRDESK_CACHE", string(CacheFile))),
		CacheDir:      envOrDefault("REPAIRDESK_CACHE_DIR", base+"/cache"),
		RedisAddr:     envOrDefault("REPAIRDESK_REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REPAIRDESK_REDIS_PASSWORD"),
		ExportDir:     envOrDefault("REPAIRDESK_EXPORT_DIR", base+"/exports"),
	}

	switch cfg.Cache {
	case CacheFile, CacheRedis, CacheMemory:
	default:
		return nil, fmt.Errorf("invalid REPAIRDESK_CACHE %q: want file, redis or memory", cfg.Cache)
	}

	durations := []struct {
		key, fallback string
		dst           *time.Duration
	}{
		{"REPAIRDESK_API_TIMEOUT", "10s", &cfg.APITimeout},
		{"REPAIRDESK_CACHE_TTL", "0s", &cfg.CacheTTL},
		{"REPAIRDESK_REFRESH_INTERVAL", "5m", &cfg.RefreshInterval},
		{"REPAIRDESK_CONNECTIVITY_INTERVAL", "30s", &cfg.ConnectivityInterval},
		{"REPAIRDESK_TAB_RESTORE_DELAY", "100ms", &cfg.TabRestoreDelay},
		{"REPAIRDESK_SEARCH_DEBOUNCE", "300ms", &cfg.SearchDebounce},
		{"REPAIRDESK_TOAST_DURATION", "5s", &cfg.ToastDuration},
		{"REPAIRDESK_TOAST_FADE_OUT", "300ms", &cfg.FadeOut},
	}
	for _, d := range durations {
		if *d.dst, err = durationEnv(d.key, d.fallback); err != nil {
			return nil, err
		}
	}

	if cfg.RedisDB, err = intEnv("REPAIRDESK_REDIS_DB", "0"); err != nil {
		return nil, err
	}
	if cfg.MaxVisibleToasts, err = intEnv("REPAIRDESK_TOASTS_MAX_VISIBLE", "3"); err != nil {
		return nil, err
	}
	if cfg.ParallelFetch, err = boolEnv("REPAIRDESK_PARALLEL_FETCH", "false"); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = levelEnv("REPAIRDESK_LOG_LEVEL", "info"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadDotEnv() {
	// A missing .env is the normal case outside development.
	_ = godotenv.Load()
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key, fallback string) (int, error) {
	n, err := strconv.Atoi(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func floatEnv(key, fallback string) (float64, error) {
	f, err := strconv.ParseFloat(envOrDefault(key, fallback), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func boolEnv(key, fallback string) (bool, error) {
	b, err := strconv.ParseBool(envOrDefault(key, fallback))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func levelEnv(key, fallback string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(envOrDefault(key, fallback))); err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return level, nil
}
