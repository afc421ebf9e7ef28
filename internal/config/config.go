package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment names accepted in ENVIRONMENT.
const (
	Development = "development"
	Production  = "production"
)

// Config holds all configuration for the gateway and the admin console.
type Config struct {
	Environment string         `yaml:"environment"`
	Server      ServerConfig   `yaml:"server"`
	Backend     BackendConfig  `yaml:"backend"`
	Auth        AuthConfig     `yaml:"auth"`
	Redis       RedisConfig    `yaml:"redis"`
	Planner     PlannerConfig  `yaml:"planner"`
	NewRelic    NewRelicConfig `yaml:"newrelic"`
	Log         LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// StaticDir is the built frontend bundle. Empty disables page serving.
	StaticDir string `yaml:"static_dir"`
	// AllowedOrigins may call the API cross-origin with credentials.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// BackendConfig points at the SangiheTrip REST API.
type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// AuthConfig holds session cookie and route guard configuration.
type AuthConfig struct {
	AccessCookie        string        `yaml:"access_cookie"`
	RefreshCookie       string        `yaml:"refresh_cookie"`
	CookieDomain        string        `yaml:"cookie_domain"`
	SecureCookies       bool          `yaml:"secure_cookies"`
	RefreshTTL          time.Duration `yaml:"refresh_ttl"`
	LoginPath           string        `yaml:"login_path"`
	HomePath            string        `yaml:"home_path"`
	AdminPrefixes       []string      `yaml:"admin_prefixes"`
	ProtectedPrefixes   []string      `yaml:"protected_prefixes"`
	GuestOnlyPaths      []string      `yaml:"guest_only_paths"`
	ExpiryCheckInterval time.Duration `yaml:"expiry_check_interval"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PlannerConfig holds trip-builder draft settings.
type PlannerConfig struct {
	DraftTTL       time.Duration `yaml:"draft_ttl"`
	DraftLockTTL   time.Duration `yaml:"draft_lock_ttl"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string `yaml:"app_name"`
	LicenseKey string `yaml:"license_key"`
	Enabled    bool   `yaml:"enabled"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Environment: Development,
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Backend: BackendConfig{
			BaseURL: "http://localhost:3000/api",
			Timeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			AccessCookie:  "access_token",
			RefreshCookie: "refresh_token",
			RefreshTTL:    7 * 24 * time.Hour,
			LoginPath:     "/login",
			HomePath:      "/",
			AdminPrefixes: []string{"/admin", "/api/v1/admin"},
			ProtectedPrefixes: []string{
				"/profile", "/my-trips", "/planner", "/reviews/new",
				"/api/v1/planner", "/api/v1/reviews", "/api/v1/me",
			},
			GuestOnlyPaths:      []string{"/login", "/register"},
			ExpiryCheckInterval: 30 * time.Second,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Planner: PlannerConfig{
			DraftTTL:       2 * time.Hour,
			DraftLockTTL:   30 * time.Second,
			IdempotencyTTL: 24 * time.Hour,
		},
		NewRelic: NewRelicConfig{
			AppName: "sangihetrip-gateway",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// CONFIG_FILE, and finally environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Environment = getEnv("ENVIRONMENT", c.Environment)

	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.ReadTimeout = getDurationEnv("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getDurationEnv("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.ShutdownTimeout = getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.StaticDir = getEnv("SERVER_STATIC_DIR", c.Server.StaticDir)
	c.Server.AllowedOrigins = getListEnv("SERVER_ALLOWED_ORIGINS", c.Server.AllowedOrigins)

	c.Backend.BaseURL = strings.TrimRight(getEnv("BACKEND_BASE_URL", c.Backend.BaseURL), "/")
	c.Backend.Timeout = getDurationEnv("BACKEND_TIMEOUT", c.Backend.Timeout)

	c.Auth.AccessCookie = getEnv("AUTH_ACCESS_COOKIE", c.Auth.AccessCookie)
	c.Auth.RefreshCookie = getEnv("AUTH_REFRESH_COOKIE", c.Auth.RefreshCookie)
	c.Auth.CookieDomain = getEnv("AUTH_COOKIE_DOMAIN", c.Auth.CookieDomain)
	c.Auth.SecureCookies = getBoolEnv("AUTH_SECURE_COOKIES", c.Auth.SecureCookies)
	c.Auth.RefreshTTL = getDurationEnv("AUTH_REFRESH_TTL", c.Auth.RefreshTTL)
	c.Auth.LoginPath = getEnv("AUTH_LOGIN_PATH", c.Auth.LoginPath)
	c.Auth.HomePath = getEnv("AUTH_HOME_PATH", c.Auth.HomePath)
	c.Auth.AdminPrefixes = getListEnv("AUTH_ADMIN_PREFIXES", c.Auth.AdminPrefixes)
	c.Auth.ProtectedPrefixes = getListEnv("AUTH_PROTECTED_PREFIXES", c.Auth.ProtectedPrefixes)
	c.Auth.GuestOnlyPaths = getListEnv("AUTH_GUEST_ONLY_PATHS", c.Auth.GuestOnlyPaths)
	c.Auth.ExpiryCheckInterval = getDurationEnv("AUTH_EXPIRY_CHECK_INTERVAL", c.Auth.ExpiryCheckInterval)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getIntEnv("REDIS_DB", c.Redis.DB)

	c.Planner.DraftTTL = getDurationEnv("PLANNER_DRAFT_TTL", c.Planner.DraftTTL)
	c.Planner.DraftLockTTL = getDurationEnv("PLANNER_DRAFT_LOCK_TTL", c.Planner.DraftLockTTL)
	c.Planner.IdempotencyTTL = getDurationEnv("PLANNER_IDEMPOTENCY_TTL", c.Planner.IdempotencyTTL)

	c.NewRelic.AppName = getEnv("NEW_RELIC_APP_NAME", c.NewRelic.AppName)
	c.NewRelic.LicenseKey = getEnv("NEW_RELIC_LICENSE_KEY", c.NewRelic.LicenseKey)
	c.NewRelic.Enabled = getBoolEnv("NEW_RELIC_ENABLED", c.NewRelic.Enabled)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
}

// IsProduction reports whether the production environment is selected.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, Production)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getListEnv reads a comma-separated list.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
