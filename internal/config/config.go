package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	DatabaseMaxOpenConns   int
	DatabaseMaxIdleConns   int
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	JWTRefreshSecret       string
	AccessTokenTTL         time.Duration
	RefreshTokenTTL        time.Duration
	VerificationTTL        time.Duration
	CatalogCacheTTL        time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UploadMaxSizeMB        int
	DockerHost             string
	ExecutionTimeout       time.Duration
	CodeRunMemoryMB        int
	CodeRunCPUShares       int
	OpenAIAPIKey           string
	OpenAIBaseURL          string
	OpenAIModel            string
	AuthRateLimit          int
	CORSAllowOrigins       string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsDevelopment reports whether error details may be exposed to clients.
func (c Config) IsDevelopment() bool {
	env := strings.ToLower(strings.TrimSpace(c.AppEnv))
	return env == "" || env == "development" || env == "dev" || env == "local"
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LOOPWAR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "LoopWar API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cloudinary.folder", "loopwar/avatars")
	v.SetDefault("upload.max_size_mb", 2)
	v.SetDefault("catalog.cache_ttl", "5m")
	v.SetDefault("jwt.access_ttl", "1h")
	v.SetDefault("jwt.refresh_ttl", "168h")
	v.SetDefault("verification.ttl", "24h")
	v.SetDefault("execution_timeout_ms", 5000)
	v.SetDefault("code_run_memory_mb", 256)
	v.SetDefault("code_run_cpu_shares", 512)
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("auth.rate_limit", 10)
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)

	durations := map[string]time.Duration{}
	for key, fallback := range map[string]time.Duration{
		"catalog.cache_ttl": 5 * time.Minute,
		"jwt.access_ttl":    time.Hour,
		"jwt.refresh_ttl":   7 * 24 * time.Hour,
		"verification.ttl":  24 * time.Hour,
	} {
		d, err := parseDuration(v.GetString(key), fallback)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		durations[key] = d
	}

	timeoutMs := v.GetInt("execution_timeout_ms")
	if timeoutMs <= 0 {
		timeoutMs = 5000
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		DatabaseMaxOpenConns:   v.GetInt("database.max_open_conns"),
		DatabaseMaxIdleConns:   v.GetInt("database.max_idle_conns"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTRefreshSecret:       v.GetString("jwt.refresh_secret"),
		AccessTokenTTL:         durations["jwt.access_ttl"],
		RefreshTokenTTL:        durations["jwt.refresh_ttl"],
		VerificationTTL:        durations["verification.ttl"],
		CatalogCacheTTL:        durations["catalog.cache_ttl"],
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UploadMaxSizeMB:        v.GetInt("upload.max_size_mb"),
		DockerHost:             v.GetString("docker_host"),
		ExecutionTimeout:       time.Duration(timeoutMs) * time.Millisecond,
		CodeRunMemoryMB:        v.GetInt("code_run_memory_mb"),
		CodeRunCPUShares:       v.GetInt("code_run_cpu_shares"),
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		OpenAIBaseURL:          v.GetString("openai_base_url"),
		OpenAIModel:            v.GetString("openai_model"),
		AuthRateLimit:          v.GetInt("auth.rate_limit"),
		CORSAllowOrigins:       strings.TrimSpace(v.GetString("cors.allow_origins")),
	}

	if cfg.JWTSecret == "" || cfg.JWTRefreshSecret == "" {
		return Config{}, fmt.Errorf("jwt secrets must be provided")
	}

	if cfg.CodeRunMemoryMB <= 0 {
		cfg.CodeRunMemoryMB = 256
	}

	if cfg.CodeRunCPUShares <= 0 {
		cfg.CodeRunCPUShares = 512
	}

	if cfg.UploadMaxSizeMB <= 0 {
		cfg.UploadMaxSizeMB = 2
	}

	if cfg.AuthRateLimit <= 0 {
		cfg.AuthRateLimit = 10
	}

	if cfg.CORSAllowOrigins == "" {
		cfg.CORSAllowOrigins = "*"
	}

	if cfg.DatabaseMaxOpenConns <= 0 {
		cfg.DatabaseMaxOpenConns = 25
	}

	if cfg.DatabaseMaxIdleConns <= 0 || cfg.DatabaseMaxIdleConns > cfg.DatabaseMaxOpenConns {
		cfg.DatabaseMaxIdleConns = cfg.DatabaseMaxOpenConns
	}

	return cfg, nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return fallback, nil
	}
	return d, nil
}
