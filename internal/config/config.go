package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the admin API service.
type Config struct {
	AppName              string
	AppEnv               string
	AppPort              string
	BackendURL           string
	AssignmentBackendURL string
	BackendTimeout       time.Duration
	DatabaseURL          string
	RedisURL             string
	NATSURL              string
	EventSubject         string
	EventChannel         string
	JWTSecret            string
	SuperAdminSessionTTL time.Duration
	GradingDraftTTL      time.Duration
	JobCacheTTL          time.Duration
	ActivityFeedTTL      time.Duration
	RateLimitMax         int
	RateLimitWindow      time.Duration
	LogLevel             string
	AllowOrigins         string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ORBIT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Orbit Admin API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("backend.timeout", "15s")
	v.SetDefault("events.subject", "orbit.admin.events")
	v.SetDefault("events.channel", "orbit:admin:events")
	v.SetDefault("grading.draft_ttl", "2h")
	v.SetDefault("jobs.cache_ttl", "1m")
	v.SetDefault("activity.feed_ttl", "45s")
	v.SetDefault("auth.superadmin_session_ttl", "8h")
	v.SetDefault("rate_limit.max", 30)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("log.level", "info")
	v.SetDefault("cors.allow_origins", "*")

	durations := map[string]time.Duration{}
	for _, key := range []string{"backend.timeout", "grading.draft_ttl", "jobs.cache_ttl", "activity.feed_ttl", "auth.superadmin_session_ttl", "rate_limit.window"} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		if parsed <= 0 {
			return Config{}, fmt.Errorf("invalid %s: must be positive", key)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:              v.GetString("app.name"),
		AppEnv:               v.GetString("app.env"),
		AppPort:              v.GetString("app.port"),
		BackendURL:           strings.TrimRight(strings.TrimSpace(v.GetString("backend.url")), "/"),
		AssignmentBackendURL: strings.TrimRight(strings.TrimSpace(v.GetString("backend.assignment_url")), "/"),
		BackendTimeout:       durations["backend.timeout"],
		DatabaseURL:          v.GetString("database.url"),
		RedisURL:             v.GetString("redis.url"),
		NATSURL:              v.GetString("nats.url"),
		EventSubject:         v.GetString("events.subject"),
		EventChannel:         v.GetString("events.channel"),
		JWTSecret:            v.GetString("jwt.secret"),
		SuperAdminSessionTTL: durations["auth.superadmin_session_ttl"],
		GradingDraftTTL:      durations["grading.draft_ttl"],
		JobCacheTTL:          durations["jobs.cache_ttl"],
		ActivityFeedTTL:      durations["activity.feed_ttl"],
		RateLimitMax:         v.GetInt("rate_limit.max"),
		RateLimitWindow:      durations["rate_limit.window"],
		LogLevel:             strings.ToLower(v.GetString("log.level")),
		AllowOrigins:         v.GetString("cors.allow_origins"),
	}

	if cfg.BackendURL == "" {
		return Config{}, fmt.Errorf("backend url must be provided")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("redis url must be provided")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 30
	}

	return cfg, nil
}
