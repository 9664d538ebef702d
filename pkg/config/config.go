package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string

	// Supabase/hosted Postgres convenience:
	// - DATABASE_URL: runtime connection (often PgBouncer/pooler)
	// - DIRECT_URL: direct connection for migrations
	DatabaseURL string
	DirectURL   string

	DB DBConfig

	Session SessionConfig

	Log LogConfig

	RateLimit RateLimitConfig

	// DashboardAllowedOrigins is the CORS allowlist for the dashboard frontend.
	DashboardAllowedOrigins []string

	// DesignDownPayment overrides the fixed DP tranche on design contracts (whole currency units).
	DesignDownPayment int64
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type SessionConfig struct {
	// Secret is the HS256 key shared with the identity provider that issues dashboard tokens.
	Secret string
	Issuer string
}

type LogConfig struct {
	Level  string
	Format string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

func (c Config) Prod() bool {
	return c.AppEnv == "prod"
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	// Cloud Run sets PORT. Prefer it when HTTP_ADDR isn't explicitly set.
	httpAddr := v.GetString("HTTP_ADDR")
	if httpAddr == "" {
		if port := v.GetString("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	return Config{
		AppEnv:         v.GetString("APP_ENV"),
		HTTPAddr:       httpAddr,
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		DirectURL:      v.GetString("DIRECT_URL"),
		DB: DBConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Session: SessionConfig{
			Secret: v.GetString("SESSION_SECRET"),
			Issuer: v.GetString("SESSION_ISSUER"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             v.GetInt("RATE_LIMIT_BURST"),
		},
		DashboardAllowedOrigins: splitList(v.GetString("DASHBOARD_ALLOWED_ORIGINS")),
		DesignDownPayment:       v.GetInt64("TERMIN_DESIGN_DP"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "studiodesk")
	v.SetDefault("DB_USER", "studiodesk")
	v.SetDefault("DB_PASSWORD", "studiodesk")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("DASHBOARD_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:4173")
	v.SetDefault("TERMIN_DESIGN_DP", 2500000)
}

func splitList(csv string) []string {
	var out []string
	for _, s := range strings.Split(csv, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
