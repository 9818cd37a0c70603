package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port    string `yaml:"port"`
	GinMode string `yaml:"gin_mode"`

	DBDriver   string `yaml:"db_driver"` // postgres | sqlite
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBSSLMode  string `yaml:"db_sslmode"`
	DBPath     string `yaml:"db_path"` // sqlite file

	JWTSecret             string `yaml:"jwt_secret"`
	RefreshJWTSecret      string `yaml:"refresh_jwt_secret"`
	AccessTokenTTLMinutes int    `yaml:"access_token_ttl_minutes"`
	RefreshTokenTTLDays   int    `yaml:"refresh_token_ttl_days"`

	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
	AdminFullName string `yaml:"admin_full_name"`

	UploadDir   string   `yaml:"upload_dir"`
	UploadMaxMB int      `yaml:"upload_max_mb"`
	CORSOrigins []string `yaml:"cors_origins"`

	LogLevel  string `yaml:"log_level"`
	LogPretty bool   `yaml:"log_pretty"`
}

func defaults() *Config {
	return &Config{
		Port:                  "8080",
		GinMode:               "release",
		DBDriver:              "postgres",
		DBHost:                "localhost",
		DBPort:                "5432",
		DBUser:                "postgres",
		DBPassword:            "postgres",
		DBName:                "institute_db",
		DBSSLMode:             "disable",
		DBPath:                "institute.db",
		JWTSecret:             "supersecret_change_me",
		AccessTokenTTLMinutes: 15,
		RefreshTokenTTLDays:   30,
		AdminEmail:            "admin@example.com",
		AdminPassword:         "admin123",
		AdminFullName:         "Administrator",
		UploadDir:             "uploads",
		UploadMaxMB:           5,
		CORSOrigins:           []string{"http://localhost:3000"},
		LogLevel:              "info",
		LogPretty:             true,
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// CONFIG_FILE, and then environment variables, in that order of precedence.
func Load() (*Config, error) {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Port = getenv("PORT", cfg.Port)
	cfg.GinMode = getenv("GIN_MODE", cfg.GinMode)
	cfg.DBDriver = strings.ToLower(getenv("DB_DRIVER", cfg.DBDriver))
	cfg.DBHost = getenv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getenv("DB_PORT", cfg.DBPort)
	cfg.DBUser = getenv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getenv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getenv("DB_NAME", cfg.DBName)
	cfg.DBSSLMode = getenv("DB_SSLMODE", cfg.DBSSLMode)
	cfg.DBPath = getenv("DB_PATH", cfg.DBPath)
	cfg.JWTSecret = getenv("JWT_SECRET", cfg.JWTSecret)
	cfg.RefreshJWTSecret = getenv("REFRESH_JWT_SECRET", cfg.RefreshJWTSecret)
	cfg.AdminEmail = getenv("ADMIN_EMAIL", cfg.AdminEmail)
	cfg.AdminPassword = getenv("ADMIN_PASSWORD", cfg.AdminPassword)
	cfg.AdminFullName = getenv("ADMIN_FULL_NAME", cfg.AdminFullName)
	cfg.UploadDir = getenv("UPLOAD_DIR", cfg.UploadDir)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	var err error
	if cfg.AccessTokenTTLMinutes, err = getenvInt("ACCESS_TOKEN_TTL_MINUTES", cfg.AccessTokenTTLMinutes); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenTTLDays, err = getenvInt("REFRESH_TOKEN_TTL_DAYS", cfg.RefreshTokenTTLDays); err != nil {
		return nil, err
	}
	if cfg.UploadMaxMB, err = getenvInt("UPLOAD_MAX_MB", cfg.UploadMaxMB); err != nil {
		return nil, err
	}
	if cfg.LogPretty, err = getenvBool("LOG_PRETTY", cfg.LogPretty); err != nil {
		return nil, err
	}

	if cfg.RefreshJWTSecret == "" {
		cfg.RefreshJWTSecret = cfg.JWTSecret
	}
	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return cfg, nil
}

func (c *Config) AccessTTL() time.Duration {
	if c.AccessTokenTTLMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

func (c *Config) RefreshTTL() time.Duration {
	if c.RefreshTokenTTLDays <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(c.RefreshTokenTTLDays) * 24 * time.Hour
}

func (c *Config) UploadMaxBytes() int64 {
	if c.UploadMaxMB <= 0 {
		return 5 << 20
	}
	return int64(c.UploadMaxMB) << 20
}

func getenv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getenvBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
