package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	DefaultPort                  = "8080"
	DefaultAccessTokenExpiryMin  = 15
	DefaultRefreshTokenExpiryMin = 10080
	DefaultLoginFailureThreshold = 5
	DefaultLockoutMinutes        = 30
	DefaultLoginMaxAttempts      = 10
	DefaultLoginWindowMinutes    = 15
)

type Config struct {
	Env               string
	Port              string
	DBURL             string
	RedisAddr         string
	RedisPassword     string
	AccessTokenSecret string
	AccessExpiryMin   int
	RefreshExpiryMin  int

	// Account lockout.
	LoginFailureThreshold int
	LockoutMinutes        int

	// Rate limiting, applied per IP and per account within the window.
	LoginMaxAttempts   int
	LoginWindowMinutes int
}

// Load reads config/.env.dev or config/.env.prod depending on ENV, with
// environment variables taking precedence over file values. The file is
// optional; DB_URL, REDIS_ADDR and ACCESS_TOKEN_SECRET are not.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", DefaultPort)
	v.SetDefault("ACCESS_TOKEN_EXPIRY", DefaultAccessTokenExpiryMin)
	v.SetDefault("REFRESH_TOKEN_EXPIRY", DefaultRefreshTokenExpiryMin)
	v.SetDefault("LOGIN_FAILURE_THRESHOLD", DefaultLoginFailureThreshold)
	v.SetDefault("LOCKOUT_MINUTES", DefaultLockoutMinutes)
	v.SetDefault("LOGIN_MAX_ATTEMPTS", DefaultLoginMaxAttempts)
	v.SetDefault("LOGIN_WINDOW_MINUTES", DefaultLoginWindowMinutes)

	env := v.GetString("ENV")
	suffix := "dev"
	if env == "production" {
		suffix = "prod"
	}

	v.SetConfigFile(filepath.Join("config", ".env."+suffix))
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		// The file is optional; a malformed one is not.
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Env:                   env,
		Port:                  v.GetString("PORT"),
		DBURL:                 v.GetString("DB_URL"),
		RedisAddr:             v.GetString("REDIS_ADDR"),
		RedisPassword:         v.GetString("REDIS_PASSWORD"),
		AccessTokenSecret:     v.GetString("ACCESS_TOKEN_SECRET"),
		AccessExpiryMin:       v.GetInt("ACCESS_TOKEN_EXPIRY"),
		RefreshExpiryMin:      v.GetInt("REFRESH_TOKEN_EXPIRY"),
		LoginFailureThreshold: v.GetInt("LOGIN_FAILURE_THRESHOLD"),
		LockoutMinutes:        v.GetInt("LOCKOUT_MINUTES"),
		LoginMaxAttempts:      v.GetInt("LOGIN_MAX_ATTEMPTS"),
		LoginWindowMinutes:    v.GetInt("LOGIN_WINDOW_MINUTES"),
	}

	for key, val := range map[string]string{
		"DB_URL":              cfg.DBURL,
		"REDIS_ADDR":          cfg.RedisAddr,
		"ACCESS_TOKEN_SECRET": cfg.AccessTokenSecret,
	} {
		if val == "" {
			return nil, fmt.Errorf("missing required environment variable: %s", key)
		}
	}

	return cfg, nil
}
