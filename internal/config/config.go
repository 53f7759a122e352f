// internal/config/config.go
//
// Runtime configuration for the cubes tools.
// Values come from the process environment; main loads an optional .env
// file (godotenv) before calling Load, so both sources are honored.
//
// Environment variables:
//   PORT              HTTP listen port              (default 5175)
//   LOG_LEVEL         zerolog level name            (default info)
//   DB_PATH           SQLite file for run history   (default ./data/cubes.db)
//   JWT_SECRET        HS256 secret for API tokens   (default dev_secret_change_me)
//   JWT_EXPIRES_DAYS  token lifetime in days        (default 14)
//   CLIENT_ORIGIN     allowed CORS origin           (default http://localhost:5173)
//   CUBES_MAX_RED     bag size checked against      (default 12)
//   CUBES_MAX_GREEN                                 (default 13)
//   CUBES_MAX_BLUE                                  (default 14)

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/robalobadob/cubes/internal/game"
)

const defaultJWTSecret = "dev_secret_change_me"

// Config is the resolved configuration.
type Config struct {
	Port         string
	LogLevel     zerolog.Level
	DBPath       string
	JWTSecret    string
	TokenTTL     time.Duration
	ClientOrigin string
	Limits       game.Limits
}

// LoadDotEnv reads .env files into the environment. Missing files are ignored.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// Load resolves the configuration from the environment.
// Malformed numeric values are an error rather than a silent default.
func Load() (Config, error) {
	cfg := Config{
		Port:         getEnv("PORT", "5175"),
		DBPath:       getEnv("DB_PATH", "./data/cubes.db"),
		JWTSecret:    getEnv("JWT_SECRET", defaultJWTSecret),
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
	}

	lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = lvl

	days, err := envInt("JWT_EXPIRES_DAYS", 14)
	if err != nil {
		return Config{}, err
	}
	if days <= 0 {
		return Config{}, fmt.Errorf("JWT_EXPIRES_DAYS must be positive, got %d", days)
	}
	cfg.TokenTTL = time.Duration(days) * 24 * time.Hour

	def := game.DefaultLimits()
	if cfg.Limits.Red, err = envUint32("CUBES_MAX_RED", def.Red); err != nil {
		return Config{}, err
	}
	if cfg.Limits.Green, err = envUint32("CUBES_MAX_GREEN", def.Green); err != nil {
		return Config{}, err
	}
	if cfg.Limits.Blue, err = envUint32("CUBES_MAX_BLUE", def.Blue); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// InsecureSecret reports whether the built-in development secret is in use.
func (c Config) InsecureSecret() bool { return c.JWTSecret == defaultJWTSecret }

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func envUint32(k string, def uint32) (uint32, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return uint32(n), nil
}
