package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	PostgresURL string
	MongoURI    string
	MongoDB     string
	RedisAddr   string
	SecretKey   string
	LogLevel    string

	// OtpBackend selects the one-time code store: "memory" or "redis".
	OtpBackend    string
	OtpSweepEvery time.Duration
	SearchDelay   time.Duration
	Seed          bool
}

var keys = []string{
	"ADDR", "POSTGRES_URL", "MONGODB_URI", "MONGODB_DB", "REDIS_ADDR", "SECRET_KEY",
	"LOG_LEVEL", "OTP_BACKEND", "OTP_SWEEP_EVERY", "SEARCH_DELAY", "SEED",
}

// Load reads path (a missing file is fine) and lets process environment
// variables override the file values.
func Load(path string) (*Config, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: failed reading %s: %w", path, err)
		}
		env = map[string]string{}
	}
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			env[k] = v
		}
	}
	return FromMap(env)
}

func FromMap(env map[string]string) (*Config, error) {
	cfg := &Config{
		Addr:        get(env, "ADDR", ":8080"),
		PostgresURL: env["POSTGRES_URL"],
		MongoURI:    get(env, "MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:     get(env, "MONGODB_DB", "forum"),
		RedisAddr:   get(env, "REDIS_ADDR", "redis://localhost:6379"),
		SecretKey:   env["SECRET_KEY"],
		LogLevel:    get(env, "LOG_LEVEL", "info"),
		OtpBackend:  get(env, "OTP_BACKEND", "memory"),
	}

	var err error
	if cfg.OtpSweepEvery, err = duration(env, "OTP_SWEEP_EVERY", time.Minute); err != nil {
		return nil, err
	}
	if cfg.SearchDelay, err = duration(env, "SEARCH_DELAY", 400*time.Millisecond); err != nil {
		return nil, err
	}
	if s, ok := env["SEED"]; ok && s != "" {
		if cfg.Seed, err = strconv.ParseBool(s); err != nil {
			return nil, fmt.Errorf("config: SEED must be a boolean: %w", err)
		}
	}

	if cfg.PostgresURL == "" {
		return nil, errors.New("config: POSTGRES_URL is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("config: SECRET_KEY is required")
	}
	if cfg.OtpBackend != "memory" && cfg.OtpBackend != "redis" {
		return nil, fmt.Errorf("config: OTP_BACKEND must be memory or redis, got %q", cfg.OtpBackend)
	}
	return cfg, nil
}

func get(env map[string]string, key, def string) string {
	if v := env[key]; v != "" {
		return v
	}
	return def
}

func duration(env map[string]string, key string, def time.Duration) (time.Duration, error) {
	v := env[key]
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s is not a duration: %w", key, err)
	}
	return d, nil
}
