package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"daily-quiz-service/internal/app"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		Start              string  `yaml:"start"`
		Stop               string  `yaml:"stop"`
		Timezone           string  `yaml:"timezone"`
		AvgWordsPerMinute  float64 `yaml:"avg_words_per_minute"`
		DefaultAllowedTime float64 `yaml:"default_allowed_time"`
		CatalogTTL         string  `yaml:"catalog_ttl"`
		PresentationTTL    string  `yaml:"presentation_ttl"`
		LeaderboardLimit   int     `yaml:"leaderboard_limit"`
	} `yaml:"quiz"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the settings used for anything the file and environment leave unset.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Quiz.Start = "00:00"
	cfg.Quiz.Stop = "23:59"
	cfg.Quiz.Timezone = "Local"
	cfg.Quiz.AvgWordsPerMinute = 200
	cfg.Quiz.DefaultAllowedTime = 10
	cfg.Quiz.PresentationTTL = "24h"
	cfg.Quiz.LeaderboardLimit = 10
	cfg.Log.Level = "info"
	return cfg
}

// Load reads .env (if present), then the YAML config at path (if present), then applies
// QUIZ_* environment overrides.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"QUIZ_SERVER_PORT":      &cfg.Server.Port,
		"QUIZ_REDIS_ADDR":       &cfg.Redis.Addr,
		"QUIZ_REDIS_PASSWORD":   &cfg.Redis.Password,
		"QUIZ_REDIS_TTL":        &cfg.Redis.TTL,
		"QUIZ_POSTGRES_URL":     &cfg.Postgres.URL,
		"QUIZ_START":            &cfg.Quiz.Start,
		"QUIZ_STOP":             &cfg.Quiz.Stop,
		"QUIZ_TIMEZONE":         &cfg.Quiz.Timezone,
		"QUIZ_CATALOG_TTL":      &cfg.Quiz.CatalogTTL,
		"QUIZ_PRESENTATION_TTL": &cfg.Quiz.PresentationTTL,
		"QUIZ_LOG_LEVEL":        &cfg.Log.Level,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"QUIZ_REDIS_DB":          &cfg.Redis.DB,
		"QUIZ_LEADERBOARD_LIMIT": &cfg.Quiz.LeaderboardLimit,
	}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		"QUIZ_AVG_WORDS_PER_MINUTE": &cfg.Quiz.AvgWordsPerMinute,
		"QUIZ_DEFAULT_ALLOWED_TIME": &cfg.Quiz.DefaultAllowedTime,
	}
	for key, dst := range floats {
		if v, ok := os.LookupEnv(key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = f
		}
	}
	return nil
}

// QuizWindow parses the configured daily window.
func (c Config) QuizWindow() (app.QuizWindow, error) {
	start, err := app.ParseTimeOfDay(c.Quiz.Start)
	if err != nil {
		return app.QuizWindow{}, fmt.Errorf("quiz.start: %w", err)
	}
	stop, err := app.ParseTimeOfDay(c.Quiz.Stop)
	if err != nil {
		return app.QuizWindow{}, fmt.Errorf("quiz.stop: %w", err)
	}
	return app.QuizWindow{Start: start, Stop: stop}, nil
}

// Location resolves the quiz timezone; empty means the server's local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Quiz.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Quiz.Timezone)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
