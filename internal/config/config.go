// Package config loads server settings from a .env file, an optional TOML
// file and the environment, in increasing order of precedence.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvConfigFile names the TOML file to load when no path is given
const EnvConfigFile = "WORDWISE_CONFIG"

// Config holds all server settings
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Grammar  GrammarConfig  `toml:"grammar"`
	Emotion  EmotionConfig  `toml:"emotion"`
	Analyzer AnalyzerConfig `toml:"analyzer"`
	Ollama   OllamaConfig   `toml:"ollama"`
	Queue    QueueConfig    `toml:"queue"`
	Tracing  TracingConfig  `toml:"tracing"`
	Log      LogConfig      `toml:"log"`
}

type ServerConfig struct {
	Port string `toml:"port"`
}

type DatabaseConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

type AuthConfig struct {
	Secret   string   `toml:"secret"`
	TokenTTL Duration `toml:"token_ttl"`
}

type GrammarConfig struct {
	URL      string `toml:"url"`
	Language string `toml:"language"`
}

// EmotionConfig selects the emotion backend: hf, lexicon or none
type EmotionConfig struct {
	Backend string `toml:"backend"`
	URL     string `toml:"url"`
	Token   string `toml:"token"`
}

type AnalyzerConfig struct {
	Parallel bool `toml:"parallel"`
}

type OllamaConfig struct {
	URL         string `toml:"url"`
	Model       string `toml:"model"`
	VisionModel string `toml:"vision_model"`
}

// QueueConfig enables background assist jobs when RedisAddr is set
type QueueConfig struct {
	RedisAddr   string `toml:"redis_addr"`
	Concurrency int    `toml:"concurrency"`
}

type TracingConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Duration decodes TOML strings such as "30m"
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "wordwise.db"},
		Auth:     AuthConfig{TokenTTL: Duration{30 * time.Minute}},
		Grammar:  GrammarConfig{URL: "http://localhost:8010", Language: "en-US"},
		Emotion:  EmotionConfig{Backend: "lexicon"},
		Analyzer: AnalyzerConfig{Parallel: true},
		Ollama: OllamaConfig{
			URL:         "http://localhost:11434",
			Model:       "llama3.1:8b",
			VisionModel: "llava",
		},
		Queue:   QueueConfig{Concurrency: 4},
		Tracing: TracingConfig{Endpoint: "localhost:4317"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load builds the configuration. path may be empty, in which case
// WORDWISE_CONFIG is consulted. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.Auth.Secret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate auth secret: %w", err)
		}
		cfg.Auth.Secret = secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("DB_DSN", c.Database.DSN)
	c.Auth.Secret = getEnv("AUTH_SECRET_KEY", c.Auth.Secret)
	c.Grammar.URL = getEnv("LANGUAGETOOL_URL", c.Grammar.URL)
	c.Grammar.Language = getEnv("LANGUAGETOOL_LANGUAGE", c.Grammar.Language)
	c.Emotion.Backend = getEnv("EMOTION_BACKEND", c.Emotion.Backend)
	c.Emotion.URL = getEnv("EMOTION_URL", c.Emotion.URL)
	c.Emotion.Token = getEnv("EMOTION_TOKEN", c.Emotion.Token)
	c.Analyzer.Parallel = getEnvBool("ANALYZER_PARALLEL", c.Analyzer.Parallel)
	c.Ollama.URL = getEnv("OLLAMA_URL", c.Ollama.URL)
	c.Ollama.Model = getEnv("OLLAMA_MODEL", c.Ollama.Model)
	c.Ollama.VisionModel = getEnv("OLLAMA_VISION_MODEL", c.Ollama.VisionModel)
	c.Queue.RedisAddr = getEnv("REDIS_ADDR", c.Queue.RedisAddr)
	c.Tracing.Enabled = getEnvBool("TRACING_ENABLED", c.Tracing.Enabled)
	c.Tracing.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.Endpoint)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)

	if v := os.Getenv("AUTH_TOKEN_TTL"); v != "" {
		ttl, err := parseTTL(v)
		if err != nil {
			return fmt.Errorf("invalid AUTH_TOKEN_TTL %q: %w", v, err)
		}
		c.Auth.TokenTTL = Duration{ttl}
	}
	if v := os.Getenv("QUEUE_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid QUEUE_CONCURRENCY %q: %w", v, err)
		}
		c.Queue.Concurrency = n
	}
	return nil
}

// Validate reports settings that cannot work
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Emotion.Backend {
	case "hf":
		if c.Emotion.URL == "" {
			return fmt.Errorf("emotion backend hf requires EMOTION_URL")
		}
	case "lexicon", "none":
	default:
		return fmt.Errorf("unsupported emotion backend %q", c.Emotion.Backend)
	}
	if c.Auth.TokenTTL.Duration <= 0 {
		return fmt.Errorf("auth token ttl must be positive")
	}
	if c.Queue.Concurrency < 1 {
		return fmt.Errorf("queue concurrency must be at least 1")
	}
	return nil
}

// parseTTL accepts Go durations or a bare number of minutes
func parseTTL(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Minute, nil
	}
	return time.ParseDuration(v)
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := strings.ToLower(os.Getenv(key)); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
