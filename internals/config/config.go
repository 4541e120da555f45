package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Server struct {
		Host           string   `yaml:"host" env:"SERVER_HOST" env-default:"localhost"`
		Port           int      `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
		AllowedOrigins []string `yaml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS" env-default:"*"`
	} `yaml:"server"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path" env:"DATABASE_SQLITE_PATH" env-default:"tictacshift.db"`
	} `yaml:"database"`

	Game struct {
		DefaultMode             string `yaml:"default_mode" env:"GAME_DEFAULT_MODE" env-default:"human-vs-computer"`
		DefaultDifficulty       string `yaml:"default_difficulty" env:"GAME_DEFAULT_DIFFICULTY" env-default:"medium"`
		DecisionTimeoutMs       int    `yaml:"decision_timeout_ms" env:"GAME_DECISION_TIMEOUT_MS" env-default:"3000"`
		ThinkingEasyMs          int    `yaml:"thinking_easy_ms" env:"GAME_THINKING_EASY_MS" env-default:"200"`
		ThinkingMediumMs        int    `yaml:"thinking_medium_ms" env:"GAME_THINKING_MEDIUM_MS" env-default:"400"`
		ThinkingHardMs          int    `yaml:"thinking_hard_ms" env:"GAME_THINKING_HARD_MS" env-default:"600"`
		SessionCacheSize        int    `yaml:"session_cache_size" env:"GAME_SESSION_CACHE_SIZE" env-default:"100"`
		ReconnectTimeoutSeconds int    `yaml:"reconnect_timeout_seconds" env:"GAME_RECONNECT_TIMEOUT_SECONDS" env-default:"30"`
	} `yaml:"game"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) DecisionTimeout() time.Duration {
	return time.Duration(c.Game.DecisionTimeoutMs) * time.Millisecond
}

func (c *Config) ReconnectTimeout() time.Duration {
	return time.Duration(c.Game.ReconnectTimeoutSeconds) * time.Second
}

// Load reads the YAML file at path; environment variables override it
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Game.DecisionTimeoutMs <= 0 {
		return errors.New("decision_timeout_ms must be positive")
	}
	if c.Game.SessionCacheSize <= 0 {
		return errors.New("session_cache_size must be positive")
	}
	return nil
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configflag := flag.String("config", "", "Path to configuration file")
		flag.Parse()
		configPath = *configflag
		if configPath == "" {
			log.Fatal("Config Path is not set")
		}
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}
