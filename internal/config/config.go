// Package config loads the velada configuration: the card list with its
// answer digests, the final answer digest, the unlock timestamp, and server
// settings. Values come from a YAML file with VELADA_-prefixed environment
// overrides. Answer plaintext never appears anywhere in configuration.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/domain/experience"
)

// Config holds all settings for the velada server.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Experience ExperienceConfig `yaml:"experience"`
	Assets     AssetsConfig     `yaml:"assets"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"` // listen address (default: :8080)
}

// StorageConfig selects and configures the telemetry store.
type StorageConfig struct {
	Engine      string `yaml:"engine"`       // "sqlite" (default) or "postgres"
	SQLitePath  string `yaml:"sqlite_path"`  // default: velada.db
	PostgresDSN string `yaml:"postgres_dsn"` // required when engine is postgres
}

// CardConfig defines one riddle card.
type CardConfig struct {
	ID           int    `yaml:"id"`
	AnswerDigest string `yaml:"answer_digest"`
	Asset        string `yaml:"asset"`
}

// ExperienceConfig is the static definition of the experience itself.
type ExperienceConfig struct {
	UnlockAt          time.Time    `yaml:"unlock_at"`
	TestMode          bool         `yaml:"test_mode"` // bypasses the countdown
	FinalAnswerDigest string       `yaml:"final_answer_digest"`
	CarouselWindow    int          `yaml:"carousel_window"` // default: 3
	Cards             []CardConfig `yaml:"cards"`
}

// AssetsConfig maps logical asset names to locators.
type AssetsConfig struct {
	BaseURL  string            `yaml:"base_url"`
	Manifest map[string]string `yaml:"manifest"`
}

var hexDigest = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Load reads the YAML file at path, applies environment overrides, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	cfg := &Config{
		Server:  ServerConfig{Addr: ":8080"},
		Storage: StorageConfig{Engine: "sqlite", SQLitePath: "velada.db"},
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applyEnv(cfg)

	if cfg.Experience.CarouselWindow <= 0 {
		cfg.Experience.CarouselWindow = 3
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values from VELADA_-prefixed variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("VELADA_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("VELADA_STORAGE_ENGINE"); v != "" {
		cfg.Storage.Engine = v
	}
	if v := os.Getenv("VELADA_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("VELADA_POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("VELADA_TEST_MODE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Experience.TestMode = b
		}
	}
}

func (c *Config) validate() error {
	switch c.Storage.Engine {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("config: sqlite_path is required for the sqlite engine")
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("config: postgres_dsn is required for the postgres engine")
		}
	default:
		return fmt.Errorf("config: unknown storage engine %q", c.Storage.Engine)
	}

	if len(c.Experience.Cards) == 0 {
		return fmt.Errorf("config: at least one card is required")
	}
	seen := make(map[int]bool, len(c.Experience.Cards))
	for _, card := range c.Experience.Cards {
		if seen[card.ID] {
			return fmt.Errorf("config: duplicate card id %d", card.ID)
		}
		seen[card.ID] = true
		if !hexDigest.MatchString(card.AnswerDigest) {
			return fmt.Errorf("config: card %d answer_digest is not a lowercase hex sha-256", card.ID)
		}
	}
	if !hexDigest.MatchString(c.Experience.FinalAnswerDigest) {
		return fmt.Errorf("config: final_answer_digest is not a lowercase hex sha-256")
	}
	if !c.Experience.TestMode && c.Experience.UnlockAt.IsZero() {
		return fmt.Errorf("config: unlock_at is required unless test_mode is set")
	}
	return nil
}

// CardDefinitions converts the configured cards to the domain type,
// preserving file order.
func (c *Config) CardDefinitions() []experience.CardDefinition {
	cards := make([]experience.CardDefinition, 0, len(c.Experience.Cards))
	for _, card := range c.Experience.Cards {
		cards = append(cards, experience.CardDefinition{
			ID:           card.ID,
			AnswerDigest: card.AnswerDigest,
			Asset:        card.Asset,
		})
	}
	return cards
}
