// Package config loads process configuration from an optional YAML file and
// DECKWRIGHT_-prefixed environment variables, in that order.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/aretw0/deckwright/pkg/orchestrator"
	"github.com/aretw0/deckwright/pkg/retry"
	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DECKWRIGHT_"

// Config holds the configuration of the CLI and the HTTP server.
type Config struct {
	LogLevel     string             `yaml:"log_level" env:"LOG_LEVEL"`
	SnapshotDir  string             `yaml:"snapshot_dir" env:"SNAPSHOT_DIR"`
	Encryption   EncryptionConfig   `yaml:"encryption" envPrefix:"SNAPSHOT_"`
	MirrorURL    string             `yaml:"settings_mirror_url" env:"SETTINGS_MIRROR_URL"`
	AgentModels  map[string]string  `yaml:"agent_models" env:"AGENT_MODELS" envSeparator:"," envKeyValSeparator:"="`
	Orchestrator OrchestratorConfig `yaml:"orchestrator" envPrefix:"ORCHESTRATOR_"`
	Redis        RedisConfig        `yaml:"redis" envPrefix:"REDIS_"`
	HTTP         HTTPConfig         `yaml:"http" envPrefix:"HTTP_"`
	Cookie       CookieConfig       `yaml:"cookie" envPrefix:"COOKIE_"`
	Pricing      PricingConfig      `yaml:"pricing" envPrefix:"PRICE_"`
}

// OrchestratorConfig locates and paces calls to the orchestration service.
type OrchestratorConfig struct {
	InternalURL string        `yaml:"internal_url" env:"INTERNAL_URL"`
	PublicURL   string        `yaml:"public_url" env:"PUBLIC_URL"`
	Fallbacks   []string      `yaml:"fallbacks" env:"FALLBACKS" envSeparator:","`
	Attempts    int           `yaml:"attempts" env:"ATTEMPTS"`
	BaseDelay   time.Duration `yaml:"base_delay" env:"BASE_DELAY"`
	Timeout     time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// RedisConfig selects the remote document store. An empty Addr keeps
// documents in process memory.
type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"ADDR"`
	Password string        `yaml:"password" env:"PASSWORD"`
	DB       int           `yaml:"db" env:"DB"`
	Prefix   string        `yaml:"prefix" env:"PREFIX"`
	TTL      time.Duration `yaml:"ttl" env:"TTL"`
}

// EncryptionConfig enables AES-256-GCM encryption of local snapshots.
// Keys are base64-encoded 32-byte values; an empty Key disables it.
type EncryptionConfig struct {
	Key          string   `yaml:"key" env:"KEY"`
	FallbackKeys []string `yaml:"fallback_keys" env:"FALLBACK_KEYS" envSeparator:","`
}

// Enabled reports whether snapshots are encrypted.
func (e EncryptionConfig) Enabled() bool {
	return strings.TrimSpace(e.Key) != ""
}

// Keys decodes the active and fallback keys.
func (e EncryptionConfig) Keys() (active []byte, fallbacks [][]byte, err error) {
	active, err = decodeKey(e.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("encryption.key: %w", err)
	}
	for i, raw := range e.FallbackKeys {
		k, err := decodeKey(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("encryption.fallback_keys[%d]: %w", i, err)
		}
		fallbacks = append(fallbacks, k)
	}
	return active, fallbacks, nil
}

func decodeKey(raw string) ([]byte, error) {
	k, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("not base64: %w", err)
	}
	if len(k) != 32 {
		return nil, fmt.Errorf("must decode to 32 bytes, got %d", len(k))
	}
	return k, nil
}

type HTTPConfig struct {
	Port            int           `yaml:"port" env:"PORT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// CookieConfig shapes the cookie mirroring agent-model bindings.
type CookieConfig struct {
	Name   string        `yaml:"name" env:"NAME"`
	MaxAge time.Duration `yaml:"max_age" env:"MAX_AGE"`
	Secure bool          `yaml:"secure" env:"SECURE"`
}

// PricingConfig overrides the built-in unit prices.
type PricingConfig struct {
	Prompt     float64 `yaml:"prompt" env:"PROMPT"`
	Completion float64 `yaml:"completion" env:"COMPLETION"`
	ImageCall  float64 `yaml:"image_call" env:"IMAGE_CALL"`
}

// Default returns the built-in configuration.
func Default() *Config {
	p := domain.DefaultPricing()
	return &Config{
		LogLevel:    "info",
		SnapshotDir: ".deckwright/snapshots",
		Orchestrator: OrchestratorConfig{
			Fallbacks: append([]string(nil), orchestrator.DefaultFallbacks...),
			Attempts:  3,
			BaseDelay: 500 * time.Millisecond,
			Timeout:   120 * time.Second,
		},
		Redis: RedisConfig{
			Prefix: "deckwright:presentation:",
		},
		HTTP: HTTPConfig{
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Cookie: CookieConfig{
			Name:   "deckwright_agent_models",
			MaxAge: 30 * 24 * time.Hour,
		},
		Pricing: PricingConfig{
			Prompt:     p.PricePrompt,
			Completion: p.PriceCompletion,
			ImageCall:  p.PriceImageCall,
		},
	}
}

// Load reads path (skipped when empty), then the environment, over the
// defaults. An explicitly named file must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and normalises values.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	if c.Orchestrator.Attempts < 1 {
		errs = append(errs, fmt.Errorf("orchestrator.attempts must be at least 1, got %d", c.Orchestrator.Attempts))
	}
	if len(c.Candidates()) == 0 {
		errs = append(errs, errors.New("orchestrator: no candidate URLs; set internal_url, public_url or fallbacks"))
	}
	if c.Orchestrator.BaseDelay < 0 {
		errs = append(errs, errors.New("orchestrator.base_delay must not be negative"))
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port out of range: %d", c.HTTP.Port))
	}
	if strings.TrimSpace(c.Cookie.Name) == "" {
		errs = append(errs, errors.New("cookie.name is required"))
	}
	if c.Pricing.Prompt < 0 || c.Pricing.Completion < 0 || c.Pricing.ImageCall < 0 {
		errs = append(errs, errors.New("pricing must not be negative"))
	}
	if c.Encryption.Enabled() {
		if _, _, err := c.Encryption.Keys(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Orchestrator.Timeout <= 0 {
		c.Orchestrator.Timeout = 120 * time.Second
	}
	return errors.Join(errs...)
}

// Candidates returns the ordered orchestrator base URLs.
func (c *Config) Candidates() []string {
	return orchestrator.Candidates(c.Orchestrator.InternalURL, c.Orchestrator.PublicURL, c.Orchestrator.Fallbacks)
}

// RetryPolicy returns the orchestrator retry policy.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		Attempts: c.Orchestrator.Attempts,
		Backoff:  retry.Linear(c.Orchestrator.BaseDelay),
	}
}

// DefaultPricing returns the configured unit prices.
func (c *Config) DefaultPricing() domain.Pricing {
	return domain.Pricing{
		PricePrompt:     c.Pricing.Prompt,
		PriceCompletion: c.Pricing.Completion,
		PriceImageCall:  c.Pricing.ImageCall,
	}
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTP.Port)
}
