package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/ptgbot/core/dispatch"
	"github.com/kilianp07/ptgbot/core/metrics"
	"github.com/kilianp07/ptgbot/infra/mqtt"
)

type Config struct {
	Bot       dispatch.Config `json:"bot"`
	Schedule  ScheduleConfig  `json:"schedule"`
	Storage   StorageConfig   `json:"storage"`
	Transport mqtt.Config     `json:"transport"`
	Audit     AuditConfig     `json:"audit"`
	Metrics   metrics.Config  `json:"metrics"`
	API       APIConfig       `json:"api"`
	Sentry    SentryConfig    `json:"sentry"`
}

// Load reads the YAML or JSON file at path, applies K_ prefixed
// environment overrides ("K_BOT__CHANNEL" sets bot.channel), fills
// defaults and validates every section.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Bot.SetDefaults()
	c.Storage.SetDefaults()
	c.Audit.SetDefaults()
	c.Metrics.SetDefaults()
	c.API.SetDefaults()
}

// Validate checks every section. The transport is validated when the
// bridge connects, so one-shot commands work without a broker configured.
func (c Config) Validate() error {
	if err := c.Bot.Validate(); err != nil {
		return fmt.Errorf("bot: %w", err)
	}
	if err := c.Schedule.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if c.Audit.Enabled {
		if err := c.Audit.Validate(); err != nil {
			return fmt.Errorf("audit: %w", err)
		}
	}
	return nil
}
