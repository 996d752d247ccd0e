package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/danmuck/pandamodel/internal/protocol"
	"github.com/danmuck/pandamodel/internal/protocol/session"
)

// Config is the resolved CLI configuration. Sources apply in order:
// defaults, config file, environment, flags.
type Config struct {
	Host            string
	Port            int
	Dir             string
	LibraryPath     string
	Version         uint16
	Architecture    protocol.Architecture
	OperatingSystem protocol.OperatingSystem
	Attempts        int
	Session         session.Config
}

func DefaultConfig() Config {
	return Config{
		Port:            protocol.DefaultCommandPort,
		Dir:             ".",
		Version:         protocol.DefaultVersion,
		Architecture:    protocol.ArchitectureX64,
		OperatingSystem: protocol.OperatingSystemLinux,
		Attempts:        1,
		Session:         session.DefaultConfig(),
	}
}

// pandamodel.toml key mapping.
type fileConfig struct {
	Host             string `toml:"host"`
	Port             int    `toml:"port"`
	Dir              string `toml:"dir"`
	Library          string `toml:"library"`
	Version          int    `toml:"version"`
	Arch             string `toml:"arch"`
	OS               string `toml:"os"`
	Attempts         int    `toml:"attempts"`
	ConnectTimeout   string `toml:"connect_timeout"`
	ReadTimeout      string `toml:"read_timeout"`
	WriteTimeout     string `toml:"write_timeout"`
	BackoffInitial   string `toml:"backoff_initial"`
	BackoffMax       string `toml:"backoff_max"`
	BackoffJitter    bool   `toml:"backoff_jitter"`
	MaxArtifactBytes uint32 `toml:"max_artifact_bytes"`
}

// envConfig holds the variables the controller tooling has always read.
type envConfig struct {
	Host    string `env:"PANDA_MODEL_HOST"`
	Version uint16 `env:"PANDA_MODEL_VER"`
	Path    string `env:"PANDA_MODEL_PATH"`
	Dir     string `env:"PANDA_MODEL_DIR"`
}

func loadFileConfig(path string, cfg *Config) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load pandamodel config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load pandamodel config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("host") {
		cfg.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("dir") {
		cfg.Dir = strings.TrimSpace(raw.Dir)
	}
	if meta.IsDefined("library") {
		cfg.LibraryPath = strings.TrimSpace(raw.Library)
	}
	if meta.IsDefined("version") {
		if raw.Version <= 0 || raw.Version > 0xFFFF {
			return fmt.Errorf("load pandamodel config: version %d out of range", raw.Version)
		}
		cfg.Version = uint16(raw.Version)
	}
	if meta.IsDefined("arch") {
		arch, err := protocol.ParseArchitecture(raw.Arch)
		if err != nil {
			return fmt.Errorf("load pandamodel config: %w", err)
		}
		cfg.Architecture = arch
	}
	if meta.IsDefined("os") {
		osys, err := protocol.ParseOperatingSystem(raw.OS)
		if err != nil {
			return fmt.Errorf("load pandamodel config: %w", err)
		}
		cfg.OperatingSystem = osys
	}
	if meta.IsDefined("attempts") {
		cfg.Attempts = raw.Attempts
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"connect_timeout", raw.ConnectTimeout, &cfg.Session.ConnectTimeout},
		{"read_timeout", raw.ReadTimeout, &cfg.Session.ReadTimeout},
		{"write_timeout", raw.WriteTimeout, &cfg.Session.WriteTimeout},
		{"backoff_initial", raw.BackoffInitial, &cfg.Session.Backoff.InitialDelay},
		{"backoff_max", raw.BackoffMax, &cfg.Session.Backoff.MaxDelay},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return fmt.Errorf("load pandamodel config: %s: %w", d.key, err)
		}
		*d.dst = v
	}
	if meta.IsDefined("backoff_jitter") {
		cfg.Session.Backoff.Jitter = raw.BackoffJitter
	}
	if meta.IsDefined("max_artifact_bytes") {
		cfg.Session.Limits.MaxPayloadBytes = raw.MaxArtifactBytes
	}
	return nil
}

// applyEnv overlays the PANDA_MODEL_* variables that are set.
func applyEnv(cfg *Config) error {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if raw.Host != "" {
		cfg.Host = raw.Host
	}
	if raw.Version != 0 {
		cfg.Version = raw.Version
	}
	if raw.Path != "" {
		cfg.LibraryPath = raw.Path
	}
	if raw.Dir != "" {
		cfg.Dir = raw.Dir
	}
	return nil
}

// resolveConfig builds the configuration below the flag layer.
func resolveConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := loadFileConfig(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Attempts < 1 {
		return fmt.Errorf("attempts must be at least 1, got %d", c.Attempts)
	}
	if c.Port <= 0 || c.Port > 0xFFFF {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}
