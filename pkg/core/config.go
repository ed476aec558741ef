// pkg/core/config.go
package core

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds manafest configuration
type Config struct {
	DefaultBackend string        `yaml:"default_backend"`
	RegistryPath   string        `yaml:"registry_path"`
	AliasDir       string        `yaml:"alias_dir"`
	CloneDir       string        `yaml:"clone_dir"`
	Parallel       bool          `yaml:"parallel"`
	Debug          bool          `yaml:"debug"`
	Timeouts       Timeouts      `yaml:"timeouts"`
	AUR            AURConfig     `yaml:"aur"`
	Flatpak        FlatpakConfig `yaml:"flatpak"`
	PyPI           PyPIConfig    `yaml:"pypi"`
	Hosts          HostsConfig   `yaml:"hosts"`
}

// Timeouts bounds every external call. Zero values fall back to defaults.
type Timeouts struct {
	Query       time.Duration `yaml:"query"`       // search, info, installed checks
	Install     time.Duration `yaml:"install"`     // install and remove
	Maintenance time.Duration `yaml:"maintenance"` // update and upgrade
	HTTP        time.Duration `yaml:"http"`        // remote API round-trips
}

// AURConfig configures the helper-backed Arch User Repository backend
type AURConfig struct {
	Helpers []string `yaml:"helpers"`
}

// FlatpakConfig configures the Flatpak backend
type FlatpakConfig struct {
	Remote string `yaml:"remote"`
}

// PyPIConfig configures the Python package index backend
type PyPIConfig struct {
	IndexURL string `yaml:"index_url"`
}

// HostConfig points a source-host backend at its API and web endpoints
type HostConfig struct {
	APIURL string `yaml:"api_url"`
	WebURL string `yaml:"web_url"`
}

// HostsConfig holds per-source-host endpoints
type HostsConfig struct {
	GitHub    HostConfig `yaml:"github"`
	GitLab    HostConfig `yaml:"gitlab"`
	Bitbucket HostConfig `yaml:"bitbucket"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultBackend: "default",
		RegistryPath:   getDefaultRegistryPath(),
		AliasDir:       filepath.Join(configDir(), "aliases"),
		CloneDir:       ".",
		Parallel:       true,
		Timeouts:       DefaultTimeouts(),
		AUR:            AURConfig{Helpers: []string{"yay", "paru", "pikaur"}},
		Flatpak:        FlatpakConfig{Remote: "flathub"},
		PyPI:           PyPIConfig{IndexURL: "https://pypi.org"},
		Hosts: HostsConfig{
			GitHub:    HostConfig{APIURL: "https://api.github.com", WebURL: "https://github.com"},
			GitLab:    HostConfig{APIURL: "https://gitlab.com/api/v4", WebURL: "https://gitlab.com"},
			Bitbucket: HostConfig{APIURL: "https://api.bitbucket.org/2.0", WebURL: "https://bitbucket.org"},
		},
	}
}

// DefaultTimeouts returns the per-call bounds used when none are configured
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Query:       20 * time.Second,
		Install:     30 * time.Minute,
		Maintenance: time.Hour,
		HTTP:        5 * time.Second,
	}
}

// LoadConfig loads configuration from file. Missing keys keep their defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("MANAFEST_CONFIG")
	}
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.fillDefaults()
	cfg.applyEnv()
	return cfg, nil
}

// SaveConfig saves configuration to file
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// DefaultConfigPath is $HOME/.config/manafest/config.yaml
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.DefaultBackend == "" {
		c.DefaultBackend = def.DefaultBackend
	}
	if c.RegistryPath == "" {
		c.RegistryPath = def.RegistryPath
	}
	if c.AliasDir == "" {
		c.AliasDir = def.AliasDir
	}
	if c.CloneDir == "" {
		c.CloneDir = def.CloneDir
	}
	if c.Timeouts.Query <= 0 {
		c.Timeouts.Query = def.Timeouts.Query
	}
	if c.Timeouts.Install <= 0 {
		c.Timeouts.Install = def.Timeouts.Install
	}
	if c.Timeouts.Maintenance <= 0 {
		c.Timeouts.Maintenance = def.Timeouts.Maintenance
	}
	if c.Timeouts.HTTP <= 0 {
		c.Timeouts.HTTP = def.Timeouts.HTTP
	}
	if len(c.AUR.Helpers) == 0 {
		c.AUR.Helpers = def.AUR.Helpers
	}
	if c.Flatpak.Remote == "" {
		c.Flatpak.Remote = def.Flatpak.Remote
	}
	if c.PyPI.IndexURL == "" {
		c.PyPI.IndexURL = def.PyPI.IndexURL
	}
	fillHost(&c.Hosts.GitHub, def.Hosts.GitHub)
	fillHost(&c.Hosts.GitLab, def.Hosts.GitLab)
	fillHost(&c.Hosts.Bitbucket, def.Hosts.Bitbucket)
}

func (c *Config) applyEnv() {
	if path := os.Getenv("MANAFEST_REGISTRY"); path != "" {
		c.RegistryPath = path
	}
}

func fillHost(h *HostConfig, def HostConfig) {
	if h.APIURL == "" {
		h.APIURL = def.APIURL
	}
	if h.WebURL == "" {
		h.WebURL = def.WebURL
	}
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "manafest")
	}
	return filepath.Join(home, ".config", "manafest")
}

// getDefaultRegistryPath places registry.json next to the running executable
func getDefaultRegistryPath() string {
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join(configDir(), "registry.json")
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), "registry.json")
}
