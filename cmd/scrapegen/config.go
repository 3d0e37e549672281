package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rendis/scrapegen/internal/suggest"
)

// Config holds process settings shared by every subcommand.
// Priority: flags > env vars > settings.json > defaults.
type Config struct {
	ListenAddr string `json:"listen_addr"`
	LogLevel   string `json:"log_level"`
	Provider   string `json:"provider"`
	Model      string `json:"model,omitempty"`
	Endpoint   string `json:"endpoint,omitempty"`
	Timeout    string `json:"timeout"`

	// APIKey only comes from the environment and is never persisted.
	APIKey string `json:"-"`
}

func defaultConfig() Config {
	return Config{
		ListenAddr: ":4200",
		LogLevel:   "info",
		Provider:   suggest.ProviderGemini,
		Timeout:    suggest.DefaultTimeout.String(),
	}
}

func scrapegenDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scrapegen"
	}
	return filepath.Join(home, ".scrapegen")
}

func settingsPath() string {
	return filepath.Join(scrapegenDir(), "settings.json")
}

func pidPath() string {
	return filepath.Join(scrapegenDir(), "scrapegen.pid")
}

func binDir() string {
	return filepath.Join(scrapegenDir(), "bin")
}

func loadConfig() Config {
	return loadConfigFrom(settingsPath(), os.Getenv)
}

// loadConfigFrom layers the settings file at path and the variables getenv
// returns over the defaults.
func loadConfigFrom(path string, getenv func(string) string) Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := getenv("SCRAPEGEN_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := getenv("SCRAPEGEN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("SCRAPEGEN_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := getenv("SCRAPEGEN_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := getenv("SCRAPEGEN_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := getenv("SCRAPEGEN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = v
		}
	}

	cfg.APIKey = apiKeyFor(cfg.Provider, getenv)
	return cfg
}

// apiKeyFor picks the credential variable the provider reads.
func apiKeyFor(provider string, getenv func(string) string) string {
	switch provider {
	case suggest.ProviderOpenAI:
		return getenv("OPENAI_API_KEY")
	case suggest.ProviderGemini, "":
		if v := getenv("GEMINI_API_KEY"); v != "" {
			return v
		}
		return getenv("API_KEY")
	default:
		return ""
	}
}

// timeout parses Timeout. Unparseable or non-positive values mean the
// provider default.
func (c Config) timeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return suggest.DefaultTimeout
	}
	return d
}

func (c Config) providerConfig() suggest.ProviderConfig {
	return suggest.ProviderConfig{
		Name:     c.Provider,
		Model:    c.Model,
		Endpoint: c.Endpoint,
		APIKey:   c.APIKey,
		Timeout:  c.timeout(),
	}
}

// configDiff describes what changed between two configurations.
type configDiff struct {
	LogLevelChanged bool
	ProviderChanged bool
	RestartNeeded   []string // fields that require a server restart
}

func diffConfigs(old, new Config) configDiff {
	var d configDiff
	if old.LogLevel != new.LogLevel {
		d.LogLevelChanged = true
	}
	if old.providerConfig() != new.providerConfig() {
		d.ProviderChanged = true
	}
	if old.ListenAddr != new.ListenAddr {
		d.RestartNeeded = append(d.RestartNeeded, "listen_addr")
	}
	return d
}
