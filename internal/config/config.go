// Package config provides configuration management for aura-core.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

const (
	// DefaultWorkerPort is the default HTTP port for the worker service.
	DefaultWorkerPort = 37700

	// DefaultChatAPIBaseURL is the default base URL of the conversation store.
	DefaultChatAPIBaseURL = "http://localhost:3001/api"

	// DefaultRefreshInterval is the default dashboard refresh cadence.
	DefaultRefreshInterval = 5 * time.Minute

	// DefaultSourceTimeout bounds each upstream source fetch independently.
	DefaultSourceTimeout = 10 * time.Second

	dataDirName  = ".aura"
	settingsFile = "settings.json"
	dbFile       = "aura.db"
	catalogFile  = "activities.yaml"
)

// Config holds all runtime configuration for the worker.
type Config struct {
	WorkerPort      int
	ChatAPIBaseURL  string
	MoodAPIBaseURL  string // defaults to ChatAPIBaseURL when empty
	RefreshInterval time.Duration
	SourceTimeout   time.Duration
	RedisAddr       string // empty disables the snapshot cache
	DBPath          string
	CatalogPath     string
}

var (
	cached   *Config
	cachedMu sync.Mutex
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		WorkerPort:      DefaultWorkerPort,
		ChatAPIBaseURL:  DefaultChatAPIBaseURL,
		RefreshInterval: DefaultRefreshInterval,
		SourceTimeout:   DefaultSourceTimeout,
		DBPath:          DBPath(),
		CatalogPath:     CatalogPath(),
	}
}

// DataDir returns the aura data directory (~/.aura).
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, dataDirName)
}

// DBPath returns the path to the snapshot journal database.
func DBPath() string {
	return filepath.Join(DataDir(), dbFile)
}

// SettingsPath returns the path to the settings file.
func SettingsPath() string {
	return filepath.Join(DataDir(), settingsFile)
}

// CatalogPath returns the path to the activity catalog file.
func CatalogPath() string {
	return filepath.Join(DataDir(), catalogFile)
}

// EnsureDataDir creates the data directory if it does not exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0750)
}

// EnsureSettings creates an empty settings file if none exists.
func EnsureSettings() error {
	path := SettingsPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte("{}\n"), 0600)
}

// EnsureAll initializes the data directory and settings file.
func EnsureAll() error {
	if err := EnsureDataDir(); err != nil {
		return err
	}
	return EnsureSettings()
}

// settings mirrors the JSON settings file. All keys are optional.
type settings struct {
	WorkerPort      int    `json:"AURA_WORKER_PORT"`
	ChatAPIBaseURL  string `json:"AURA_CHAT_API_URL"`
	MoodAPIBaseURL  string `json:"AURA_MOOD_API_URL"`
	RefreshMinutes  int    `json:"AURA_REFRESH_MINUTES"`
	SourceTimeoutMS int    `json:"AURA_SOURCE_TIMEOUT_MS"`
	RedisAddr       string `json:"AURA_REDIS_ADDR"`
}

// Load reads configuration from the settings file with environment overrides.
// Missing or invalid settings fall back to defaults; Load never fails on a
// malformed settings file.
func Load() (*Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(SettingsPath()); err == nil {
		var s settings
		if err := json.Unmarshal(data, &s); err == nil {
			if s.WorkerPort > 0 {
				cfg.WorkerPort = s.WorkerPort
			}
			if s.ChatAPIBaseURL != "" {
				cfg.ChatAPIBaseURL = s.ChatAPIBaseURL
			}
			if s.MoodAPIBaseURL != "" {
				cfg.MoodAPIBaseURL = s.MoodAPIBaseURL
			}
			if s.RefreshMinutes > 0 {
				cfg.RefreshInterval = time.Duration(s.RefreshMinutes) * time.Minute
			}
			if s.SourceTimeoutMS > 0 {
				cfg.SourceTimeout = time.Duration(s.SourceTimeoutMS) * time.Millisecond
			}
			if s.RedisAddr != "" {
				cfg.RedisAddr = s.RedisAddr
			}
		}
	}

	applyEnv(cfg)

	if cfg.MoodAPIBaseURL == "" {
		cfg.MoodAPIBaseURL = cfg.ChatAPIBaseURL
	}

	return cfg, nil
}

// applyEnv applies AURA_* environment variable overrides.
func applyEnv(cfg *Config) {
	if v := os.Getenv("AURA_WORKER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.WorkerPort = port
		}
	}
	if v := os.Getenv("AURA_CHAT_API_URL"); v != "" {
		cfg.ChatAPIBaseURL = v
	}
	if v := os.Getenv("AURA_MOOD_API_URL"); v != "" {
		cfg.MoodAPIBaseURL = v
	}
	if v := os.Getenv("AURA_REFRESH_MINUTES"); v != "" {
		if mins, err := strconv.Atoi(v); err == nil && mins > 0 {
			cfg.RefreshInterval = time.Duration(mins) * time.Minute
		}
	}
	if v := os.Getenv("AURA_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
}

// Get returns the cached configuration, loading it on first use.
func Get() *Config {
	cachedMu.Lock()
	defer cachedMu.Unlock()
	if cached == nil {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
		}
		cached = cfg
	}
	return cached
}

// Reload discards the cached configuration and loads it again.
// Used by the settings watcher when the file changes on disk.
func Reload() *Config {
	cachedMu.Lock()
	defer cachedMu.Unlock()
	cfg, err := Load()
	if err != nil {
		cfg = Default()
	}
	cached = cfg
	return cfg
}

// GetWorkerPort returns the worker port, preferring the environment variable
// so hook-style callers can resolve the port without loading full settings.
func GetWorkerPort() int {
	if v := os.Getenv("AURA_WORKER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			return port
		}
	}
	return Get().WorkerPort
}
