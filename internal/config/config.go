package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "deckplane"
	configFile = "config.yaml"
)

// Defaults applied when a field is absent from the file.
const (
	// DefaultListenAddr is where the control channel accepts its single client.
	DefaultListenAddr = "127.0.0.1:49327"

	// DefaultProfile is the hardware profile the plugin manages.
	DefaultProfile = "deckplane"

	// DefaultDiscoverTimeout is the mDNS gateway discovery timeout in seconds.
	DefaultDiscoverTimeout = 10
)

var (
	// Mutex for thread-safe file operations
	fileMutex sync.Mutex
)

// Settings represents the plugin configuration file.
type Settings struct {
	Version int `yaml:"version"`

	// ListenAddr is the TCP address the control channel listens on.
	ListenAddr string `yaml:"listen_addr"`

	// GatewayAddr is the websocket address of the key-grid gateway service
	// (e.g. "ws://127.0.0.1:50354"). Empty means discover via mDNS.
	GatewayAddr string `yaml:"gateway_addr,omitempty"`

	// Profile is the name of the hardware profile this plugin owns.
	Profile string `yaml:"profile"`

	// AssetDir is the directory bare relative icon names resolve against.
	AssetDir string `yaml:"asset_dir,omitempty"`

	// DiscoverTimeout is the mDNS discovery timeout in seconds.
	DiscoverTimeout int `yaml:"discover_timeout,omitempty"`

	// LogLevel overrides DECKPLANE_LOG_LEVEL when set.
	LogLevel string `yaml:"log_level,omitempty"`
}

// NewSettings creates Settings populated with default values.
func NewSettings() *Settings {
	return &Settings{
		Version:         1,
		ListenAddr:      DefaultListenAddr,
		Profile:         DefaultProfile,
		DiscoverTimeout: DefaultDiscoverTimeout,
	}
}

// GetConfigDir returns the OS-appropriate configuration directory for the
// application. This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/deckplane or $HOME/.config/deckplane
//   - macOS: $HOME/.config/deckplane (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\deckplane
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		// Linux and other Unix-like systems: Use XDG_CONFIG_HOME or $HOME/.config
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// ensureConfigDir ensures the configuration directory exists.
func ensureConfigDir() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	// Create directory with user-only permissions (0700)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// Load reads the configuration file from disk. If the file doesn't exist,
// returns Settings populated with defaults.
func Load() (*Settings, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFrom(configPath)
}

// LoadFrom reads the configuration from an explicit path. If the file
// doesn't exist, returns Settings populated with defaults.
func LoadFrom(path string) (*Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewSettings(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if settings.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", settings.Version)
	}

	applyDefaults(&settings)
	return &settings, nil
}

// applyDefaults fills zero-valued fields with their defaults.
func applyDefaults(s *Settings) {
	if s.ListenAddr == "" {
		s.ListenAddr = DefaultListenAddr
	}
	if s.Profile == "" {
		s.Profile = DefaultProfile
	}
	if s.DiscoverTimeout <= 0 {
		s.DiscoverTimeout = DefaultDiscoverTimeout
	}
}

// Save saves the settings to disk.
// Performs an atomic write to prevent corruption on crash.
func (s *Settings) Save() error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := ensureConfigDir(); err != nil {
		return fmt.Errorf("failed to ensure config directory exists: %w", err)
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Deckplane Configuration File
# Settings for the key-grid control plane plugin.
#
# Location: ` + configPath + `

`)
	data = append(header, data...)

	// Write to temporary file first (atomic write)
	tmpPath := configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	// Atomic rename (this is atomic on all platforms)
	if err := os.Rename(tmpPath, configPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}
