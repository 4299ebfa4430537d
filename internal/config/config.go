// Package config loads the woodeye user configuration from
// ~/.config/woodeye/config.toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/twistedxcom/woodeye/internal/status"
)

// ConfigFileName is the TOML config file for user preferences.
const ConfigFileName = "config.toml"

// Config represents user-facing configuration in TOML format.
type Config struct {
	// StatusDir overrides where hook status files live.
	// Default: ~/.woodeye-status
	StatusDir string `toml:"status_dir"`

	// ClaudeConfigDir overrides the Claude Code config directory.
	// Default: $CLAUDE_CONFIG_DIR, else ~/.claude
	ClaudeConfigDir string `toml:"claude_config_dir"`

	// CustomScriptPath is an optional script run when opening a session
	// externally. Kept for parity with the desktop build; woodeye itself
	// never executes it.
	CustomScriptPath string `toml:"custom_script_path"`

	// Theme sets the color scheme: "dark" (default), "light", or "system"
	Theme string `toml:"theme"`

	// Log defines logging settings
	Log LogSettings `toml:"log"`

	// Web defines web server settings
	Web WebSettings `toml:"web"`
}

// LogSettings controls file logging.
type LogSettings struct {
	// Level is "debug", "info", "warn", or "error"
	Level string `toml:"level"`

	// Format is "json" (default) or "text"
	Format string `toml:"format"`

	// Dir overrides the log directory (default: status dir)
	Dir string `toml:"dir"`
}

// WebSettings controls the optional web server.
type WebSettings struct {
	// ListenAddr is the bind address (default: 127.0.0.1:8420)
	ListenAddr string `toml:"listen_addr"`

	// Token, when set, is required as a Bearer token on API requests
	Token string `toml:"token"`

	// VAPID keys for web push notifications
	PushVAPIDPublicKey  string `toml:"push_vapid_public_key"`
	PushVAPIDPrivateKey string `toml:"push_vapid_private_key"`
	PushVAPIDSubject    string `toml:"push_vapid_subject"`
}

// Path returns the config file path (~/.config/woodeye/config.toml).
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "woodeye", ConfigFileName)
	}
	return filepath.Join(home, ".config", "woodeye", ConfigFileName)
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads a config file from an explicit path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the config to disk, creating directories if needed.
func Save(cfg *Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// ResolveStatusDir returns the effective status directory.
// Priority: WOODEYE_STATUS_DIR env, config, default.
func (c *Config) ResolveStatusDir() string {
	if env := os.Getenv("WOODEYE_STATUS_DIR"); env != "" {
		return ExpandTilde(env)
	}
	if c.StatusDir != "" {
		return ExpandTilde(c.StatusDir)
	}
	return status.DefaultDir()
}

// ResolveClaudeConfigDir returns the effective Claude config directory.
// Priority: CLAUDE_CONFIG_DIR env, config, ~/.claude.
func (c *Config) ResolveClaudeConfigDir() string {
	if env := os.Getenv("CLAUDE_CONFIG_DIR"); env != "" {
		return ExpandTilde(env)
	}
	if c.ClaudeConfigDir != "" {
		return ExpandTilde(c.ClaudeConfigDir)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude")
}

// TranscriptsDir returns the directory holding Claude's JSONL session logs.
func (c *Config) TranscriptsDir() string {
	return filepath.Join(c.ResolveClaudeConfigDir(), "projects")
}

// ResolveLogDir returns the effective log directory.
func (c *Config) ResolveLogDir() string {
	if c.Log.Dir != "" {
		return ExpandTilde(c.Log.Dir)
	}
	return c.ResolveStatusDir()
}

// ExpandTilde expands a leading ~/ to the user's home directory.
func ExpandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
