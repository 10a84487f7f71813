package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultAppPath is the MediaDC API prefix below the Nextcloud front controller.
const DefaultAppPath = "/apps/mediadc/api/v1"

// Config mirrors the YAML schema. All values should be supplied via YAML; we avoid hard-coded defaults.
// Minimal validation occurs in Validate().
type Config struct {
	Version int       `yaml:"version"`
	General General   `yaml:"general"`
	Server  Server    `yaml:"server"`
	Network Network   `yaml:"network"`
	Logging Logging   `yaml:"logging"`
	Metrics Metrics   `yaml:"metrics"`
	Notify  Notify    `yaml:"notify"`
	UI      UIOptions `yaml:"ui"`
}

type General struct {
	DataRoot string `yaml:"data_root"` // holds state.db, lock file
}

// Server describes the Nextcloud instance hosting the MediaDC app.
type Server struct {
	URL         string `yaml:"url"`
	User        string `yaml:"user"`
	PasswordEnv string `yaml:"password_env"` // env var holding an app password
	// PrettyURLs drops the /index.php front controller from generated URLs.
	PrettyURLs bool   `yaml:"pretty_urls"`
	AppPath    string `yaml:"app_path"`
}

type Network struct {
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	TLSVerify      *bool  `yaml:"tls_verify"`
	UserAgent      string `yaml:"user_agent"`
}

type Logging struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // human|json
}

type Metrics struct {
	PrometheusTextfile PromTextfile `yaml:"prometheus_textfile"`
}

type PromTextfile struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Notify struct {
	// Desktop mirrors toasts as desktop notifications.
	Desktop bool `yaml:"desktop"`
}

type UIOptions struct {
	// RefreshHz controls the TUI refresh frequency (ticks per second). If 0, defaults to 1.
	// Values above 10 are clamped to 10 to avoid excessive CPU usage.
	RefreshHz int `yaml:"refresh_hz"`
}

// Load reads, parses, expands, and validates a YAML config file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	expanded, err := expandTilde(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(expanded)
	if err != nil {
		return nil, err
	}
	// Expand ${ENV} placeholders before unmarshalling
	b = []byte(os.ExpandEnv(string(b)))
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	if err := c.expandPaths(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) expandPaths() error {
	var err error
	if c.General.DataRoot, err = expandTilde(c.General.DataRoot); err != nil {
		return err
	}
	if c.Metrics.PrometheusTextfile.Path, err = expandTilde(c.Metrics.PrometheusTextfile.Path); err != nil {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported config version: %d", c.Version)
	}
	if c.General.DataRoot == "" {
		return errors.New("general.data_root is required")
	}
	if c.Server.URL == "" {
		return errors.New("server.url is required")
	}
	u, err := url.Parse(c.Server.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server.url must be an absolute http(s) URL: %s", c.Server.URL)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level invalid: %s", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "human", "json":
	default:
		return fmt.Errorf("logging.format invalid: %s", c.Logging.Format)
	}
	if c.Network.TimeoutSeconds < 0 {
		return fmt.Errorf("network.timeout_seconds must be >= 0")
	}
	if c.UI.RefreshHz < 0 {
		return fmt.Errorf("ui.refresh_hz must be >= 0")
	}
	return nil
}

// AppPath returns the configured API prefix, falling back to DefaultAppPath.
func (c *Config) AppPath() string {
	p := strings.TrimSpace(c.Server.AppPath)
	if p == "" {
		return DefaultAppPath
	}
	return "/" + strings.Trim(p, "/")
}

// PasswordEnv returns the env var name holding the app password.
func (c *Config) PasswordEnv() string {
	if env := strings.TrimSpace(c.Server.PasswordEnv); env != "" {
		return env
	}
	return "MDCSYNC_APP_PASSWORD"
}

// TLSVerify reports whether certificates are verified; unset means true.
func (c *Config) TLSVerify() bool {
	return c.Network.TLSVerify == nil || *c.Network.TLSVerify
}

// StatePath is the sqlite file backing the settings store.
func (c *Config) StatePath() string {
	return filepath.Join(c.General.DataRoot, "state.db")
}

// LockPath is the lock file guarding mutating commands.
func (c *Config) LockPath() string {
	return filepath.Join(c.General.DataRoot, "mdcsync.lock")
}

// DefaultPath resolves the config path from MDCSYNC_CONFIG or ~/.config/mdcsync/config.yml.
func DefaultPath() string {
	if env := os.Getenv("MDCSYNC_CONFIG"); env != "" {
		return env
	}
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return filepath.Join(h, ".config", "mdcsync", "config.yml")
	}
	return ""
}

func expandTilde(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p[0] != '~' {
		return p, nil
	}
	h, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if p == "~" {
		return h, nil
	}
	return filepath.Join(h, p[2:]), nil
}

// Ensure paths that should exist
func EnsureDir(path string, perm fs.FileMode) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, perm)
}
