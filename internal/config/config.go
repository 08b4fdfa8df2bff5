package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DeployTarget describes the server that generated deployment scripts talk to.
// The values are baked into the script variables so the operator only edits
// them in one place.
type DeployTarget struct {
	// RemoteUser is the SSH user placed into generated scripts.
	RemoteUser string `yaml:"remote_user"`
	// RemoteHost is the hostname or IP placed into generated scripts.
	RemoteHost string `yaml:"remote_host"`
	// TargetDir is the installation directory on the remote server.
	TargetDir string `yaml:"target_dir"`
}

// Config holds the release source coordinates and deployment defaults.
type Config struct {
	// RepositoryOwner is the GitHub account hosting the releases.
	RepositoryOwner string `yaml:"repository_owner"`
	// RepositoryName is the GitHub repository hosting the releases.
	RepositoryName string `yaml:"repository_name"`
	// APIBaseURL is the base URL of the GitHub REST API.
	APIBaseURL string `yaml:"api_base_url"`
	// DownloadBaseURL is the base URL used to build tag archive URLs.
	DownloadBaseURL string `yaml:"download_base_url"`
	// Timeout is the duration for HTTP operations.
	Timeout time.Duration `yaml:"timeout"`
	// Deploy carries the server coordinates templated into deploy scripts.
	Deploy DeployTarget `yaml:"deploy"`
}

const (
	// DefaultConfigFilename is the default filename for tool settings.
	DefaultConfigFilename = "yourls-diff-settings.yaml"

	// DefaultRepositoryOwner and DefaultRepositoryName point at the upstream
	// YOURLS repository; both can be overridden to diff any GitHub project.
	DefaultRepositoryOwner = "YOURLS"
	DefaultRepositoryName  = "YOURLS"

	// DefaultAPIBaseURL is the public GitHub REST API endpoint.
	DefaultAPIBaseURL = "https://api.github.com"

	// DefaultDownloadBaseURL is where tag source archives are served from.
	DefaultDownloadBaseURL = "https://github.com"

	// DefaultTimeout is the default duration for HTTP operations.
	DefaultTimeout = 60 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
)

// Default returns a configuration filled with the stock YOURLS settings.
func Default() *Config {
	cfg := new(Config)
	// Validate never fails on an empty config, it only fills defaults.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default when the file
// does not exist. The tool is expected to run without a settings file in the
// common case of diffing upstream YOURLS releases.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills missing fields with defaults and checks URL formatting.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.RepositoryOwner == "" {
		cfg.RepositoryOwner = DefaultRepositoryOwner
	}

	if cfg.RepositoryName == "" {
		cfg.RepositoryName = DefaultRepositoryName
	}

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}

	if cfg.DownloadBaseURL == "" {
		cfg.DownloadBaseURL = DefaultDownloadBaseURL
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if _, err := url.ParseRequestURI(cfg.APIBaseURL); err != nil {
		return fmt.Errorf("invalid API base URL: %w", err)
	}

	if _, err := url.ParseRequestURI(cfg.DownloadBaseURL); err != nil {
		return fmt.Errorf("invalid download base URL: %w", err)
	}

	if cfg.Deploy.RemoteUser == "" {
		cfg.Deploy.RemoteUser = "user"
	}

	if cfg.Deploy.RemoteHost == "" {
		cfg.Deploy.RemoteHost = "yourserver.com"
	}

	if cfg.Deploy.TargetDir == "" {
		cfg.Deploy.TargetDir = "/var/www/yourls"
	}

	return nil
}
