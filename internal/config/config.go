// Package config manages disk and keyring state for notioncms profiles and loads runtime settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

const (
	serviceName          = "notioncms"
	defaultNotionVersion = "2022-06-28"

	envPrefix   = "NOTIONCMS"
	tokenEnvVar = envPrefix + "_TOKEN"

	defaultCacheTTLSeconds = 300
	defaultLogLevel        = "info"

	dirPermissions  = 0o700
	filePermissions = 0o600
)

// DefaultNotionVersion exposes the API version we pin to unless the user overrides it.
func DefaultNotionVersion() string {
	return defaultNotionVersion
}

// configDir returns the directory where we persist structured configuration.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "notioncms"), nil
}

// ensureConfigDir ensures the configuration directory exists with restricted permissions.
func ensureConfigDir() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return dir, nil
}

// SaveToken stores the integration token for the provided profile in the OS keyring.
// It also records the Notion API version alongside the credential metadata.
func SaveToken(profile, token, version string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token cannot be empty")
	}
	if profile == "" {
		return errors.New("profile name cannot be empty")
	}
	if version == "" {
		version = defaultNotionVersion
	}

	if err := keyring.Set(serviceName, profile, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if err := SaveVersion(profile, version); err != nil {
		return err
	}
	return nil
}

// SaveVersion persists the target Notion API version for a profile.
func SaveVersion(profile, version string) error {
	if profile == "" {
		return errors.New("profile name cannot be empty")
	}
	if version == "" {
		version = defaultNotionVersion
	}

	dir, err := ensureConfigDir()
	if err != nil {
		return err
	}

	cfg := viper.New()
	configPath := filepath.Join(dir, "config.yaml")
	cfg.SetConfigFile(configPath)
	readErr := cfg.ReadInConfig()
	if readErr != nil && !isConfigNotFound(readErr) {
		return fmt.Errorf("read config: %w", readErr)
	}

	key := fmt.Sprintf("profiles.%s.notion_version", profile)
	cfg.Set(key, version)

	if err := cfg.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Chmod(configPath, filePermissions); err != nil {
		return fmt.Errorf("restrict config permissions: %w", err)
	}
	return nil
}

// LoadAuth returns the token and Notion API version for a profile. NOTIONCMS_TOKEN, when set,
// takes precedence over the keyring.
func LoadAuth(profile string) (token, notionVersion string, err error) {
	if profile == "" {
		return "", "", errors.New("profile name cannot be empty")
	}

	if envToken := strings.TrimSpace(os.Getenv(tokenEnvVar)); envToken != "" {
		ver, err := LoadVersion(profile)
		if err != nil {
			return "", "", err
		}
		return envToken, ver, nil
	}

	tok, err := keyring.Get(serviceName, profile)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", "", fmt.Errorf("load token: no stored credentials for profile %q", profile)
		}
		return "", "", fmt.Errorf("load token: %w", err)
	}

	ver, err := LoadVersion(profile)
	if err != nil {
		return "", "", err
	}
	return tok, ver, nil
}

// LoadVersion fetches the configured Notion API version for a profile, falling back to the default.
func LoadVersion(profile string) (string, error) {
	if profile == "" {
		return "", errors.New("profile name cannot be empty")
	}

	dir, err := ensureConfigDir()
	if err != nil {
		return "", err
	}

	cfg := viper.New()
	configPath := filepath.Join(dir, "config.yaml")
	cfg.SetConfigFile(configPath)
	readErr := cfg.ReadInConfig()
	if readErr != nil {
		if isConfigNotFound(readErr) {
			return defaultNotionVersion, nil
		}
		return "", fmt.Errorf("read config: %w", readErr)
	}

	key := fmt.Sprintf("profiles.%s.notion_version", profile)
	ver := cfg.GetString(key)
	if ver == "" {
		return defaultNotionVersion, nil
	}
	return ver, nil
}

// Settings is the runtime configuration of the content pipeline for one profile.
type Settings struct {
	Profile           string
	NotionVersion     string
	DatabaseID        string
	WebhookSecret     string
	LogLevel          string
	CacheTTL          time.Duration
	RequestsPerSecond float64
	CacheEnabled      bool
	LogDevelopment    bool
	Retries           bool
}

// Load reads settings from configFile, or the default config.yaml when configFile is empty.
// A missing file yields the defaults. NOTIONCMS_-prefixed environment variables override file
// values, with dots in keys replaced by underscores (NOTIONCMS_CACHE_TTL).
func Load(profile, configFile string) (Settings, error) {
	if profile == "" {
		return Settings{}, errors.New("profile name cannot be empty")
	}

	cfg := viper.New()
	cfg.SetDefault("database_id", "")
	cfg.SetDefault("cache.enabled", true)
	cfg.SetDefault("cache.ttl", defaultCacheTTLSeconds)
	cfg.SetDefault("webhook.secret", "")
	cfg.SetDefault("log.level", defaultLogLevel)
	cfg.SetDefault("log.development", false)
	cfg.SetDefault("notion.retries", false)
	cfg.SetDefault("notion.requests_per_second", 0)
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	if configFile == "" {
		dir, err := configDir()
		if err != nil {
			return Settings{}, err
		}
		configFile = filepath.Join(dir, "config.yaml")
	}
	cfg.SetConfigFile(configFile)
	if err := cfg.ReadInConfig(); err != nil && !isConfigNotFound(err) {
		return Settings{}, fmt.Errorf("read config: %w", err)
	}

	version := cfg.GetString(fmt.Sprintf("profiles.%s.notion_version", profile))
	if version == "" {
		version = defaultNotionVersion
	}

	ttl := cfg.GetInt("cache.ttl")
	if ttl < 0 {
		return Settings{}, fmt.Errorf("cache.ttl must not be negative, got %d", ttl)
	}
	rps := cfg.GetFloat64("notion.requests_per_second")
	if rps < 0 {
		return Settings{}, fmt.Errorf("notion.requests_per_second must not be negative, got %v", rps)
	}

	return Settings{
		Profile:           profile,
		NotionVersion:     version,
		DatabaseID:        cfg.GetString("database_id"),
		WebhookSecret:     cfg.GetString("webhook.secret"),
		LogLevel:          cfg.GetString("log.level"),
		CacheTTL:          time.Duration(ttl) * time.Second,
		RequestsPerSecond: rps,
		CacheEnabled:      cfg.GetBool("cache.enabled"),
		LogDevelopment:    cfg.GetBool("log.development"),
		Retries:           cfg.GetBool("notion.retries"),
	}, nil
}

func isConfigNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nf viper.ConfigFileNotFoundError
	if errors.As(err, &nf) {
		return true
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return true
	}
	return errors.Is(err, os.ErrNotExist)
}
