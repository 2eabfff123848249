package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// searchPaths returns the ordered list of config file locations to try.
func searchPaths() []string {
	paths := []string{
		"/etc/habitual/habitual.yaml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "habitual", "habitual.yaml"))
	}

	paths = append(paths, "habitual.yaml")

	if envPath := os.Getenv("HABITUAL_CONFIG"); envPath != "" {
		paths = append(paths, envPath)
	}

	return paths
}

// Load reads configuration from YAML files and environment variables.
// Files are loaded in order (each overrides the previous):
// /etc/habitual/habitual.yaml < ~/.config/habitual/habitual.yaml < ./habitual.yaml < $HABITUAL_CONFIG
func Load() (*Config, error) {
	cfg := Defaults()

	for _, path := range searchPaths() {
		if err := loadFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	cfg := Defaults()

	if err := loadFile(cfg, path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables have higher priority than YAML config values.
func applyEnvOverrides(cfg *Config) {
	if pw := os.Getenv("HABITUAL_REDIS_PASSWORD"); pw != "" {
		cfg.Redis.Password = pw
	}
	if addr := os.Getenv("HABITUAL_REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if tok := os.Getenv("HABITUAL_NGROK_AUTHTOKEN"); tok != "" {
		cfg.Tunnel.AuthToken = tok
	}
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted config search paths
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	slog.Debug("loading config file", "path", path)

	expanded := expandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	return nil
}

// envRef matches ${VAR} references. Bare $VAR is left alone so bcrypt
// hashes ("$2a$10$...") survive expansion.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(m string) string {
		return os.Getenv(m[2 : len(m)-1])
	})
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	if cfg.Server.Host == "0.0.0.0" {
		return fmt.Errorf("server.host must not be 0.0.0.0, habitual listens on localhost only (put a reverse proxy in front for external access)")
	}

	switch cfg.Storage.Backend {
	case BackendSQLite:
	case BackendRedis:
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required when storage.backend is %q", BackendRedis)
		}
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendSQLite, BackendRedis, cfg.Storage.Backend)
	}

	if cfg.Storage.Slot == "" {
		return fmt.Errorf("storage.slot must not be empty")
	}

	if cfg.Engine.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Engine.Timezone); err != nil {
			return fmt.Errorf("engine.timezone %q: %w", cfg.Engine.Timezone, err)
		}
	}

	if cfg.Engine.DefaultWindowDays < 1 {
		return fmt.Errorf("engine.default_window_days must be at least 1")
	}

	if cfg.Database.RetentionDays < 0 {
		return fmt.Errorf("database.retention_days must not be negative")
	}

	for i, tok := range cfg.Auth.APITokens {
		if tok.Name == "" || tok.TokenHash == "" {
			return fmt.Errorf("auth.api_tokens[%d] needs both name and token_hash", i)
		}
	}

	if cfg.Tunnel.Enabled {
		if cfg.Tunnel.AuthToken == "" {
			return fmt.Errorf("tunnel.authtoken is required when tunnel.enabled is true (or set HABITUAL_NGROK_AUTHTOKEN)")
		}
		if len(cfg.Auth.APITokens) == 0 {
			return fmt.Errorf("tunnel.enabled requires at least one auth.api_tokens entry")
		}
	}

	cfg.Database.Path = ExpandHome(cfg.Database.Path)

	return nil
}
