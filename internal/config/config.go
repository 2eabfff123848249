package config

import "time"

// Config is the root configuration for habitual.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Redis    RedisConfig    `yaml:"redis"`
	Engine   EngineConfig   `yaml:"engine"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Tunnel   TunnelConfig   `yaml:"tunnel"`
}

type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

type AuthConfig struct {
	APITokens []APITokenEntry `yaml:"api_tokens"`
}

// APITokenEntry is one accepted bearer token, stored as a bcrypt hash.
type APITokenEntry struct {
	Name      string `yaml:"name"`
	TokenHash string `yaml:"token_hash"`
}

type DatabaseConfig struct {
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// Retention returns how long activity log entries are kept. Zero keeps them forever.
func (d DatabaseConfig) Retention() time.Duration {
	return time.Duration(d.RetentionDays) * 24 * time.Hour
}

// Storage backends for the habit collection.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type StorageConfig struct {
	Backend string `yaml:"backend"`
	Slot    string `yaml:"slot"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type EngineConfig struct {
	// Timezone is an IANA name deciding calendar days; empty means the host zone.
	Timezone          string `yaml:"timezone"`
	DefaultWindowDays int    `yaml:"default_window_days"`
}

// Location resolves Timezone. Call after validation.
func (e EngineConfig) Location() *time.Location {
	if e.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TunnelConfig exposes the server through an ngrok endpoint.
type TunnelConfig struct {
	Enabled   bool   `yaml:"enabled"`
	AuthToken string `yaml:"authtoken"`
	Domain    string `yaml:"domain"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "127.0.0.1",
			Port:     8421,
			LogLevel: "info",
		},
		Database: DatabaseConfig{
			Path:          "~/.config/habitual/habitual.db",
			RetentionDays: 365,
		},
		Storage: StorageConfig{
			Backend: BackendSQLite,
			Slot:    "habits",
		},
		Redis: RedisConfig{
			Addr:   "127.0.0.1:6379",
			Prefix: "habitual:",
		},
		Engine: EngineConfig{
			DefaultWindowDays: 30,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}
