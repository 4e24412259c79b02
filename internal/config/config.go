// Package config loads run settings from the environment.
//
// Every key lives under the HUBETL_ prefix. The first underscore after the
// prefix separates the section from the field, so HUBETL_DB_ADMIN_DATABASE
// sets db.admin_database. HAPIKEY is honoured for the API key, and a .env
// file in the working directory is loaded before anything is read.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/TheF1rstPancake/hubspot/internal/storage"
)

// Prefix is the environment prefix for all settings.
const Prefix = "HUBETL_"

// APIKeyVar is the conventional variable holding the HubSpot API key.
const APIKeyVar = "HAPIKEY"

// Config is the root configuration.
type Config struct {
	HubSpot HubSpot `koanf:"hubspot" validate:"required"`
	DB      DB      `koanf:"db" validate:"required"`
	Log     Log     `koanf:"log" validate:"required"`
	Metrics Metrics `koanf:"metrics"`
}

type HubSpot struct {
	BaseURL   string        `koanf:"base_url" validate:"required,url"`
	APIKey    string        `koanf:"api_key" validate:"required"`
	Timeout   time.Duration `koanf:"timeout"`
	UserAgent string        `koanf:"user_agent"`
}

// DB describes both the admin connection used to create the database and
// the target connection the data is written through.
type DB struct {
	Kind          string `koanf:"kind" validate:"required,oneof=mysql postgres mssql sqlite"`
	Host          string `koanf:"host"`
	Port          int    `koanf:"port" validate:"gte=0,lte=65535"`
	User          string `koanf:"user"`
	Password      string `koanf:"password"`
	AdminDatabase string `koanf:"admin_database"`
	Database      string `koanf:"database" validate:"required"`
	Table         string `koanf:"table" validate:"required"`
	// Path is the database file for sqlite.
	Path string `koanf:"path" validate:"required_if=Kind sqlite"`
}

type Log struct {
	Level  string `koanf:"level" validate:"required,oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"required,oneof=console json"`
}

type Metrics struct {
	Backend          string `koanf:"backend" validate:"oneof=none pushgateway datadog"`
	Job              string `koanf:"job"`
	PushgatewayURL   string `koanf:"pushgateway_url" validate:"required_if=Backend pushgateway"`
	DatadogAddr      string `koanf:"datadog_addr" validate:"required_if=Backend datadog"`
	DatadogNamespace string `koanf:"datadog_namespace"`
}

// Default returns the settings used when nothing is set: a local MySQL
// server as root with an empty password and the demo API key.
func Default() Config {
	return Config{
		HubSpot: HubSpot{
			BaseURL: "https://api.hubapi.com",
			APIKey:  "demo",
			Timeout: 30 * time.Second,
		},
		DB: DB{
			Kind:          "mysql",
			Host:          "localhost",
			User:          "root",
			AdminDatabase: "mysql",
			Database:      "hubspot",
			Table:         "engagements",
		},
		Log:     Log{Level: "info", Format: "console"},
		Metrics: Metrics{Backend: "none", Job: "hubetl"},
	}
}

// Load reads the environment over Default and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.Provider(APIKeyVar, ".", func(s string) string {
		if s == APIKeyVar {
			return "hubspot.api_key"
		}
		return ""
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load %s: %w", APIKeyVar, err)
	}
	if err := k.Load(env.Provider(Prefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.DB.Kind = strings.ToLower(cfg.DB.Kind)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// envKey maps HUBETL_DB_ADMIN_DATABASE to db.admin_database.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, Prefix))
	return strings.Replace(s, "_", ".", 1)
}

// Conn returns the storage connection settings.
func (d DB) Conn() storage.ConnConfig {
	return storage.ConnConfig{
		Kind:     d.Kind,
		Host:     d.Host,
		Port:     d.Port,
		User:     d.User,
		Password: d.Password,
		Path:     d.Path,
	}
}
