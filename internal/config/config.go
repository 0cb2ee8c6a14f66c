package config

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines service configuration. Values come from the environment,
// with an optional YAML file overlay pointed at by INGEST_CONFIG.
type Config struct {
	DatabaseURL     string `yaml:"database_url"`
	HTTPAddr        string `yaml:"http_addr"`
	AppName         string `yaml:"app_name"`
	ProvisionSecret string `yaml:"provision_secret"`
	JWTSecret       string `yaml:"jwt_secret"`
	PersistRejected bool   `yaml:"persist_rejected"`
}

// Load builds configuration from env and the optional config file.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:     getenvDefault("DATABASE_URL", os.Getenv("PG_DSN")),
		HTTPAddr:        getenvDefault("HTTP_ADDR", ":8080"),
		AppName:         getenvDefault("APP_NAME", "iot-ingest-cloud"),
		ProvisionSecret: getenvDefault("PROVISION_SECRET", "ABLE-SECRET"),
		JWTSecret:       getenvDefault("AUTH_JWT_SECRET", os.Getenv("JWT_SECRET")),
		PersistRejected: getenvBoolDefault("INGEST_PERSIST_REJECTED", true),
	}

	if path := os.Getenv("INGEST_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("config: DATABASE_URL or PG_DSN is required")
	}
	if cfg.ProvisionSecret == "" {
		return cfg, errors.New("config: PROVISION_SECRET is required")
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
