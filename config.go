package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds server settings. Values come from the YAML config file when
// present, with DRP_* environment variables taking precedence over both the
// file and the defaults.
type Config struct {
	Port         int    `yaml:"port"`
	DBPath       string `yaml:"db_path"`
	CompanyName  string `yaml:"company_name"`
	CompanyEmail string `yaml:"company_email"`
	TokenSecret  string `yaml:"token_secret"`
	TokenTTLHrs  int    `yaml:"token_ttl_hours"`
}

func defaultConfig() Config {
	return Config{
		Port:         9000,
		DBPath:       "drp.db",
		CompanyName:  "Your Company",
		CompanyEmail: "admin@example.com",
		TokenSecret:  "change-me-in-production",
		TokenTTLHrs:  24 * 30,
	}
}

// loadConfig reads the YAML file at path (missing file is fine) and applies
// environment overrides.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if v := os.Getenv("DRP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("DRP_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("DRP_COMPANY_NAME"); v != "" {
		cfg.CompanyName = v
	}
	if v := os.Getenv("DRP_COMPANY_EMAIL"); v != "" {
		cfg.CompanyEmail = v
	}
	if v := os.Getenv("DRP_TOKEN_SECRET"); v != "" {
		cfg.TokenSecret = v
	}
	return cfg, nil
}
