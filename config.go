package main

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type config struct {
	HTTPAddr      string `yaml:"http_addr"`
	DatabaseURL   string `yaml:"database_url"`
	SpoolDir      string `yaml:"spool_dir"`
	IngestWorkers int    `yaml:"ingest_workers"`
	JWTSecret     string `yaml:"jwt_secret"`
}

// loadConfig reads environment defaults, then overlays the yaml file
// named by CATALOG_CONFIG when set. DatabaseURL and JWTSecret are
// optional: without a database the catalog is memory-only, without a
// secret the API is open.
func loadConfig() (config, error) {
	cfg := config{
		HTTPAddr:      getenvDefault("HTTP_ADDR", ":8080"),
		DatabaseURL:   getenvDefault("DATABASE_URL", os.Getenv("PG_DSN")),
		SpoolDir:      os.Getenv("CATALOG_SPOOL_DIR"),
		IngestWorkers: getenvIntDefault("CATALOG_INGEST_WORKERS", 4),
		JWTSecret:     getenvDefault("AUTH_JWT_SECRET", os.Getenv("JWT_SECRET")),
	}

	if path := os.Getenv("CATALOG_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.IngestWorkers < 1 {
		cfg.IngestWorkers = 1
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

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
