package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Database DatabaseConfig
	HR       HRConfig
	Matcher  MatcherConfig
	Audit    AuditConfig
	LogLevel string
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL; empty selects the in-memory backend
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// HRConfig points at the surrounding HR application's database, used
// only to validate that an identity refers to a real employee before
// enrollment. Optional; when unset the check is skipped.
type HRConfig struct {
	DatabaseURL string // MySQL DSN, e.g. hr:hr@tcp(mariadb:3306)/hr
}

type MatcherConfig struct {
	Threshold    float64 `yaml:"threshold"`
	SignatureDim int     `yaml:"signature_dim"`
}

type AuditConfig struct {
	QueryLimit int `yaml:"query_limit"`
}

// defaults mirrors the embedded defaults.yaml layout.
type defaults struct {
	Matcher MatcherConfig `yaml:"matcher"`
	Audit   AuditConfig   `yaml:"audit"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func Load() *Config {
	var d defaults
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		// Embedded file, so this only fires on a broken build.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		HR: HRConfig{
			DatabaseURL: os.Getenv("HR_DATABASE_URL"),
		},
		Matcher: MatcherConfig{
			Threshold:    envFloat("MATCH_THRESHOLD", d.Matcher.Threshold),
			SignatureDim: envInt("SIGNATURE_DIM", d.Matcher.SignatureDim),
		},
		Audit: AuditConfig{
			QueryLimit: envInt("AUDIT_QUERY_LIMIT", d.Audit.QueryLimit),
		},
		LogLevel: logLevel,
	}
}
