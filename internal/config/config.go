package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Store    StoreConfig
	Match    MatchConfig
	Web      WebConfig
	Database DatabaseConfig
	Audit    AuditConfig
}

type StoreConfig struct {
	Path string `yaml:"path"` // identity store JSON file (default ./face_data.json)
}

type MatchConfig struct {
	Threshold float64 `yaml:"threshold"` // cosine similarity a match must strictly exceed
}

type WebConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	APIToken string `yaml:"api_token"` // empty disables token auth
}

type DatabaseConfig struct {
	URL           string `yaml:"url"`             // PostgreSQL connection URL; empty selects the JSON file store
	MaxOpenConns  int    `yaml:"max_open_conns"`  // default 25
	MaxIdleConns  int    `yaml:"max_idle_conns"`  // default 5
	EmbeddingDim  int    `yaml:"embedding_dim"`   // pgvector column dimension (default 512)
	HNSWIndexPath string `yaml:"hnsw_index_path"` // persist the serve-path HNSW index (optional)
}

type AuditConfig struct {
	LogPath string `yaml:"log_path"` // JSONL decision log; empty disables auditing
}

// fileConfig is the optional YAML config file shape (FACEGATE_CONFIG).
type fileConfig struct {
	Store    StoreConfig    `yaml:"store"`
	Match    MatchConfig    `yaml:"match"`
	Web      WebConfig      `yaml:"web"`
	Database DatabaseConfig `yaml:"database"`
	Audit    AuditConfig    `yaml:"audit"`
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

// Load assembles configuration from defaults, the optional YAML file named
// by FACEGATE_CONFIG, and environment variables, in increasing precedence.
func Load() (*Config, error) {
	cfg := &Config{
		Store: StoreConfig{Path: "./face_data.json"},
		Match: MatchConfig{Threshold: 0.9},
		Web:   WebConfig{Host: "0.0.0.0", Port: 8080},
		Database: DatabaseConfig{
			MaxOpenConns: 25,
			MaxIdleConns: 5,
			EmbeddingDim: 512,
		},
	}

	if path := os.Getenv("FACEGATE_CONFIG"); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

// applyFile overlays non-zero values from a YAML config file.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if fc.Store.Path != "" {
		cfg.Store.Path = fc.Store.Path
	}
	if fc.Match.Threshold > 0 {
		cfg.Match.Threshold = fc.Match.Threshold
	}
	if fc.Web.Host != "" {
		cfg.Web.Host = fc.Web.Host
	}
	if fc.Web.Port > 0 {
		cfg.Web.Port = fc.Web.Port
	}
	if fc.Web.APIToken != "" {
		cfg.Web.APIToken = fc.Web.APIToken
	}
	if fc.Database.URL != "" {
		cfg.Database.URL = fc.Database.URL
	}
	if fc.Database.MaxOpenConns > 0 {
		cfg.Database.MaxOpenConns = fc.Database.MaxOpenConns
	}
	if fc.Database.MaxIdleConns > 0 {
		cfg.Database.MaxIdleConns = fc.Database.MaxIdleConns
	}
	if fc.Database.EmbeddingDim > 0 {
		cfg.Database.EmbeddingDim = fc.Database.EmbeddingDim
	}
	if fc.Database.HNSWIndexPath != "" {
		cfg.Database.HNSWIndexPath = fc.Database.HNSWIndexPath
	}
	if fc.Audit.LogPath != "" {
		cfg.Audit.LogPath = fc.Audit.LogPath
	}
	return nil
}

// applyEnv overlays environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("FACEGATE_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	cfg.Match.Threshold = envFloat("FACEGATE_THRESHOLD", cfg.Match.Threshold)

	if v := os.Getenv("WEB_HOST"); v != "" {
		cfg.Web.Host = v
	}
	cfg.Web.Port = envInt("WEB_PORT", cfg.Web.Port)
	if v := os.Getenv("FACEGATE_API_TOKEN"); v != "" {
		cfg.Web.APIToken = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	cfg.Database.MaxOpenConns = envInt("DATABASE_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = envInt("DATABASE_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.EmbeddingDim = envInt("EMBEDDING_DIM", cfg.Database.EmbeddingDim)
	if v := os.Getenv("FACEGATE_HNSW_INDEX_PATH"); v != "" {
		cfg.Database.HNSWIndexPath = v
	}

	if v := os.Getenv("FACEGATE_AUDIT_LOG"); v != "" {
		cfg.Audit.LogPath = v
	}
}
