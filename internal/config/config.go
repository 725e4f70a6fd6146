// Package config loads the threatlens YAML configuration.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Sources   SourcesConfig   `yaml:"sources"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Enrich    EnrichConfig    `yaml:"enrich"`
	Store     StoreConfig     `yaml:"store"`
	Dedup     DedupConfig     `yaml:"dedup"`
}

type ServerConfig struct {
	Addr              string        `yaml:"addr"` // HTTP listen address, e.g. ":8080"
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	MaxUploadBytes    int64         `yaml:"max_upload_bytes"`
}

type IngestConfig struct {
	// Interval between background cycles.
	Interval time.Duration `yaml:"interval"`
	// CycleTimeout bounds one full cycle end to end. Zero disables the
	// deadline.
	CycleTimeout time.Duration `yaml:"cycle_timeout"`
	// CountRecordFailures surfaces per-record enrichment failures in the
	// run status instead of only logging them.
	CountRecordFailures bool `yaml:"count_record_failures"`
}

type SourcesConfig struct {
	Social  SocialConfig  `yaml:"social"`
	Darkweb DarkwebConfig `yaml:"darkweb"`
	Mitre   MitreConfig   `yaml:"mitre"`
}

type SocialConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Query   string `yaml:"query"`
	Limit   int    `yaml:"limit"`
	// BearerTokenEnv names the environment variable holding the API
	// credential. An unset variable degrades the adapter to its cached or
	// empty result, it never fails the process.
	BearerTokenEnv string        `yaml:"bearer_token_env"`
	Timeout        time.Duration `yaml:"timeout"`
}

type DarkwebConfig struct {
	Enabled bool `yaml:"enabled"`
}

type MitreConfig struct {
	Enabled bool          `yaml:"enabled"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type NormalizeConfig struct {
	// TranslateURL points at a LibreTranslate-compatible endpoint. Empty
	// disables translation; non-English records pass through annotated.
	TranslateURL     string        `yaml:"translate_url"`
	TranslateTimeout time.Duration `yaml:"translate_timeout"`
}

type EnrichConfig struct {
	// BundleDir points at an ONNX model bundle (classifier and/or severity
	// sub-directories). Empty or missing directories fall back to the
	// keyword stages.
	BundleDir string `yaml:"bundle_dir"`
	SeqLen    int    `yaml:"seq_len"`
}

type StoreConfig struct {
	// DataDir holds threat_feed.jsonl and ingest_status.json.
	DataDir string `yaml:"data_dir"`
	// FeedMaxReadBytes caps how much of the feed file ReadLatest scans.
	FeedMaxReadBytes int64 `yaml:"feed_max_read_bytes"`
}

type DedupConfig struct {
	Enabled bool          `yaml:"enabled"`
	MaxKeys int           `yaml:"max_keys"`
	TTL     time.Duration `yaml:"ttl"`
}

// Load reads configuration from a YAML file.
// If the file doesn't exist, it returns the default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadHeaderTimeout <= 0 {
		cfg.Server.ReadHeaderTimeout = 10 * time.Second
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.IdleTimeout <= 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		cfg.Server.MaxUploadBytes = 10 << 20
	}

	if cfg.Ingest.Interval <= 0 {
		cfg.Ingest.Interval = 10 * time.Minute
	}

	if cfg.Sources.Social.BaseURL == "" {
		cfg.Sources.Social.BaseURL = "https://api.twitter.com/2/tweets/search/recent"
	}
	if cfg.Sources.Social.Query == "" {
		cfg.Sources.Social.Query = "cybersecurity threat"
	}
	if cfg.Sources.Social.Limit <= 0 {
		cfg.Sources.Social.Limit = 10
	}
	if cfg.Sources.Social.BearerTokenEnv == "" {
		cfg.Sources.Social.BearerTokenEnv = "SOCIAL_BEARER_TOKEN"
	}
	if cfg.Sources.Social.Timeout <= 0 {
		cfg.Sources.Social.Timeout = 10 * time.Second
	}
	if cfg.Sources.Mitre.URL == "" {
		cfg.Sources.Mitre.URL = "https://raw.githubusercontent.com/mitre/cti/master/enterprise-attack/enterprise-attack.json"
	}
	if cfg.Sources.Mitre.Timeout <= 0 {
		cfg.Sources.Mitre.Timeout = 10 * time.Second
	}
	// Sources default on; a fresh install should produce a feed without any
	// configuration beyond credentials.
	if !cfg.Sources.Social.Enabled && !cfg.Sources.Darkweb.Enabled && !cfg.Sources.Mitre.Enabled {
		cfg.Sources.Social.Enabled = true
		cfg.Sources.Darkweb.Enabled = true
		cfg.Sources.Mitre.Enabled = true
	}

	if cfg.Normalize.TranslateTimeout <= 0 {
		cfg.Normalize.TranslateTimeout = 10 * time.Second
	}

	if cfg.Enrich.SeqLen <= 0 {
		cfg.Enrich.SeqLen = 256
	}

	if cfg.Store.DataDir == "" {
		cfg.Store.DataDir = "data"
	}
	if cfg.Store.FeedMaxReadBytes <= 0 {
		cfg.Store.FeedMaxReadBytes = 64 << 20
	}

	if cfg.Dedup.MaxKeys <= 0 {
		cfg.Dedup.MaxKeys = 100000
	}
	if cfg.Dedup.TTL <= 0 {
		cfg.Dedup.TTL = 24 * time.Hour
	}
}
