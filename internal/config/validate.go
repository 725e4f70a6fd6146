package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the loaded config for required fields and safe values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}

	if cfg.Ingest.Interval <= 0 {
		return errors.New("ingest.interval must be positive")
	}
	if cfg.Ingest.CycleTimeout < 0 {
		return errors.New("ingest.cycle_timeout must not be negative")
	}

	if !cfg.Sources.Social.Enabled && !cfg.Sources.Darkweb.Enabled && !cfg.Sources.Mitre.Enabled {
		return errors.New("at least one source must be enabled")
	}

	if cfg.Sources.Social.Enabled {
		if err := validateURL("sources.social.base_url", cfg.Sources.Social.BaseURL); err != nil {
			return err
		}
		if cfg.Sources.Social.Limit <= 0 {
			return errors.New("sources.social.limit must be positive")
		}
	}
	if cfg.Sources.Mitre.Enabled {
		if err := validateURL("sources.mitre.url", cfg.Sources.Mitre.URL); err != nil {
			return err
		}
	}

	if strings.TrimSpace(cfg.Store.DataDir) == "" {
		return errors.New("store.data_dir must be set")
	}

	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s is not a valid URL: %q", field, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", field, u.Scheme)
	}
	return nil
}
