package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	minProviderTimeout = time.Second
	maxProviderTimeout = 60 * time.Second
)

func (c *Config) Validate() error {
	var errs []error

	// App validation
	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}

	validModes := map[string]bool{"development": true, "production": true, "test": true}
	if !validModes[c.App.Mode] {
		errs = append(errs, fmt.Errorf("app.mode must be one of: development, production, test"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		errs = append(errs, fmt.Errorf("app.log_level must be one of: debug, info, warn, error"))
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required"))
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, errors.New("database.port must be between 1 and 65535"))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database.name is required"))
	}
	if c.Database.MaxConnections <= 0 {
		errs = append(errs, errors.New("database.max_connections must be positive"))
	}

	// Provider validation
	known := c.Providers.ByName()
	for name, p := range known {
		if !p.Enabled {
			continue
		}
		if p.Timeout < minProviderTimeout || p.Timeout > maxProviderTimeout {
			errs = append(errs, fmt.Errorf("providers.%s.timeout must be between %s and %s", name, minProviderTimeout, maxProviderTimeout))
		}
		if p.RetryAttempts < 0 {
			errs = append(errs, fmt.Errorf("providers.%s.retry_attempts must not be negative", name))
		}
	}

	// Merge validation
	if len(c.Merge.Priority) == 0 {
		errs = append(errs, errors.New("merge.priority must list at least one provider"))
	}
	seen := make(map[string]bool)
	for _, name := range c.Merge.Priority {
		if _, ok := known[name]; !ok {
			errs = append(errs, fmt.Errorf("merge.priority names unknown provider %q", name))
		}
		if seen[name] {
			errs = append(errs, fmt.Errorf("merge.priority lists %q twice", name))
		}
		seen[name] = true
	}

	// Sync validation
	if c.Sync.Workers <= 0 {
		errs = append(errs, errors.New("sync.workers must be positive"))
	}
	if c.Sync.Workers > c.Database.MaxConnections && c.Database.MaxConnections > 0 {
		errs = append(errs, errors.New("sync.workers must not exceed database.max_connections"))
	}
	if c.Sync.SampleLimit <= 0 {
		errs = append(errs, errors.New("sync.sample_limit must be positive"))
	}
	if c.App.Mode == "production" && c.Sync.Secret == "" {
		errs = append(errs, errors.New("sync.secret is required in production"))
	}

	// Index validation
	if c.Index.MidRangeMin >= c.Index.MidRangeMax {
		errs = append(errs, errors.New("index.mid_range_min must be below index.mid_range_max"))
	}
	for name, v := range map[string]float64{
		"index.base":              c.Index.Base,
		"index.overall_divisor":   c.Index.OverallDivisor,
		"index.high_end_divisor":  c.Index.HighEndDivisor,
		"index.mid_range_divisor": c.Index.MidRangeDivisor,
		"index.brand_divisor":     c.Index.BrandDivisor,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}

	// API validation
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, errors.New("api.port must be between 1 and 65535"))
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, errors.New("api.rate_limit must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %w", errors.Join(errs...))
	}

	return nil
}
