package config

import (
	"fmt"
	"net/url"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"text": true, "json": true,
}

// maxPageSize is the largest page the upstream serves.
const maxPageSize = 50

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	// Upstream validation
	if u, err := url.Parse(c.Upstream.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("upstream.base_url: must be an absolute http(s) URL, got %q", c.Upstream.BaseURL))
	}
	if c.Upstream.Timeout < 0 {
		errs = append(errs, fmt.Sprintf("upstream.timeout: must not be negative, got %s", c.Upstream.Timeout))
	}
	if c.Upstream.PageSize < 1 || c.Upstream.PageSize > maxPageSize {
		errs = append(errs, fmt.Sprintf("upstream.page_size: must be between 1 and %d, got %d", maxPageSize, c.Upstream.PageSize))
	}
	if c.Upstream.RetryAttempts < 1 {
		errs = append(errs, fmt.Sprintf("upstream.retry_attempts: must be at least 1, got %d", c.Upstream.RetryAttempts))
	}
	if c.Upstream.RetryDelay < 0 {
		errs = append(errs, fmt.Sprintf("upstream.retry_delay: must not be negative, got %s", c.Upstream.RetryDelay))
	}

	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}

	// Log validation
	if !validLogLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level: must be one of debug, info, warn, error; got %q", c.Log.Level))
	}
	if !validLogFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("log.format: must be one of text, json; got %q", c.Log.Format))
	}
	if c.Log.MaxSizeMB < 0 {
		errs = append(errs, fmt.Sprintf("log.max_size_mb: must not be negative, got %d", c.Log.MaxSizeMB))
	}
	if c.Log.MaxBackups < 0 {
		errs = append(errs, fmt.Sprintf("log.max_backups: must not be negative, got %d", c.Log.MaxBackups))
	}

	return errs
}
