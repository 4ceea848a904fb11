package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_Defaults(t *testing.T) {
	assert.Empty(t, Default().Validate())
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"relative base url", func(c *Config) { c.Upstream.BaseURL = "api.imdbapi.dev" }, "upstream.base_url"},
		{"ftp base url", func(c *Config) { c.Upstream.BaseURL = "ftp://example.com" }, "upstream.base_url"},
		{"negative timeout", func(c *Config) { c.Upstream.Timeout = -1 }, "upstream.timeout"},
		{"page size too large", func(c *Config) { c.Upstream.PageSize = 500 }, "upstream.page_size"},
		{"page size negative", func(c *Config) { c.Upstream.PageSize = -1 }, "upstream.page_size"},
		{"no attempts", func(c *Config) { c.Upstream.RetryAttempts = -2 }, "upstream.retry_attempts"},
		{"negative retry delay", func(c *Config) { c.Upstream.RetryDelay = -1 }, "upstream.retry_delay"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"negative max size", func(c *Config) { c.Log.MaxSizeMB = -1 }, "log.max_size_mb"},
		{"negative backups", func(c *Config) { c.Log.MaxBackups = -1 }, "log.max_backups"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			errs := cfg.Validate()
			if assert.Len(t, errs, 1) {
				assert.True(t, strings.HasPrefix(errs[0], tt.field+":"), "got %q", errs[0])
			}
		})
	}
}
