// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateCodeforces,
		c.validateSync,
		c.validateNotify,
		c.validateLogging,
	}

	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateCodeforces() error {
	if c.Codeforces.BaseURL == "" {
		return fmt.Errorf("codeforces.base_url is required")
	}

	u, err := url.Parse(c.Codeforces.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("codeforces.base_url must be a valid http(s) URL: %q", c.Codeforces.BaseURL)
	}

	if c.Codeforces.RequestTimeout <= 0 {
		return fmt.Errorf("codeforces.request_timeout must be positive")
	}
	if c.Codeforces.SubmissionCount < 1 {
		return fmt.Errorf("codeforces.submission_count must be at least 1")
	}
	if c.Codeforces.RatePerSecond <= 0 {
		return fmt.Errorf("codeforces.rate_per_second must be positive")
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync.interval must be positive")
	}
	if c.Sync.Workers < 1 {
		return fmt.Errorf("sync.workers must be at least 1")
	}
	if c.Sync.RecentWindow < 0 {
		return fmt.Errorf("sync.recent_window must not be negative")
	}
	if c.Sync.InactivityThreshold <= 0 {
		return fmt.Errorf("sync.inactivity_threshold must be positive")
	}
	return nil
}

func (c *Config) validateNotify() error {
	if !c.Notify.Enabled {
		return nil
	}

	if c.Notify.SMTPHost == "" {
		return fmt.Errorf("notify.smtp_host is required when notify.enabled=true")
	}
	if c.Notify.SMTPPort < 1 || c.Notify.SMTPPort > 65535 {
		return fmt.Errorf("notify.smtp_port must be between 1 and 65535, got %d", c.Notify.SMTPPort)
	}
	if c.Notify.From == "" || !strings.Contains(c.Notify.From, "@") {
		return fmt.Errorf("notify.from must be a valid sender address")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled", "":
	default:
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console", "":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
