// codetrack - Competitive Programming Profile Tracker
// Copyright 2026 P. Shanbhag (pshanbhag)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pshanbhag/codetrack

// Package config provides layered configuration for codetrack using Koanf:
// struct defaults, then an optional YAML file, then CODETRACK_-prefixed
// environment variables.
package config

import "time"

// Config is the root configuration for the codetrack server.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Codeforces CodeforcesConfig `koanf:"codeforces"`
	Sync       SyncConfig       `koanf:"sync"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Storage    StorageConfig    `koanf:"storage"`
	Notify     NotifyConfig     `koanf:"notify"`
	API        APIConfig        `koanf:"api"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// CodeforcesConfig holds settings for the upstream Codeforces API.
type CodeforcesConfig struct {
	BaseURL string `koanf:"base_url"`

	// RequestTimeout bounds each individual API call.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// SubmissionCount bounds the user.status fetch per sync.
	SubmissionCount int `koanf:"submission_count"`

	// RatePerSecond and RateBurst throttle all outbound calls; the
	// Codeforces API is shared and globally rate limited.
	RatePerSecond float64 `koanf:"rate_per_second"`
	RateBurst     int     `koanf:"rate_burst"`
}

// SyncConfig holds orchestrator settings.
type SyncConfig struct {
	// Interval between scheduled batch syncs.
	Interval time.Duration `koanf:"interval"`

	// InitialDelay before the first scheduled batch after startup.
	InitialDelay time.Duration `koanf:"initial_delay"`

	// Workers bounds batch concurrency across profiles.
	Workers int `koanf:"workers"`

	// BatchTimeout is the overall deadline for one batch run.
	BatchTimeout time.Duration `koanf:"batch_timeout"`

	// RecentWindow is how many submissions (source order) are retained
	// verbatim per profile.
	RecentWindow int `koanf:"recent_window"`

	// InactivityThreshold is how long without a submission before a
	// reminder is sent.
	InactivityThreshold time.Duration `koanf:"inactivity_threshold"`
}

// CatalogConfig holds problem-catalog cache settings.
type CatalogConfig struct {
	// TTL for the recommendation engine's catalog snapshot.
	TTL time.Duration `koanf:"ttl"`

	// PassthroughTTL for the API's problemset passthrough cache.
	PassthroughTTL time.Duration `koanf:"passthrough_ttl"`

	// WarmOnStartup triggers a background refresh when the server starts.
	WarmOnStartup bool `koanf:"warm_on_startup"`
}

// StorageConfig holds profile store settings.
type StorageConfig struct {
	// Path to the Badger data directory. Empty selects the in-memory store.
	Path string `koanf:"path"`
}

// NotifyConfig holds inactivity reminder delivery settings.
type NotifyConfig struct {
	Enabled  bool   `koanf:"enabled"`
	SMTPHost string `koanf:"smtp_host"`
	SMTPPort int    `koanf:"smtp_port"`
	UseTLS   bool   `koanf:"use_tls"`
	From     string `koanf:"from"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// APIConfig holds HTTP API behavior settings.
type APIConfig struct {
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    3858,
			Timeout: 30 * time.Second,
		},
		Codeforces: CodeforcesConfig{
			BaseURL:         "https://codeforces.com/api",
			RequestTimeout:  10 * time.Second,
			SubmissionCount: 1000,
			RatePerSecond:   1,
			RateBurst:       2,
		},
		Sync: SyncConfig{
			Interval:            24 * time.Hour,
			InitialDelay:        time.Minute,
			Workers:             3,
			BatchTimeout:        10 * time.Minute,
			RecentWindow:        10,
			InactivityThreshold: 7 * 24 * time.Hour,
		},
		Catalog: CatalogConfig{
			TTL:            24 * time.Hour,
			PassthroughTTL: time.Hour,
			WarmOnStartup:  true,
		},
		Storage: StorageConfig{
			Path: "/data/codetrack",
		},
		Notify: NotifyConfig{
			Enabled:  false,
			SMTPPort: 587,
			UseTLS:   true,
		},
		API: APIConfig{
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			CORSOrigins:       []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
