// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package config holds the small set of compiled-in defaults ebaf
// needs. There is no config file: the CLI contract is fixed to
// "<program> [INTERFACE]" and sets are mutated only by re-resolution,
// per spec. Most defaults may still be nudged with an environment
// variable for operational tuning.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every tunable default for a single ebaf process.
type Config struct {
	// ResolutionInterval is how often the resolver re-resolves every
	// registered domain and whitelist pattern.
	ResolutionInterval time.Duration
	// ResolutionSliceInterval bounds each sleep slice within a
	// resolver cycle so a shutdown signal is observed promptly.
	ResolutionSliceInterval time.Duration
	// ResolveTimeout caps a single domain's resolution call.
	ResolveTimeout time.Duration
	// ExportInterval is the stats-file rewrite cadence.
	ExportInterval time.Duration
	// BlockSetCapacity and AllowSetCapacity bound the two kernel maps.
	BlockSetCapacity uint32
	AllowSetCapacity uint32
	// RegistryCapacity bounds the number of distinct domains tracked.
	RegistryCapacity int
	// StatsDir is the directory stats files are written under.
	StatsDir string
	// JSONAddr and PrometheusAddr are the listen addresses for the
	// read-only JSON and Prometheus diagnostic endpoints; an empty
	// address disables that endpoint.
	JSONAddr       string
	PrometheusAddr string
}

// Default returns the compiled-in defaults, each overridable by its
// EBAF_* environment variable.
func Default() Config {
	c := Config{
		ResolutionInterval:      600 * time.Second,
		ResolutionSliceInterval: 1 * time.Second,
		ResolveTimeout:          5 * time.Second,
		ExportInterval:          2 * time.Second,
		BlockSetCapacity:        10000,
		AllowSetCapacity:        10000,
		RegistryCapacity:        10000,
		StatsDir:                os.TempDir(),
		JSONAddr:                "",
		PrometheusAddr:          "",
	}

	if v := envDuration("EBAF_RESOLUTION_INTERVAL"); v > 0 {
		c.ResolutionInterval = v
	}
	if v := envDuration("EBAF_EXPORT_INTERVAL"); v > 0 {
		c.ExportInterval = v
	}
	if v := envDuration("EBAF_RESOLVE_TIMEOUT"); v > 0 {
		c.ResolveTimeout = v
	}
	if v := envUint32("EBAF_BLOCK_SET_CAPACITY"); v > 0 {
		c.BlockSetCapacity = v
	}
	if v := envUint32("EBAF_ALLOW_SET_CAPACITY"); v > 0 {
		c.AllowSetCapacity = v
	}
	if v := os.Getenv("EBAF_STATS_DIR"); v != "" {
		c.StatsDir = v
	}
	if v := os.Getenv("EBAF_JSON_ADDR"); v != "" {
		c.JSONAddr = v
	}
	if v := os.Getenv("EBAF_PROMETHEUS_ADDR"); v != "" {
		c.PrometheusAddr = v
	}

	return c
}

func envDuration(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func envUint32(key string) uint32 {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0
	}
	return uint32(n)
}
