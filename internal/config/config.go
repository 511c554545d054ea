// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

// Package config loads CineGraph configuration from layered sources:
// built-in defaults, an optional YAML file, and environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the CineGraph server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	API       APIConfig       `koanf:"api"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
	Recommend RecommendConfig `koanf:"recommend"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file location. ":memory:" runs in-memory.
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB memory usage (e.g. "1GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads sets DuckDB's thread count. 0 uses the runtime default.
	Threads int `koanf:"threads"`

	// QueryTimeout bounds individual data-loading queries.
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// APIConfig holds API behavior settings.
type APIConfig struct {
	// Partitions is the set of catalog partitions the API accepts.
	Partitions []string `koanf:"partitions"`

	// DefaultPartition is used when a request omits the partition.
	DefaultPartition string `koanf:"default_partition"`

	// MaxBatchSize caps the batch-ingest payload length.
	MaxBatchSize int `koanf:"max_batch_size"`
}

// SecurityConfig holds rate limiting and CORS settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// RecommendConfig holds the scoring-engine parameters exposed through
// configuration. Zero values fall back to the engine defaults.
type RecommendConfig struct {
	UserNeighbors    int   `koanf:"user_neighbors"`
	ItemNeighbors    int   `koanf:"item_neighbors"`
	ProfileSeeds     int   `koanf:"profile_seeds"`
	MaxLatentRank    int   `koanf:"max_latent_rank"`
	LatentIterations int   `koanf:"latent_iterations"`
	Seed             int64 `koanf:"seed"`
	DefaultTopN      int   `koanf:"default_top_n"`
	MaxTopN          int   `koanf:"max_top_n"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("database.query_timeout must be positive")
	}
	if len(c.API.Partitions) == 0 {
		return fmt.Errorf("api.partitions must not be empty")
	}
	if !c.PartitionAllowed(c.API.DefaultPartition) {
		return fmt.Errorf("api.default_partition %q is not in api.partitions", c.API.DefaultPartition)
	}
	if c.API.MaxBatchSize < 1 {
		return fmt.Errorf("api.max_batch_size must be positive")
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 || c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("invalid rate limit: %d reqs per %v",
				c.Security.RateLimitReqs, c.Security.RateLimitWindow)
		}
	}
	return nil
}

// PartitionAllowed reports whether a partition name is configured.
func (c *Config) PartitionAllowed(partition string) bool {
	for _, p := range c.API.Partitions {
		if p == partition {
			return true
		}
	}
	return false
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
