// VodHub Core
// Copyright (c) 2026 The VodHub Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of VodHub Core.
//
// VodHub Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// VodHub Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with VodHub Core.  If not, see <http://www.gnu.org/licenses/>.

// Package config loads and serves the engine's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/VodHubProject/vodhub-core/pkg/helpers/syncutil"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

const (
	SchemaVersion = 1
	CfgEnv        = "VODHUB_CFG"
	CfgFile       = "config.toml"
)

type Values struct {
	Matcher      Matcher  `toml:"matcher,omitempty"`
	Cache        Cache    `toml:"cache,omitempty"`
	Ingest       Ingest   `toml:"ingest,omitempty"`
	Database     Database `toml:"database,omitempty"`
	ConfigSchema int      `toml:"config_schema"`
	DebugLogging bool     `toml:"debug_logging"`
}

type Matcher struct {
	// Threshold is the minimum fuzzy similarity score for a match,
	// in (0, 1].
	Threshold float64 `toml:"threshold"`
	// YearTolerance widens the fuzzy candidate window to
	// [year-n, year+n].
	YearTolerance int `toml:"year_tolerance"`
	// CandidateLimit caps how many candidates one fuzzy pass scores.
	CandidateLimit int `toml:"candidate_limit"`
}

type Cache struct {
	// RedisAddr is the "host:port" of the match cache backend. Empty
	// selects the in-process cache.
	RedisAddr string `toml:"redis_addr,omitempty"`
	// TTLSeconds is the match cache entry lifetime.
	TTLSeconds int `toml:"ttl_seconds"`
}

type Ingest struct {
	// Workers is how many records one batch resolves concurrently.
	Workers int `toml:"workers"`
}

type Database struct {
	// Path overrides the catalog database file location. Empty uses
	// catalog.db under the config directory.
	Path string `toml:"path,omitempty"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Matcher: Matcher{
		Threshold:      0.85,
		YearTolerance:  1,
		CandidateLimit: 100,
	},
	Cache: Cache{
		TTLSeconds: 3600,
	},
	Ingest: Ingest{
		Workers: 4,
	},
}

type Instance struct {
	cfgPath  string
	dataDir  string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

//nolint:gocritic // config struct copied for immutability
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	cfg := Instance{
		mu:       syncutil.RWMutex{},
		cfgPath:  cfgPath,
		dataDir:  configDir,
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Msg("saving new default config to disk")

		err := os.MkdirAll(filepath.Dir(cfgPath), 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		err = cfg.Save()
		if err != nil {
			return nil, err
		}
	}

	err := cfg.Load()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	if _, err := os.Stat(c.cfgPath); err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}

	data, err := os.ReadFile(c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top.
	// This ensures fields not present in the file retain their default values.
	newVals := c.defaults
	err = toml.Unmarshal(data, &newVals)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return errors.New("schema version mismatch")
	}

	if err := validate(&newVals); err != nil {
		return err
	}

	c.vals = newVals
	return nil
}

func validate(vals *Values) error {
	if vals.Matcher.Threshold <= 0 || vals.Matcher.Threshold > 1 {
		return fmt.Errorf("matcher threshold out of range (0, 1]: %f", vals.Matcher.Threshold)
	}
	if vals.Matcher.YearTolerance < 0 {
		return fmt.Errorf("matcher year tolerance must not be negative: %d", vals.Matcher.YearTolerance)
	}
	if vals.Matcher.CandidateLimit < 1 {
		return fmt.Errorf("matcher candidate limit must be positive: %d", vals.Matcher.CandidateLimit)
	}
	if vals.Cache.TTLSeconds < 1 {
		return fmt.Errorf("cache ttl must be positive: %d", vals.Cache.TTLSeconds)
	}
	if vals.Ingest.Workers < 1 {
		return fmt.Errorf("ingest workers must be positive: %d", vals.Ingest.Workers)
	}
	return nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	// set current schema version
	c.vals.ConfigSchema = SchemaVersion

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Instance) MatchThreshold() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Matcher.Threshold
}

func (c *Instance) YearTolerance() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Matcher.YearTolerance
}

func (c *Instance) CandidateLimit() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Matcher.CandidateLimit
}

func (c *Instance) RedisAddr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Cache.RedisAddr
}

func (c *Instance) CacheTTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Cache.TTLSeconds) * time.Second
}

func (c *Instance) IngestWorkers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Ingest.Workers
}

// DatabasePath returns the configured catalog database file, falling
// back to catalog.db in the config directory.
func (c *Instance) DatabasePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Database.Path != "" {
		return c.vals.Database.Path
	}
	return filepath.Join(c.dataDir, "catalog.db")
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
}
