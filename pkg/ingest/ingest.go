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

// Package ingest runs batches of scraped records through the resolver
// with a bounded worker pool and per-record failure isolation.
package ingest

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/VodHubProject/vodhub-core/pkg/catalog"
	"github.com/VodHubProject/vodhub-core/pkg/catalog/matcher"
	"github.com/VodHubProject/vodhub-core/pkg/matchcache"
	"github.com/VodHubProject/vodhub-core/pkg/resolver"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Stats counts what one batch did. All counters are updated atomically
// by the workers and safe to read after Run returns.
type Stats struct {
	ItemsCreated   atomic.Int64
	MatchesFound   atomic.Int64
	SourcesAdded   atomic.Int64
	SourcesUpdated atomic.Int64
	Errors         atomic.Int64
}

// Runner resolves record batches against one catalog store.
type Runner struct {
	db       catalog.CatalogDBI
	cache    matchcache.Client
	cfg      matcher.Config
	cacheTTL time.Duration
	workers  int
}

// NewRunner builds a batch runner. workers below 1 is clamped to 1.
func NewRunner(db catalog.CatalogDBI, cache matchcache.Client, cfg matcher.Config, cacheTTL time.Duration, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		db:       db,
		cache:    cache,
		cfg:      cfg,
		cacheTTL: cacheTTL,
		workers:  workers,
	}
}

// Run resolves every record in the batch, at most workers at a time,
// and returns aggregate stats. A failing record is counted and logged
// but never aborts the batch; Run returns an error only when the
// context is cancelled.
func (r *Runner) Run(ctx context.Context, records []catalog.ScrapedRecord) (*Stats, error) {
	runID := uuid.New().String()
	stats := &Stats{}

	// One resolver per run keeps the genre memo batch-scoped: a
	// vocabulary change between runs is picked up on the next run.
	res := resolver.NewResolver(r.db, r.cache, r.cfg, r.cacheTTL)

	log.Info().
		Str("run_id", runID).
		Int("records", len(records)).
		Int("workers", r.workers).
		Msg("ingest run started")
	start := time.Now()

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.workers)

	for i := range records {
		rec := &records[i]
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err //nolint:wrapcheck // context sentinel must stay unwrapped
			}

			result, err := res.Resolve(groupCtx, rec)
			if err != nil {
				stats.Errors.Add(1)
				log.Error().
					Err(err).
					Str("run_id", runID).
					Str("platform", string(rec.Platform)).
					Str("source_id", rec.SourceID).
					Str("title", rec.Title).
					Msg("failed to resolve record")
				return nil
			}

			r.count(stats, result)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return stats, err //nolint:wrapcheck // context sentinel must stay unwrapped
	}

	log.Info().
		Str("run_id", runID).
		Dur("took", time.Since(start)).
		Int64("items_created", stats.ItemsCreated.Load()).
		Int64("matches_found", stats.MatchesFound.Load()).
		Int64("sources_added", stats.SourcesAdded.Load()).
		Int64("sources_updated", stats.SourcesUpdated.Load()).
		Int64("errors", stats.Errors.Load()).
		Msg("ingest run finished")
	return stats, nil
}

func (*Runner) count(stats *Stats, result *resolver.Result) {
	if result.ContentCreated {
		stats.ItemsCreated.Add(1)
	} else {
		stats.MatchesFound.Add(1)
	}
	if result.SourceLinked {
		stats.SourcesAdded.Add(1)
	} else {
		stats.SourcesUpdated.Add(1)
	}
}
