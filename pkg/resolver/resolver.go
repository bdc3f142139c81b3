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

// Package resolver orchestrates the resolution of one scraped record
// into the canonical catalog: cache probe, matching pipeline, atomic
// find-or-create, source linking, and cache write-through.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VodHubProject/vodhub-core/pkg/catalog"
	"github.com/VodHubProject/vodhub-core/pkg/catalog/matcher"
	"github.com/VodHubProject/vodhub-core/pkg/catalog/titles"
	"github.com/VodHubProject/vodhub-core/pkg/matchcache"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"
)

// StrategyCache is reported when a record resolved straight from a
// confirmed match cache hit, and StrategyCreated when no strategy
// matched and a new canonical item was created.
const (
	StrategyCache   = "cache"
	StrategyCreated = "created"
)

// maxConflictRetries bounds how often a create that lost a concurrent
// creation race re-runs the matching pipeline. One retry is normally
// enough: the winner's row is an exact match on the second pass.
const maxConflictRetries = 2

// transientRetryBase is the first backoff delay for busy-store retries.
const transientRetryBase = 50 * time.Millisecond

// Result reports how one record was resolved.
type Result struct {
	// Item is the canonical item the record now maps to.
	Item *catalog.CanonicalItem
	// Strategy names what decided the match: a pipeline strategy,
	// StrategyCache, or StrategyCreated.
	Strategy string
	// ContentCreated is true when a new canonical item was created.
	ContentCreated bool
	// SourceLinked is true when a new source mapping row was written,
	// false when the (platform, source_id) link already existed.
	SourceLinked bool
}

// Resolver resolves scraped records against one catalog store. Safe
// for concurrent use; construct one per ingest run so the genre memo
// stays batch-scoped.
type Resolver struct {
	db       catalog.CatalogDBI
	cache    matchcache.Client
	pipeline *matcher.Pipeline
	genres   *genreMemo
	cacheTTL time.Duration
}

// NewResolver builds a resolver over the given store and match cache.
// A nil cache disables caching entirely. A zero ttl uses
// matchcache.DefaultTTL.
func NewResolver(db catalog.CatalogDBI, cache matchcache.Client, cfg matcher.Config, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = matchcache.DefaultTTL
	}
	return &Resolver{
		db:       db,
		cache:    cache,
		pipeline: matcher.NewPipeline(db, nil, cfg),
		genres:   newGenreMemo(),
		cacheTTL: ttl,
	}
}

// Resolve maps one scraped record to a canonical item, creating the
// item if nothing matches, and idempotently links the record's platform
// listing to it. Whatever path resolution takes, a successful return
// means the mapping exists and the cache has been refreshed.
func (r *Resolver) Resolve(ctx context.Context, rec *catalog.ScrapedRecord) (*Result, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	normTitle := titles.Normalize(rec.Title)

	item, strategy := r.probeCache(ctx, normTitle, rec.ReleaseYear)
	created := false

	if item == nil {
		var err error
		item, strategy, err = r.findOrCreate(ctx, rec)
		if err != nil {
			return nil, err
		}
		created = strategy == StrategyCreated
	}

	// The create path writes the first mapping inside its transaction;
	// every other path links here. Upsert keeps repeat ingests no-ops.
	linked := created
	if !created {
		var err error
		linked, err = r.linkSource(ctx, item, rec)
		if err != nil {
			return nil, err
		}
		r.backfillTitleEn(ctx, item, rec)
	}

	if r.cache != nil {
		r.cache.Set(ctx, normTitle, rec.ReleaseYear, item.DBID, r.cacheTTL)
	}

	return &Result{
		Item:           item,
		Strategy:       strategy,
		ContentCreated: created,
		SourceLinked:   linked,
	}, nil
}

// probeCache returns a cached match only after confirming the item
// still exists in the store. A stale entry is treated as a miss and
// left to expire.
func (r *Resolver) probeCache(ctx context.Context, normTitle string, year int) (*catalog.CanonicalItem, string) {
	if r.cache == nil {
		return nil, ""
	}

	dbid, ok := r.cache.Get(ctx, normTitle, year)
	if !ok {
		return nil, ""
	}

	item, err := r.db.GetItem(ctx, dbid)
	if err != nil {
		log.Warn().Err(err).Int64("item_dbid", dbid).Msg("failed to confirm cached match, treating as miss")
		return nil, ""
	}
	if item == nil {
		log.Debug().Int64("item_dbid", dbid).Str("title", normTitle).Msg("stale match cache entry")
		return nil, ""
	}
	return item, StrategyCache
}

// findOrCreate runs the matching pipeline and creates a new canonical
// item when nothing matches. Losing a concurrent creation race re-runs
// the pipeline, where the winner's row matches exactly.
func (r *Resolver) findOrCreate(ctx context.Context, rec *catalog.ScrapedRecord) (*catalog.CanonicalItem, string, error) {
	for attempt := 0; ; attempt++ {
		var item *catalog.CanonicalItem
		var strategy string
		// Pipeline reads hit the store too; a busy database gets the
		// same bounded backoff as the write paths.
		err := r.withTransientRetry(ctx, func(ctx context.Context) error {
			var matchErr error
			item, strategy, matchErr = r.pipeline.FindMatch(ctx, rec)
			return matchErr
		})
		if err != nil {
			return nil, "", err
		}
		if item != nil {
			return item, strategy, nil
		}

		item, err = r.createItem(ctx, rec)
		if err == nil {
			return item, StrategyCreated, nil
		}
		if !errors.Is(err, catalog.ErrUniquenessConflict) || attempt >= maxConflictRetries {
			return nil, "", err
		}

		log.Debug().
			Str("title", rec.Title).
			Int("year", rec.ReleaseYear).
			Int("attempt", attempt+1).
			Msg("lost creation race, re-running match pipeline")
	}
}

func (r *Resolver) createItem(ctx context.Context, rec *catalog.ScrapedRecord) (*catalog.CanonicalItem, error) {
	// Genres are shared rows created outside the item transaction, so a
	// rolled-back create never orphans a half-made vocabulary.
	genreDBIDs, err := r.genres.resolveGenres(ctx, r.db, rec.Genres)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve genres: %w", err)
	}

	newItem := catalog.NewItem{
		Title:      rec.Title,
		TitleEn:    rec.TitleEn,
		Slug:       titles.Normalize(rec.Title),
		SlugEn:     titles.Normalize(rec.TitleEn),
		Year:       rec.ReleaseYear,
		Kind:       rec.Kind,
		GenreDBIDs: genreDBIDs,
		Credits:    rec.Credits,
		Source: catalog.SourceMapping{
			Platform:   rec.Platform,
			SourceID:   rec.SourceID,
			URL:        rec.URL,
			RawPayload: rec.RawPayload,
		},
	}

	var item *catalog.CanonicalItem
	err = r.withTransientRetry(ctx, func(ctx context.Context) error {
		var createErr error
		item, createErr = r.db.CreateItemWithSource(ctx, newItem)
		return createErr
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("title", item.Title).
		Int("year", item.Year).
		Int64("item_dbid", item.DBID).
		Msg("created canonical item")
	return item, nil
}

func (r *Resolver) linkSource(ctx context.Context, item *catalog.CanonicalItem, rec *catalog.ScrapedRecord) (bool, error) {
	var linked bool
	err := r.withTransientRetry(ctx, func(ctx context.Context) error {
		var upsertErr error
		linked, upsertErr = r.db.UpsertSourceMapping(ctx, catalog.SourceMapping{
			ItemDBID:   item.DBID,
			Platform:   rec.Platform,
			SourceID:   rec.SourceID,
			URL:        rec.URL,
			RawPayload: rec.RawPayload,
		})
		return upsertErr
	})
	if err != nil {
		return false, fmt.Errorf("failed to link source: %w", err)
	}
	return linked, nil
}

// backfillTitleEn fills an empty English title on a matched item from
// the record. Best effort: a failure here never fails the resolution.
func (r *Resolver) backfillTitleEn(ctx context.Context, item *catalog.CanonicalItem, rec *catalog.ScrapedRecord) {
	if rec.TitleEn == "" || item.TitleEn != "" {
		return
	}
	err := r.db.BackfillItemTitleEn(ctx, item.DBID, rec.TitleEn, titles.Normalize(rec.TitleEn))
	if err != nil {
		log.Warn().Err(err).Int64("item_dbid", item.DBID).Msg("failed to backfill english title")
		return
	}
	item.TitleEn = rec.TitleEn
	item.SlugEn = titles.Normalize(rec.TitleEn)
}

// withTransientRetry retries fn with fibonacci backoff while it fails
// with a transient store error (busy or locked). Conflict and
// validation errors pass through untouched.
func (r *Resolver) withTransientRetry(ctx context.Context, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(transientRetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if errors.Is(err, catalog.ErrTransientStore) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store operation failed: %w", err)
	}
	return nil
}
