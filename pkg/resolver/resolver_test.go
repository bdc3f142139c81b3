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

package resolver

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/VodHubProject/vodhub-core/pkg/catalog"
	"github.com/VodHubProject/vodhub-core/pkg/catalog/catalogdb"
	"github.com/VodHubProject/vodhub-core/pkg/catalog/matcher"
	"github.com/VodHubProject/vodhub-core/pkg/matchcache"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *catalogdb.CatalogDB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "resolver_test.db")
	db, err := catalogdb.OpenCatalogDB(dbPath)
	require.NoError(t, err, "failed to open test database")

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return db
}

func filimoRecord(title string, year int) *catalog.ScrapedRecord {
	return &catalog.ScrapedRecord{
		Title:       title,
		Kind:        catalog.KindMovie,
		Platform:    catalog.PlatformFilimo,
		SourceID:    "f-" + title,
		URL:         "https://www.filimo.com/m/x",
		ReleaseYear: year,
	}
}

func TestResolveCreatesOnFirstSight(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	res := NewResolver(db, nil, matcher.DefaultConfig(), 0)

	rec := filimoRecord("متری شیش و نیم", 2019)
	rec.Genres = []string{"درام", "جنایی"}
	rec.Credits = []catalog.Credit{{Role: catalog.RoleDirector, Name: "سعید روستایی"}}

	result, err := res.Resolve(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, result.ContentCreated)
	assert.True(t, result.SourceLinked)
	assert.Equal(t, StrategyCreated, result.Strategy)
	require.NotNil(t, result.Item)

	stored, err := db.GetItem(context.Background(), result.Item.DBID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, []string{"جنایی", "درام"}, stored.Genres)
}

func TestResolveIdempotent(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	res := NewResolver(db, nil, matcher.DefaultConfig(), 0)
	ctx := context.Background()

	rec := filimoRecord("شقایق", 2020)

	first, err := res.Resolve(ctx, rec)
	require.NoError(t, err)
	assert.True(t, first.ContentCreated)

	second, err := res.Resolve(ctx, rec)
	require.NoError(t, err)
	assert.False(t, second.ContentCreated, "repeat ingest must not create a second item")
	assert.False(t, second.SourceLinked, "repeat ingest must not create a second mapping")
	assert.Equal(t, first.Item.DBID, second.Item.DBID)
}

func TestResolveDeduplicatesAcrossPlatforms(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	res := NewResolver(db, nil, matcher.DefaultConfig(), 0)
	ctx := context.Background()

	first, err := res.Resolve(ctx, filimoRecord("فروشنده", 2016))
	require.NoError(t, err)

	namava := &catalog.ScrapedRecord{
		Title:       "فروشنده",
		Kind:        catalog.KindMovie,
		Platform:    catalog.PlatformNamava,
		SourceID:    "n-123",
		ReleaseYear: 2016,
	}
	second, err := res.Resolve(ctx, namava)
	require.NoError(t, err)

	assert.False(t, second.ContentCreated)
	assert.True(t, second.SourceLinked, "second platform gets its own mapping")
	assert.Equal(t, matcher.StrategyExact, second.Strategy)
	assert.Equal(t, first.Item.DBID, second.Item.DBID)

	mapping, err := db.GetSourceMapping(ctx, catalog.PlatformNamava, "n-123")
	require.NoError(t, err)
	require.NotNil(t, mapping)
	assert.Equal(t, first.Item.DBID, mapping.ItemDBID)
}

func TestResolveYearToleranceBoundary(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	res := NewResolver(db, nil, matcher.DefaultConfig(), 0)
	ctx := context.Background()

	first, err := res.Resolve(ctx, filimoRecord("خانه پدری", 2012))
	require.NoError(t, err)

	// One year off: inside the default fuzzy window.
	offByOne := filimoRecord("خانه پدری", 2013)
	offByOne.SourceID = "f-2013"
	second, err := res.Resolve(ctx, offByOne)
	require.NoError(t, err)
	assert.False(t, second.ContentCreated)
	assert.Equal(t, first.Item.DBID, second.Item.DBID)

	// Two years off: outside the window, treated as a different work.
	offByTwo := filimoRecord("خانه پدری", 2014)
	offByTwo.SourceID = "f-2014"
	third, err := res.Resolve(ctx, offByTwo)
	require.NoError(t, err)
	assert.True(t, third.ContentCreated)
	assert.NotEqual(t, first.Item.DBID, third.Item.DBID)
}

func TestResolveVariationTitle(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	res := NewResolver(db, nil, matcher.DefaultConfig(), 0)
	ctx := context.Background()

	first, err := res.Resolve(ctx, filimoRecord("متری شیش و نیم", 2019))
	require.NoError(t, err)

	// Known English rendering of the same work, same year.
	variant := &catalog.ScrapedRecord{
		Title:       "Just 6.5",
		Kind:        catalog.KindMovie,
		Platform:    catalog.PlatformNamava,
		SourceID:    "n-65",
		ReleaseYear: 2019,
	}
	second, err := res.Resolve(ctx, variant)
	require.NoError(t, err)
	assert.False(t, second.ContentCreated)
	assert.Equal(t, first.Item.DBID, second.Item.DBID)
}

func TestResolveCacheHitAndWriteThrough(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	clock := clockwork.NewFakeClock()
	cache := matchcache.NewMemoryCacheWithClock(clock)
	res := NewResolver(db, cache, matcher.DefaultConfig(), time.Hour)
	ctx := context.Background()

	rec := filimoRecord("شقایق", 2020)
	first, err := res.Resolve(ctx, rec)
	require.NoError(t, err)

	second, err := res.Resolve(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, StrategyCache, second.Strategy)
	assert.Equal(t, first.Item.DBID, second.Item.DBID)

	// Past the TTL the cache misses but the pipeline still resolves to
	// the same item and refreshes the entry.
	clock.Advance(2 * time.Hour)
	third, err := res.Resolve(ctx, rec)
	require.NoError(t, err)
	assert.NotEqual(t, StrategyCache, third.Strategy)
	assert.Equal(t, first.Item.DBID, third.Item.DBID)

	fourth, err := res.Resolve(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, StrategyCache, fourth.Strategy)
}

func TestResolveStaleCacheEntry(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	cache := matchcache.NewMemoryCache()
	res := NewResolver(db, cache, matcher.DefaultConfig(), time.Hour)
	ctx := context.Background()

	// Poison the cache with an identifier that does not exist in the
	// store. The resolver must confirm against the store, treat the
	// entry as a miss, and resolve correctly.
	cache.Set(ctx, "شقایق", 2020, 99999, time.Hour)

	result, err := res.Resolve(ctx, filimoRecord("شقایق", 2020))
	require.NoError(t, err)
	assert.True(t, result.ContentCreated)
	assert.NotEqual(t, int64(99999), result.Item.DBID)
}

func TestResolveValidationFailure(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	res := NewResolver(db, nil, matcher.DefaultConfig(), 0)

	rec := filimoRecord("", 2020)
	_, err := res.Resolve(context.Background(), rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrValidation)

	badYear := filimoRecord("شقایق", 1800)
	_, err = res.Resolve(context.Background(), badYear)
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrValidation)
}

func TestResolveBackfillsEnglishTitle(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	res := NewResolver(db, nil, matcher.DefaultConfig(), 0)
	ctx := context.Background()

	first, err := res.Resolve(ctx, filimoRecord("فروشنده", 2016))
	require.NoError(t, err)

	withEnglish := &catalog.ScrapedRecord{
		Title:       "فروشنده",
		TitleEn:     "The Salesman",
		Kind:        catalog.KindMovie,
		Platform:    catalog.PlatformNamava,
		SourceID:    "n-55",
		ReleaseYear: 2016,
	}
	_, err = res.Resolve(ctx, withEnglish)
	require.NoError(t, err)

	stored, err := db.GetItem(ctx, first.Item.DBID)
	require.NoError(t, err)
	assert.Equal(t, "The Salesman", stored.TitleEn)

	// Once populated, a conflicting later value is ignored.
	conflicting := &catalog.ScrapedRecord{
		Title:       "فروشنده",
		TitleEn:     "Some Other Name",
		Kind:        catalog.KindMovie,
		Platform:    catalog.PlatformNamava,
		SourceID:    "n-56",
		ReleaseYear: 2016,
	}
	_, err = res.Resolve(ctx, conflicting)
	require.NoError(t, err)

	stored, err = db.GetItem(ctx, first.Item.DBID)
	require.NoError(t, err)
	assert.Equal(t, "The Salesman", stored.TitleEn)
}

func TestResolveConcurrentSameTitle(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	res := NewResolver(db, nil, matcher.DefaultConfig(), 0)
	ctx := context.Background()

	const workers = 4
	var wg sync.WaitGroup
	results := make([]*Result, workers)
	errs := make([]error, workers)

	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := filimoRecord("جدایی نادر از سیمین", 2011)
			rec.SourceID = "f-" + string(rune('a'+i))
			results[i], errs[i] = res.Resolve(ctx, rec)
		}()
	}
	wg.Wait()

	var created int
	var itemDBID int64
	for i := range workers {
		require.NoError(t, errs[i], "losing the creation race must not surface as an error")
		require.NotNil(t, results[i])
		if results[i].ContentCreated {
			created++
		}
		if itemDBID == 0 {
			itemDBID = results[i].Item.DBID
		}
		assert.Equal(t, itemDBID, results[i].Item.DBID, "every worker must land on the same item")
	}
	assert.Equal(t, 1, created, "exactly one worker creates the item")
}

// flakyStore delegates to a real store but fails the first slug
// lookups with a transient error, imitating a briefly locked database.
type flakyStore struct {
	catalog.CatalogDBI
	failures int
}

func (s *flakyStore) FindItemBySlugYear(ctx context.Context, slug string, year int) (*catalog.CanonicalItem, error) {
	if s.failures > 0 {
		s.failures--
		return nil, fmt.Errorf("failed to find item by slug and year: %w: database is locked",
			catalog.ErrTransientStore)
	}
	return s.CatalogDBI.FindItemBySlugYear(ctx, slug, year)
}

func TestResolveRetriesTransientPipelineRead(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	seed := NewResolver(db, nil, matcher.DefaultConfig(), 0)
	first, err := seed.Resolve(ctx, filimoRecord("فروشنده", 2016))
	require.NoError(t, err)

	// The exact-match lookup fails once transiently; the retry must
	// absorb it and the record still resolves to the existing item.
	store := &flakyStore{CatalogDBI: db, failures: 1}
	res := NewResolver(store, nil, matcher.DefaultConfig(), 0)

	rec := filimoRecord("فروشنده", 2016)
	rec.SourceID = "f-retry"
	result, err := res.Resolve(ctx, rec)
	require.NoError(t, err, "a single transient read failure must be retried, not surfaced")
	assert.False(t, result.ContentCreated)
	assert.Equal(t, first.Item.DBID, result.Item.DBID)
	assert.Equal(t, 0, store.failures, "the failing lookup must have been consumed")
}

func TestResolveGivesUpAfterBoundedTransientRetries(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	// More consecutive failures than the retry budget: the error
	// surfaces for this record instead of retrying forever.
	store := &flakyStore{CatalogDBI: db, failures: 10}
	res := NewResolver(store, nil, matcher.DefaultConfig(), 0)

	_, err := res.Resolve(ctx, filimoRecord("شقایق", 2020))
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrTransientStore)
	assert.Less(t, 10-store.failures, 10, "retries must be bounded")
}

func TestResolveGenreMemoReuse(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	res := NewResolver(db, nil, matcher.DefaultConfig(), 0)
	ctx := context.Background()

	first := filimoRecord("فیلم یک", 2018)
	first.Genres = []string{"درام"}
	second := filimoRecord("فیلم دو", 2021)
	second.Genres = []string{"درام", "درام", " درام "}

	r1, err := res.Resolve(ctx, first)
	require.NoError(t, err)
	r2, err := res.Resolve(ctx, second)
	require.NoError(t, err)

	g1, err := db.GetItem(ctx, r1.Item.DBID)
	require.NoError(t, err)
	g2, err := db.GetItem(ctx, r2.Item.DBID)
	require.NoError(t, err)
	assert.Equal(t, g1.Genres, g2.Genres, "both items share the single genre row")
	assert.Equal(t, []string{"درام"}, g2.Genres, "duplicate names collapse to one link")
}
