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

package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/VodHubProject/vodhub-core/pkg/catalog"
	"github.com/VodHubProject/vodhub-core/pkg/catalog/catalogdb"
	"github.com/VodHubProject/vodhub-core/pkg/catalog/matcher"
	"github.com/VodHubProject/vodhub-core/pkg/matchcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *catalogdb.CatalogDB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "ingest_test.db")
	db, err := catalogdb.OpenCatalogDB(dbPath)
	require.NoError(t, err, "failed to open test database")

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return db
}

func record(platform catalog.Platform, sourceID, title string, year int) catalog.ScrapedRecord {
	return catalog.ScrapedRecord{
		Title:       title,
		Kind:        catalog.KindMovie,
		Platform:    platform,
		SourceID:    sourceID,
		ReleaseYear: year,
	}
}

func TestRunResolvesBatch(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	runner := NewRunner(db, nil, matcher.DefaultConfig(), 0, 2)

	records := []catalog.ScrapedRecord{
		record(catalog.PlatformFilimo, "f-1", "متری شیش و نیم", 2019),
		record(catalog.PlatformNamava, "n-1", "متری شیش و نیم", 2019),
		record(catalog.PlatformFilimo, "f-2", "شقایق", 2020),
	}

	stats, err := runner.Run(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.ItemsCreated.Load())
	assert.Equal(t, int64(1), stats.MatchesFound.Load())
	assert.Equal(t, int64(3), stats.SourcesAdded.Load())
	assert.Equal(t, int64(0), stats.SourcesUpdated.Load())
	assert.Equal(t, int64(0), stats.Errors.Load())
}

func TestRunIsolatesFailingRecords(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	runner := NewRunner(db, nil, matcher.DefaultConfig(), 0, 2)

	records := []catalog.ScrapedRecord{
		record(catalog.PlatformFilimo, "f-1", "فروشنده", 2016),
		record(catalog.PlatformFilimo, "f-2", "", 2016),       // invalid: no title
		record("netflix", "x-1", "خانه پدری", 2012),           // invalid: unknown platform
		record(catalog.PlatformFilimo, "f-3", "شقایق", 2020),
	}

	stats, err := runner.Run(context.Background(), records)
	require.NoError(t, err, "record failures must not abort the batch")

	assert.Equal(t, int64(2), stats.Errors.Load())
	assert.Equal(t, int64(2), stats.ItemsCreated.Load())
}

func TestRunRepeatBatchIsIdempotent(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	runner := NewRunner(db, nil, matcher.DefaultConfig(), 0, 2)
	ctx := context.Background()

	records := []catalog.ScrapedRecord{
		record(catalog.PlatformFilimo, "f-1", "فروشنده", 2016),
		record(catalog.PlatformNamava, "n-1", "فروشنده", 2016),
	}

	first, err := runner.Run(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ItemsCreated.Load())
	assert.Equal(t, int64(2), first.SourcesAdded.Load())

	second, err := runner.Run(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.ItemsCreated.Load())
	assert.Equal(t, int64(2), second.MatchesFound.Load())
	assert.Equal(t, int64(0), second.SourcesAdded.Load())
	assert.Equal(t, int64(2), second.SourcesUpdated.Load())
}

func TestRunConcurrentDuplicatesConverge(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	cache := matchcache.NewMemoryCache()
	runner := NewRunner(db, cache, matcher.DefaultConfig(), 0, 8)

	// Many listings of the same work, all racing through the pool.
	records := make([]catalog.ScrapedRecord, 20)
	for i := range records {
		records[i] = record(catalog.PlatformFilimo,
			fmt.Sprintf("f-%d", i), "جدایی نادر از سیمین", 2011)
	}

	stats, err := runner.Run(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.Errors.Load())
	assert.Equal(t, int64(1), stats.ItemsCreated.Load(), "duplicates must converge on one item")
	assert.Equal(t, int64(19), stats.MatchesFound.Load())
	assert.Equal(t, int64(20), stats.SourcesAdded.Load())
}

func TestRunCancelledContext(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	runner := NewRunner(db, nil, matcher.DefaultConfig(), 0, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []catalog.ScrapedRecord{
		record(catalog.PlatformFilimo, "f-1", "فروشنده", 2016),
	}
	_, err := runner.Run(ctx, records)
	assert.Error(t, err)
}

func TestNewRunnerClampsWorkers(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	runner := NewRunner(db, nil, matcher.DefaultConfig(), 0, 0)
	stats, err := runner.Run(context.Background(), []catalog.ScrapedRecord{
		record(catalog.PlatformFilimo, "f-1", "شقایق", 2020),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ItemsCreated.Load())
}
