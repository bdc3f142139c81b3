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

package catalogdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/VodHubProject/vodhub-core/pkg/catalog"
	"github.com/rs/zerolog/log"
)

// CreateItemWithSource atomically creates a canonical item with its
// genre links, credits, and first source mapping. Either everything
// commits or nothing does: a cancelled context or any statement
// failure rolls the whole record back, so a half-linked item is never
// observable.
//
// A unique-constraint violation on (title, year) means another worker
// created the same work concurrently; it surfaces as
// catalog.ErrUniquenessConflict and the caller re-runs the matching
// pipeline, where the winner's row will match exactly.
func (db *CatalogDB) CreateItemWithSource(ctx context.Context, newItem catalog.NewItem) (*catalog.CanonicalItem, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}

	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, classifyErr("failed to begin create transaction", err)
	}
	defer func() {
		// No-op after commit; rolls back on any early return.
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Warn().Err(rbErr).Msg("failed to roll back create transaction")
		}
	}()

	now := time.Now().UTC()

	res, err := tx.ExecContext(ctx, `
        INSERT INTO canonical_items (title, title_en, slug, slug_en, year, kind, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		newItem.Title, newItem.TitleEn, newItem.Slug, newItem.SlugEn,
		newItem.Year, newItem.Kind, now)
	if err != nil {
		return nil, classifyErr("failed to insert canonical item", err)
	}
	itemDBID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get canonical item insert ID: %w", err)
	}

	for _, genreDBID := range newItem.GenreDBIDs {
		_, err = tx.ExecContext(ctx, `
            INSERT OR IGNORE INTO item_genres (item_id, genre_id) VALUES (?, ?)`,
			itemDBID, genreDBID)
		if err != nil {
			return nil, classifyErr("failed to link item genre", err)
		}
	}

	for _, credit := range newItem.Credits {
		_, err = tx.ExecContext(ctx, `
            INSERT INTO credits (item_id, role, name, character_name, sort_order)
            VALUES (?, ?, ?, ?, ?)`,
			itemDBID, credit.Role, credit.Name, credit.CharacterName, credit.SortOrder)
		if err != nil {
			return nil, classifyErr("failed to insert credit", err)
		}
	}

	src := newItem.Source
	_, err = tx.ExecContext(ctx, `
        INSERT INTO source_mappings (item_id, platform, source_id, url, raw_payload, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		itemDBID, src.Platform, src.SourceID, src.URL, src.RawPayload, now)
	if err != nil {
		return nil, classifyErr("failed to insert source mapping", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, classifyErr("failed to commit create transaction", err)
	}

	item := &catalog.CanonicalItem{
		DBID:      itemDBID,
		Title:     newItem.Title,
		TitleEn:   newItem.TitleEn,
		Slug:      newItem.Slug,
		SlugEn:    newItem.SlugEn,
		Year:      newItem.Year,
		Kind:      newItem.Kind,
		CreatedAt: now,
	}
	return item, nil
}
