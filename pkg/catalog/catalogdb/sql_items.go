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

const itemColumns = `id, title, title_en, slug, slug_en, year, kind, created_at, updated_at`

func scanItem(row interface{ Scan(dest ...any) error }) (catalog.CanonicalItem, error) {
	var item catalog.CanonicalItem
	var updatedAt sql.NullTime
	err := row.Scan(
		&item.DBID,
		&item.Title,
		&item.TitleEn,
		&item.Slug,
		&item.SlugEn,
		&item.Year,
		&item.Kind,
		&item.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return item, err
	}
	if updatedAt.Valid {
		item.UpdatedAt = updatedAt.Time
	}
	return item, nil
}

// GetItem fetches an item by identifier, including its genre names.
// Returns nil, nil when no such item exists: the caller (cache
// confirmation path) treats absence as a stale cache entry, not an
// error.
func (db *CatalogDB) GetItem(ctx context.Context, dbid int64) (*catalog.CanonicalItem, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}

	row := db.sql.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM canonical_items WHERE id = ?`, dbid)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classifyErr("failed to get canonical item", err)
	}

	if item.Genres, err = db.itemGenres(ctx, item.DBID); err != nil {
		return nil, err
	}
	return &item, nil
}

func (db *CatalogDB) itemGenres(ctx context.Context, itemDBID int64) ([]string, error) {
	rows, err := db.sql.QueryContext(ctx, `
        SELECT genres.name
        FROM genres
        JOIN item_genres ON item_genres.genre_id = genres.id
        WHERE item_genres.item_id = ?
        ORDER BY genres.name`, itemDBID)
	if err != nil {
		return nil, classifyErr("failed to query item genres", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close genre rows")
		}
	}()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan genre name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyErr("failed to iterate item genres", err)
	}
	return names, nil
}

// FindItemBySlugYear returns the lowest-DBID item whose native or
// English slug equals slug with an exact year match. Returns nil, nil
// on no match.
func (db *CatalogDB) FindItemBySlugYear(ctx context.Context, slug string, year int) (*catalog.CanonicalItem, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	if slug == "" {
		return nil, nil
	}

	row := db.sql.QueryRowContext(ctx, `
        SELECT `+itemColumns+`
        FROM canonical_items
        WHERE year = ? AND (slug = ? OR (slug_en != '' AND slug_en = ?))
        ORDER BY id
        LIMIT 1`, year, slug, slug)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classifyErr("failed to find item by slug and year", err)
	}
	return &item, nil
}

// FindItemsByYearWindow returns up to limit items with year in
// [minYear, maxYear] and matching kind. Ordered by DBID so fuzzy
// tie-breaking is deterministic across runs.
func (db *CatalogDB) FindItemsByYearWindow(
	ctx context.Context, minYear, maxYear int, kind catalog.ContentKind, limit int,
) ([]catalog.CanonicalItem, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}

	rows, err := db.sql.QueryContext(ctx, `
        SELECT `+itemColumns+`
        FROM canonical_items
        WHERE year >= ? AND year <= ? AND kind = ?
        ORDER BY id
        LIMIT ?`, minYear, maxYear, kind, limit)
	if err != nil {
		return nil, classifyErr("failed to query items by year window", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close item rows")
		}
	}()

	return collectItems(rows)
}

// FindItemsByTitleBase returns items whose stored title contains base
// with an exact year match, ordered by DBID. Used by the variation
// strategy; more than one result is ambiguous to the caller.
func (db *CatalogDB) FindItemsByTitleBase(ctx context.Context, base string, year int) ([]catalog.CanonicalItem, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	if base == "" {
		return nil, nil
	}

	rows, err := db.sql.QueryContext(ctx, `
        SELECT `+itemColumns+`
        FROM canonical_items
        WHERE year = ? AND (instr(title, ?) > 0 OR instr(slug, ?) > 0)
        ORDER BY id`, year, base, base)
	if err != nil {
		return nil, classifyErr("failed to query items by title base", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close item rows")
		}
	}()

	return collectItems(rows)
}

func collectItems(rows *sql.Rows) ([]catalog.CanonicalItem, error) {
	var items []catalog.CanonicalItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyErr("failed to iterate item rows", err)
	}
	return items, nil
}

// BackfillItemTitleEn sets the English title and slug only when the
// stored title_en is still empty. Populated fields are never
// overwritten.
func (db *CatalogDB) BackfillItemTitleEn(ctx context.Context, dbid int64, titleEn, slugEn string) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	if titleEn == "" {
		return nil
	}

	_, err := db.sql.ExecContext(ctx, `
        UPDATE canonical_items
        SET title_en = ?, slug_en = ?, updated_at = ?
        WHERE id = ? AND title_en = ''`, titleEn, slugEn, time.Now().UTC(), dbid)
	if err != nil {
		return classifyErr("failed to backfill item title_en", err)
	}
	return nil
}

// classifyErr wraps a store error with the taxonomy sentinel the
// resolver dispatches on.
func classifyErr(msg string, err error) error {
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w: %w", msg, catalog.ErrUniquenessConflict, err)
	case isTransient(err):
		return fmt.Errorf("%s: %w: %w", msg, catalog.ErrTransientStore, err)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
