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
	"time"

	"github.com/VodHubProject/vodhub-core/pkg/catalog"
)

// FindOrCreateGenre returns the genre row with the given name, creating
// it on first sight. INSERT OR IGNORE followed by a re-select makes
// this safe under concurrent creation of the same name: whichever
// worker wins the insert, both read back the same row.
func (db *CatalogDB) FindOrCreateGenre(ctx context.Context, name string) (catalog.GenreTag, error) {
	var genre catalog.GenreTag
	if db.sql == nil {
		return genre, ErrNullSQL
	}

	_, err := db.sql.ExecContext(ctx, `
        INSERT OR IGNORE INTO genres (name, created_at) VALUES (?, ?)`,
		name, time.Now().UTC())
	if err != nil {
		return genre, classifyErr("failed to insert genre", err)
	}

	err = db.sql.QueryRowContext(ctx,
		`SELECT id, name FROM genres WHERE name = ?`, name).Scan(&genre.DBID, &genre.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return genre, classifyErr("genre missing after insert", err)
		}
		return genre, classifyErr("failed to find genre", err)
	}
	return genre, nil
}
