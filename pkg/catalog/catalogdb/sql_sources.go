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

// UpsertSourceMapping idempotently links a platform listing to a
// canonical item. The (platform, source_id) unique constraint makes a
// repeat ingest a no-op: the existing row wins, including its original
// url and raw_payload, and created reports false. That still counts as
// "mapping present", never as an error.
func (db *CatalogDB) UpsertSourceMapping(ctx context.Context, m catalog.SourceMapping) (bool, error) {
	if db.sql == nil {
		return false, ErrNullSQL
	}

	res, err := db.sql.ExecContext(ctx, `
        INSERT INTO source_mappings (item_id, platform, source_id, url, raw_payload, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT (platform, source_id) DO NOTHING`,
		m.ItemDBID, m.Platform, m.SourceID, m.URL, m.RawPayload, time.Now().UTC())
	if err != nil {
		return false, classifyErr("failed to upsert source mapping", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, classifyErr("failed to read upsert result", err)
	}
	return affected > 0, nil
}

// GetSourceMapping fetches the mapping for one platform listing.
// Returns nil, nil when the listing has never been ingested.
func (db *CatalogDB) GetSourceMapping(
	ctx context.Context, platform catalog.Platform, sourceID string,
) (*catalog.SourceMapping, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}

	var m catalog.SourceMapping
	err := db.sql.QueryRowContext(ctx, `
        SELECT id, item_id, platform, source_id, url, raw_payload, created_at
        FROM source_mappings
        WHERE platform = ? AND source_id = ?`, platform, sourceID).Scan(
		&m.DBID, &m.ItemDBID, &m.Platform, &m.SourceID, &m.URL, &m.RawPayload, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, classifyErr("failed to get source mapping", err)
	}
	return &m, nil
}
