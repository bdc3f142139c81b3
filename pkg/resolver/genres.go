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
	"strings"

	"github.com/VodHubProject/vodhub-core/pkg/catalog"
	"github.com/VodHubProject/vodhub-core/pkg/helpers/syncutil"
)

// genreMemo caches genre name to row identifier lookups for the
// lifetime of one resolver. Genre vocabularies are tiny and append-only,
// so within a batch every name past the first hit skips the store.
type genreMemo struct {
	ids map[string]int64
	mu  syncutil.Mutex
}

func newGenreMemo() *genreMemo {
	return &genreMemo{ids: make(map[string]int64)}
}

// resolveGenres maps genre names to row identifiers, creating missing
// genres in the store. Names are trimmed; empty and duplicate names are
// dropped.
func (m *genreMemo) resolveGenres(ctx context.Context, db catalog.CatalogDBI, names []string) ([]int64, error) {
	var dbids []int64
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		m.mu.Lock()
		dbid, ok := m.ids[name]
		m.mu.Unlock()

		if !ok {
			genre, err := db.FindOrCreateGenre(ctx, name)
			if err != nil {
				return nil, err
			}
			dbid = genre.DBID

			m.mu.Lock()
			m.ids[name] = dbid
			m.mu.Unlock()
		}
		dbids = append(dbids, dbid)
	}
	return dbids, nil
}
