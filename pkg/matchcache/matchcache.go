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

// Package matchcache is the write-through match cache in front of the
// resolution pipeline. It maps a normalized (title, year) key to the
// canonical item identifier a previous resolution decided on, so that
// repeat ingests of hot titles skip the candidate scan entirely.
//
// The cache is advisory: every hit is confirmed against the store
// before use, and every cache failure degrades to a miss. Resolution
// never fails because the cache is down.
package matchcache

import (
	"context"
	"fmt"
	"time"
)

// DefaultTTL is how long a cached match stays valid without a refresh.
// Write-through on every resolution keeps hot titles alive past this.
const DefaultTTL = time.Hour

// Key builds the cache key for a normalized title and release year.
func Key(title string, year int) string {
	return fmt.Sprintf("match:%s:%d", title, year)
}

// Client is the match cache contract. Implementations must treat every
// backend failure as a miss on Get and a no-op on Set; callers never
// see cache errors.
type Client interface {
	// Get returns the cached item identifier for (title, year) and
	// whether one was present and unexpired.
	Get(ctx context.Context, title string, year int) (int64, bool)

	// Set records that (title, year) resolved to itemDBID, expiring
	// after ttl. A ttl of zero or below uses DefaultTTL.
	Set(ctx context.Context, title string, year int, itemDBID int64, ttl time.Duration)

	// Close releases backend connections. Safe to call more than once.
	Close() error
}
