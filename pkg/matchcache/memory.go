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

package matchcache

import (
	"context"
	"time"

	"github.com/VodHubProject/vodhub-core/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
)

type memoryEntry struct {
	expiresAt time.Time
	itemDBID  int64
}

// MemoryCache implements Client in process memory. Used when no Redis
// address is configured, and by tests, which drive expiry through a
// fake clock.
type MemoryCache struct {
	clock   clockwork.Clock
	entries map[string]memoryEntry
	mu      syncutil.RWMutex
}

// NewMemoryCache creates an in-process match cache on the real clock.
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithClock(clockwork.NewRealClock())
}

// NewMemoryCacheWithClock creates an in-process match cache on the
// given clock.
func NewMemoryCacheWithClock(clock clockwork.Clock) *MemoryCache {
	return &MemoryCache{
		clock:   clock,
		entries: make(map[string]memoryEntry),
	}
}

// Get returns the cached item identifier for (title, year). Expired
// entries are misses; they are deleted lazily on the next Set.
func (c *MemoryCache) Get(_ context.Context, title string, year int) (int64, bool) {
	c.mu.RLock()
	entry, ok := c.entries[Key(title, year)]
	c.mu.RUnlock()

	if !ok || c.clock.Now().After(entry.expiresAt) {
		return 0, false
	}
	return entry.itemDBID, true
}

// Set records a resolved match and sweeps any entries that have
// already expired.
func (c *MemoryCache) Set(_ context.Context, title string, year int, itemDBID int64, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.entries[Key(title, year)] = memoryEntry{
		itemDBID:  itemDBID,
		expiresAt: now.Add(ttl),
	}
}

// Close is a no-op for the in-process cache.
func (c *MemoryCache) Close() error {
	return nil
}
