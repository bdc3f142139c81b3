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
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// opTimeout caps every cache round trip. A slow cache must never slow
// resolution down by more than this.
const opTimeout = 250 * time.Millisecond

// RedisCache implements Client on a Redis backend.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache connects to the Redis instance at addr
// ("host:port"). Connection problems surface later as logged misses,
// not here; the cache is allowed to be down at startup.
func NewRedisCache(addr string) *RedisCache {
	return &RedisCache{
		rdb: redis.NewClient(&redis.Options{
			Addr:         addr,
			DialTimeout:  opTimeout,
			ReadTimeout:  opTimeout,
			WriteTimeout: opTimeout,
		}),
	}
}

// Get looks up a cached match. Any backend or parse failure is logged
// and reported as a miss.
func (c *RedisCache) Get(ctx context.Context, title string, year int) (int64, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	key := Key(title, year)
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Debug().Err(err).Str("key", key).Msg("match cache get failed, treating as miss")
		}
		return 0, false
	}

	dbid, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", val).Msg("malformed match cache value, treating as miss")
		return 0, false
	}
	return dbid, true
}

// Set records a resolved match. Failures are logged and dropped.
func (c *RedisCache) Set(ctx context.Context, title string, year int, itemDBID int64, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	key := Key(title, year)
	if err := c.rdb.Set(ctx, key, strconv.FormatInt(itemDBID, 10), ttl).Err(); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("match cache set failed, dropping")
	}
}

// Close closes the underlying Redis connection.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
