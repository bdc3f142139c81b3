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

// Package catalog defines the canonical catalog data model and the
// persistence contract the resolution engine runs against. Concrete
// implementations live in catalog/catalogdb.
package catalog

import (
	"context"
	"time"
)

// Platform identifies a streaming platform a record was scraped from.
// The set is closed: new platforms require a schema-compatible release.
type Platform string

// Supported platforms.
const (
	PlatformFilimo Platform = "filimo"
	PlatformNamava Platform = "namava"
)

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformFilimo, PlatformNamava:
		return true
	default:
		return false
	}
}

// ContentKind distinguishes movies from series.
type ContentKind string

// Content kinds.
const (
	KindMovie  ContentKind = "movie"
	KindSeries ContentKind = "series"
)

// Valid reports whether k is a known content kind.
func (k ContentKind) Valid() bool {
	return k == KindMovie || k == KindSeries
}

// CreditRole classifies a credit entry on a canonical item.
type CreditRole string

// Credit roles.
const (
	RoleDirector CreditRole = "director"
	RoleProducer CreditRole = "producer"
	RoleActor    CreditRole = "actor"
)

// Year bounds for canonical items. Anything outside this range is a
// scraper bug, not a real release year.
const (
	MinYear = 1900
	MaxYear = 2030
)

// CanonicalItem is the single deduplicated record for one work,
// regardless of how many platforms list it. Uniqueness is enforced at
// the store level on (Title, Year); the exact-match rule additionally
// guarantees no two items share a (Slug, Year) pair.
type CanonicalItem struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	Title     string
	TitleEn   string
	Slug      string
	SlugEn    string
	Kind      ContentKind
	Genres    []string
	DBID      int64
	Year      int
}

// SourceMapping links a canonical item to one platform's specific
// listing of it. (Platform, SourceID) is globally unique; ingesting the
// same listing twice never creates a second mapping.
type SourceMapping struct {
	CreatedAt  time.Time
	Platform   Platform
	SourceID   string
	URL        string
	RawPayload string
	DBID       int64
	ItemDBID   int64
}

// GenreTag is a normalized genre label shared across items.
type GenreTag struct {
	Name string
	DBID int64
}

// Credit is one cast or crew entry on a canonical item.
type Credit struct {
	Role          CreditRole
	Name          string
	CharacterName string
	DBID          int64
	ItemDBID      int64
	SortOrder     int
}

// NewItem describes a canonical item to be created, together with the
// source mapping and metadata that must be committed atomically with
// it. Genre rows are shared across items and created up front via
// FindOrCreateGenre; only the links are written inside the create
// transaction.
type NewItem struct {
	Title      string
	TitleEn    string
	Slug       string
	SlugEn     string
	Kind       ContentKind
	GenreDBIDs []int64
	Credits    []Credit
	Source     SourceMapping
	Year       int
}

// CatalogDBI is the persistence boundary for the resolution engine.
// Implementations must back it with a store that supports unique
// constraints; the create path relies on constraint violations to
// serialize concurrent creation of the same work.
type CatalogDBI interface {
	Open() error
	MigrateUp() error
	Close() error

	// GetItem fetches an item by identifier. Returns nil, nil when the
	// item does not exist; used to confirm cache hits against the store.
	GetItem(ctx context.Context, dbid int64) (*CanonicalItem, error)

	// FindItemBySlugYear returns the lowest-DBID item whose native or
	// English slug equals slug and whose year equals year exactly.
	// Returns nil, nil on no match.
	FindItemBySlugYear(ctx context.Context, slug string, year int) (*CanonicalItem, error)

	// FindItemsByYearWindow returns up to limit items with year in
	// [minYear, maxYear] and matching kind, ordered by DBID so that
	// tie-breaking among equal fuzzy scores is deterministic.
	FindItemsByYearWindow(ctx context.Context, minYear, maxYear int, kind ContentKind, limit int) ([]CanonicalItem, error)

	// FindItemsByTitleBase returns items whose stored title contains
	// base and whose year equals year exactly, ordered by DBID.
	FindItemsByTitleBase(ctx context.Context, base string, year int) ([]CanonicalItem, error)

	// CreateItemWithSource atomically creates a canonical item, its
	// genre links, its credits, and its first source mapping in a
	// single transaction. A unique-constraint violation on the item is
	// reported as ErrUniquenessConflict; the caller re-runs matching.
	CreateItemWithSource(ctx context.Context, item NewItem) (*CanonicalItem, error)

	// UpsertSourceMapping idempotently links a platform listing to an
	// item. Returns created=false when the (platform, source_id) pair
	// already exists; that still counts as "mapping present".
	UpsertSourceMapping(ctx context.Context, m SourceMapping) (created bool, err error)

	// FindOrCreateGenre returns the genre with the given name, creating
	// it on first sight. Safe under concurrent creation of the same
	// name (unique constraint + retry).
	FindOrCreateGenre(ctx context.Context, name string) (GenreTag, error)

	// BackfillItemTitleEn sets the English title on an item only when
	// the stored value is empty. Populated fields are never overwritten.
	BackfillItemTitleEn(ctx context.Context, dbid int64, titleEn, slugEn string) error
}
