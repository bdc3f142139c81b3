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

// Package catalogdb is the SQLite implementation of catalog.CatalogDBI.
package catalogdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
)

// ErrNullSQL is returned when a query runs against an unopened database.
var ErrNullSQL = errors.New("catalog database is not connected")

// CatalogDB implements catalog.CatalogDBI on SQLite. All methods are
// safe for concurrent use; correctness under concurrent creation rests
// on the schema's unique constraints, not in-process locks.
type CatalogDB struct {
	sql  *sql.DB
	path string
}

// NewCatalogDB creates an unopened database handle for the given file
// path.
func NewCatalogDB(path string) *CatalogDB {
	return &CatalogDB{path: path}
}

// OpenCatalogDB creates, opens, and migrates a catalog database.
func OpenCatalogDB(path string) (*CatalogDB, error) {
	db := NewCatalogDB(path)
	if err := db.Open(); err != nil {
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Open connects to the database file, creating parent directories as
// needed. Foreign keys are enabled so source mappings, genre links,
// and credits cascade on item deletion; busy_timeout keeps concurrent
// writers from failing immediately with SQLITE_BUSY.
func (db *CatalogDB) Open() error {
	if err := os.MkdirAll(filepath.Dir(db.path), 0o750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	dsn := db.path + "?_foreign_keys=ON&_busy_timeout=5000&_journal_mode=WAL"
	sqlInstance, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("failed to open catalog database: %w", err)
	}
	db.sql = sqlInstance
	return nil
}

// MigrateUp applies pending schema migrations.
func (db *CatalogDB) MigrateUp() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMigrateUp(db.sql)
}

// Close closes the underlying connection. Safe to call on an unopened
// database.
func (db *CatalogDB) Close() error {
	if db.sql == nil {
		return nil
	}
	err := db.sql.Close()
	db.sql = nil
	if err != nil {
		return fmt.Errorf("failed to close catalog database: %w", err)
	}
	return nil
}

// GetDBPath returns the database file path.
func (db *CatalogDB) GetDBPath() string {
	return db.path
}

// UnsafeGetSQLDb exposes the raw connection for tests and maintenance
// tooling only.
func (db *CatalogDB) UnsafeGetSQLDb() *sql.DB {
	return db.sql
}

// SetSQLForTesting installs an externally opened connection and runs
// migrations against it. Used by tests with temp-file databases.
func (db *CatalogDB) SetSQLForTesting(sqlDB *sql.DB, path string) error {
	db.sql = sqlDB
	db.path = path
	return db.MigrateUp()
}

// isUniqueViolation reports whether err is a unique or primary-key
// constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrConstraint &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}

// isTransient reports whether err is a lock or busy condition that a
// bounded retry can reasonably clear.
func isTransient(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}
