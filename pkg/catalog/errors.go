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

package catalog

import "errors"

// Error taxonomy for the resolution engine. Callers classify failures
// with errors.Is; wrapping preserves the underlying store error.
var (
	// ErrValidation marks a scraped record missing required fields
	// (title or year). Not retried; the record is skipped and counted
	// as an error by the ingestion pipeline.
	ErrValidation = errors.New("invalid scraped record")

	// ErrUniquenessConflict marks a unique-constraint violation on
	// create. Not a failure: the resolver converts it into a re-run of
	// the matching pipeline, where the just-created row will match.
	ErrUniquenessConflict = errors.New("uniqueness conflict")

	// ErrTransientStore marks a connection, timeout, or lock failure
	// against the persistent store. Retried a small bounded number of
	// times at the resolver boundary.
	ErrTransientStore = errors.New("transient store error")

	// ErrAmbiguousMatch marks a variation lookup that found multiple
	// candidate items. Treated as no-match rather than a guess; logged
	// for curation follow-up.
	ErrAmbiguousMatch = errors.New("ambiguous variation match")
)
