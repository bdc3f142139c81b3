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

package matcher

import (
	"sort"

	"github.com/VodHubProject/vodhub-core/pkg/catalog/titles"
)

// VariationBoost is the effective similarity assigned when both sides
// of a fuzzy comparison are known renderings of the same base title.
// Kept above any sane fuzzy threshold so a curated variation always
// clears it.
const VariationBoost = 0.95

// VariationTable maps canonical base titles to their known alternate
// renderings (transliterations, translations). It is curated
// out-of-band, read-only at run time, and consulted only as a
// corroborating signal, never a sole disqualifier.
type VariationTable struct {
	variants map[string][]string
	bases    []string
}

// NewVariationTable builds a table from base → alternates entries. All
// keys and values are normalized on construction, so callers may pass
// raw curated strings. Bases are kept sorted so lookups that scan the
// table resolve in a deterministic order.
func NewVariationTable(entries map[string][]string) *VariationTable {
	t := &VariationTable{variants: make(map[string][]string, len(entries))}
	for base, alts := range entries {
		nb := titles.Normalize(base)
		if nb == "" {
			continue
		}
		seen := make(map[string]bool, len(alts)+1)
		normalized := make([]string, 0, len(alts))
		for _, alt := range alts {
			na := titles.Normalize(alt)
			if na == "" || na == nb || seen[na] {
				continue
			}
			seen[na] = true
			normalized = append(normalized, na)
		}
		t.variants[nb] = normalized
		t.bases = append(t.bases, nb)
	}
	sort.Strings(t.bases)
	return t
}

// DefaultTable returns the curated table of known title variations for
// the catalog's Persian content.
func DefaultTable() *VariationTable {
	return NewVariationTable(map[string][]string{
		"متری شیش و نیم": {"metri shish o nim", "metri shesh o nim", "just 6.5"},
		"شقایق":          {"shaghayegh"},
		"خانه پدری":      {"khane pedari", "khaneh pedari", "the paternal house"},
		"جدایی نادر از سیمین": {"jodaeiye nader az simin", "a separation"},
		"فروشنده":        {"forushande", "the salesman"},
	})
}

// VariantsOf returns the known alternate renderings of base, compared
// and returned in normalized form. The result is nil when the base is
// unknown.
func (t *VariationTable) VariantsOf(base string) []string {
	return t.variants[titles.Normalize(base)]
}

// IsVariationOf reports whether candidate is a known alternate
// rendering of base. Comparison is on normalized forms; the base
// itself also counts as a rendering of itself.
func (t *VariationTable) IsVariationOf(base, candidate string) bool {
	nb := titles.Normalize(base)
	nc := titles.Normalize(candidate)
	if nb == "" || nc == "" {
		return false
	}
	if nb == nc {
		return true
	}
	for _, v := range t.variants[nb] {
		if v == nc {
			return true
		}
	}
	return false
}

// BasesFor returns every base title that lists candidate among its
// known renderings, in sorted order. Usually zero or one entries; more
// than one means the curated table itself is ambiguous for this title.
func (t *VariationTable) BasesFor(candidate string) []string {
	nc := titles.Normalize(candidate)
	if nc == "" {
		return nil
	}
	var bases []string
	for _, base := range t.bases {
		for _, v := range t.variants[base] {
			if v == nc {
				bases = append(bases, base)
				break
			}
		}
	}
	return bases
}

// sharesBase reports whether a and b (normalized) are both known
// renderings of at least one common base title. Used by the fuzzy
// strategy to apply VariationBoost.
func (t *VariationTable) sharesBase(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	for _, base := range t.bases {
		if (base == a || contains(t.variants[base], a)) &&
			(base == b || contains(t.variants[base], b)) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
