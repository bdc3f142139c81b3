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

// Package matcher finds existing canonical items for scraped records.
// It provides the similarity scorer, the curated variation table, and
// the ordered matching-strategy pipeline.
package matcher

import (
	"unicode/utf8"

	"github.com/VodHubProject/vodhub-core/pkg/catalog/titles"
	"github.com/hbollon/go-edlib"
)

// Score computes a bounded [0,1] similarity between two raw titles.
// Both inputs are normalized first; either side normalizing to ""
// scores 0.0, and exact normalized equality scores 1.0 (shortcut, and
// it removes floating-point ambiguity at the boundary).
//
// Otherwise the score is the maximum of two independent measures:
//
//   - an LCS sequence ratio, robust for near-identical native-script
//     variants where a few characters differ
//   - Jaro-Winkler similarity, which weights matching prefixes and
//     tolerates the character-level drift of transliterated titles
//     ("metri shish o nim" vs "metri shesh o nim")
//
// Taking the max makes the scorer robust to either failure mode
// without needing language detection: transliteration variance defeats
// pure edit distance, while phonetic-style metrics under-score long
// native-script titles.
func Score(a, b string) float64 {
	na := titles.Normalize(a)
	nb := titles.Normalize(b)

	if na == "" || nb == "" {
		return 0.0
	}
	if na == nb {
		return 1.0
	}

	lcs := lcsRatio(na, nb)
	jw := float64(edlib.JaroWinklerSimilarity(na, nb))

	if lcs > jw {
		return lcs
	}
	return jw
}

// lcsRatio is the classic sequence-matcher ratio: twice the length of
// the longest common subsequence over the combined length, in runes.
func lcsRatio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 0.0
	}
	return 2.0 * float64(edlib.LCS(a, b)) / float64(total)
}
