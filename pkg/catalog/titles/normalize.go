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

// Package titles normalizes platform titles into comparison keys.
//
// Platforms list the same work under titles that differ by case,
// punctuation, digits (Persian vs. ASCII), Arabic vs. Persian letter
// forms, and filler words. Normalize collapses all of that so that the
// matching strategies compare like with like.
package titles

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Normalization pipeline:
//
//	Stage 1: Width folding - fullwidth/halfwidth forms to canonical width
//	Stage 2: Unicode normalization - NFKC, then diacritic stripping for
//	         Latin text ("Pokémon" → "Pokemon")
//	Stage 3: Persian folding - Arabic-Indic and Extended Arabic-Indic
//	         digits → ASCII, Arabic yeh/kaf → Persian forms, tashkeel
//	         removed, ZWNJ treated as a word boundary
//	Stage 4: Lowercase
//	Stage 5: Punctuation stripping - anything that is not a word
//	         character or whitespace becomes a space (script-agnostic)
//	Stage 6: Whitespace collapse + stop-word removal (English + Persian)
//
// Normalize is deterministic, pure, and idempotent:
//
//	Normalize(Normalize(x)) == Normalize(x)
//
// Empty or all-filler input normalizes to "". Callers treat an empty
// key as "cannot match", never as an error.

var nonWordRegex = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)

// arabicToPersian maps Arabic letter forms to the Persian forms used by
// both platforms' native titles. Keyboards and upstream APIs mix these
// freely for the same word.
var arabicToPersian = strings.NewReplacer(
	"ي", "ی", // ي → ی
	"ك", "ک", // ك → ک
	"ة", "ه", // ة → ه
)

// digitFold maps Persian (U+06F0..U+06F9) and Arabic-Indic
// (U+0660..U+0669) digits to ASCII. Filimo serves release years in
// Persian digits; Namava serves ASCII.
var digitFold = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// isASCII checks if a string contains only ASCII characters. Used to
// skip the Unicode transform stages for plain English titles.
func isASCII(s string) bool {
	for i := range s {
		if s[i] >= 128 {
			return false
		}
	}
	return true
}

// removeDiacritics strips combining marks. This removes both Latin
// diacritics and Arabic tashkeel (the optional vowel marks platforms
// sometimes include in Persian titles).
func removeDiacritics(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	if normalized, _, err := transform.String(t, s); err == nil {
		return normalized
	}
	return s
}

// foldUnicode applies stages 1-3 of the pipeline.
func foldUnicode(s string) string {
	if folded, _, err := transform.String(width.Fold, s); err == nil {
		s = folded
	}
	s = norm.NFKC.String(s)
	s = removeDiacritics(s)
	s = arabicToPersian.Replace(s)
	s = digitFold.Replace(s)
	// ZWNJ joins Persian compound words ("خانه‌پدری"); treat it as a
	// word boundary so joined and spaced spellings compare equal.
	s = strings.ReplaceAll(s, "‌", " ")
	return s
}

// Normalize canonicalizes a raw title into a comparison key. Returns ""
// for empty or missing input; absence of a title is not an error here.
func Normalize(title string) string {
	if title == "" {
		return ""
	}

	s := strings.TrimSpace(title)
	if !isASCII(s) {
		s = foldUnicode(s)
	}
	s = strings.ToLower(s)
	s = nonWordRegex.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if !stopWords[w] {
			kept = append(kept, w)
		}
	}

	return strings.Join(kept, " ")
}

// FoldDigits converts Persian and Arabic-Indic digits in s to ASCII.
// Exposed for crawling-layer callers that parse release years out of
// platform payloads.
func FoldDigits(s string) string {
	return digitFold.Replace(s)
}
