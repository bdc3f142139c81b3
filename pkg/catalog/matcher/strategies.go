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
	"context"
	"fmt"

	"github.com/VodHubProject/vodhub-core/pkg/catalog"
	"github.com/VodHubProject/vodhub-core/pkg/catalog/titles"
	"github.com/rs/zerolog/log"
)

// Strategy names, reported on a successful match for logging and cache
// diagnostics.
const (
	StrategyExact     = "exact"
	StrategyFuzzy     = "fuzzy"
	StrategyVariation = "variation"
)

// Config holds the tunables of the matching pipeline.
type Config struct {
	// Threshold is the minimum fuzzy score accepted as a match. The
	// source deployments disagreed between 0.85 and 0.90; 0.85 is the
	// documented default here, tunable per deployment.
	Threshold float64

	// YearTolerance widens the fuzzy candidate window to [year-t, year+t].
	// Regional release dates put the same work off by one on different
	// platforms.
	YearTolerance int

	// CandidateLimit caps how many candidates the fuzzy strategy
	// examines, keeping worst-case cost linear and predictable.
	CandidateLimit int
}

// DefaultConfig returns the default matching configuration.
func DefaultConfig() Config {
	return Config{
		Threshold:      0.85,
		YearTolerance:  1,
		CandidateLimit: 100,
	}
}

// Strategy is one algorithm in the ordered matching pipeline. A
// strategy returns nil, nil when it has no match; errors are reserved
// for store failures.
type Strategy interface {
	Name() string
	TryMatch(ctx context.Context, rec *catalog.ScrapedRecord) (*catalog.CanonicalItem, error)
}

// Pipeline is the fixed, ordered set of matching strategies
// {exact, fuzzy, variation}, short-circuiting on the first hit. No
// dynamic registration: the variant set is closed.
type Pipeline struct {
	strategies []Strategy
}

// NewPipeline builds the standard pipeline against the given store.
func NewPipeline(db catalog.CatalogDBI, vars *VariationTable, cfg Config) *Pipeline {
	if vars == nil {
		vars = DefaultTable()
	}
	return &Pipeline{
		strategies: []Strategy{
			&exactStrategy{db: db},
			&fuzzyStrategy{db: db, vars: vars, cfg: cfg},
			&variationStrategy{db: db, vars: vars},
		},
	}
}

// FindMatch runs the strategies in order and returns the first match
// together with the name of the strategy that produced it. Returns
// nil, "", nil when every strategy misses; the resolver then creates a
// new canonical item.
func (p *Pipeline) FindMatch(ctx context.Context, rec *catalog.ScrapedRecord) (*catalog.CanonicalItem, string, error) {
	for _, s := range p.strategies {
		item, err := s.TryMatch(ctx, rec)
		if err != nil {
			return nil, "", fmt.Errorf("%s strategy: %w", s.Name(), err)
		}
		if item != nil {
			log.Debug().
				Str("strategy", s.Name()).
				Str("title", rec.Title).
				Int("year", rec.ReleaseYear).
				Int64("item_dbid", item.DBID).
				Msg("match found")
			return item, s.Name(), nil
		}
	}
	return nil, "", nil
}

// exactStrategy matches an item whose year equals exactly and whose
// normalized title (native or English field) equals the scraped
// normalized title. First match wins; no scoring.
type exactStrategy struct {
	db catalog.CatalogDBI
}

func (*exactStrategy) Name() string { return StrategyExact }

func (s *exactStrategy) TryMatch(ctx context.Context, rec *catalog.ScrapedRecord) (*catalog.CanonicalItem, error) {
	if rec.ReleaseYear == 0 {
		return nil, nil
	}

	keys := []string{titles.Normalize(rec.Title)}
	if en := titles.Normalize(rec.TitleEn); en != "" && en != keys[0] {
		keys = append(keys, en)
	}

	for _, key := range keys {
		if key == "" {
			continue
		}
		item, err := s.db.FindItemBySlugYear(ctx, key, rec.ReleaseYear)
		if err != nil {
			return nil, err
		}
		if item != nil {
			return item, nil
		}
	}
	return nil, nil
}

// fuzzyStrategy scores candidates within the year window against the
// scraped title and accepts the best score at or above the threshold.
// Candidates arrive ordered by DBID, so ties at equal best score break
// deterministically to the first-seen (lowest-DBID) item.
type fuzzyStrategy struct {
	db   catalog.CatalogDBI
	vars *VariationTable
	cfg  Config
}

func (*fuzzyStrategy) Name() string { return StrategyFuzzy }

func (s *fuzzyStrategy) TryMatch(ctx context.Context, rec *catalog.ScrapedRecord) (*catalog.CanonicalItem, error) {
	if rec.ReleaseYear == 0 {
		return nil, nil
	}

	candidates, err := s.db.FindItemsByYearWindow(ctx,
		rec.ReleaseYear-s.cfg.YearTolerance,
		rec.ReleaseYear+s.cfg.YearTolerance,
		rec.Kind,
		s.cfg.CandidateLimit,
	)
	if err != nil {
		return nil, err
	}

	recSlug := titles.Normalize(rec.Title)

	var best *catalog.CanonicalItem
	bestScore := 0.0

	for i := range candidates {
		cand := &candidates[i]
		score := s.scoreCandidate(rec, cand)

		// Either stored slug can carry the curated rendering: native
		// items often hold the English variant in SlugEn.
		if score < VariationBoost &&
			(s.vars.sharesBase(recSlug, cand.Slug) || s.vars.sharesBase(recSlug, cand.SlugEn)) {
			score = VariationBoost
		}

		if score > bestScore && score >= s.cfg.Threshold {
			bestScore = score
			best = cand
		}
	}

	if best != nil {
		log.Info().
			Str("title", rec.Title).
			Str("matched", best.Title).
			Int("year", best.Year).
			Float64("score", bestScore).
			Msg("fuzzy match accepted")
	}
	return best, nil
}

// scoreCandidate takes the best similarity across the available title
// pairs, so a transliterated scrape can still match an item stored
// under its native title plus an English one.
func (s *fuzzyStrategy) scoreCandidate(rec *catalog.ScrapedRecord, cand *catalog.CanonicalItem) float64 {
	score := Score(rec.Title, cand.Title)
	if cand.TitleEn != "" {
		if v := Score(rec.Title, cand.TitleEn); v > score {
			score = v
		}
	}
	if rec.TitleEn != "" {
		if v := Score(rec.TitleEn, cand.Title); v > score {
			score = v
		}
	}
	return score
}

// variationStrategy resolves scraped titles that are known alternates
// of a curated base title: it looks for an item whose stored title
// contains the base and whose year matches exactly. Multiple hits are
// ambiguous and conservatively treated as no-match.
type variationStrategy struct {
	db   catalog.CatalogDBI
	vars *VariationTable
}

func (*variationStrategy) Name() string { return StrategyVariation }

func (s *variationStrategy) TryMatch(ctx context.Context, rec *catalog.ScrapedRecord) (*catalog.CanonicalItem, error) {
	if rec.ReleaseYear == 0 {
		return nil, nil
	}

	for _, base := range s.vars.BasesFor(rec.Title) {
		items, err := s.db.FindItemsByTitleBase(ctx, base, rec.ReleaseYear)
		if err != nil {
			return nil, err
		}
		switch len(items) {
		case 0:
			continue
		case 1:
			return &items[0], nil
		default:
			// Guessing here would silently merge distinct works.
			log.Warn().
				Str("title", rec.Title).
				Str("base", base).
				Int("year", rec.ReleaseYear).
				Int("candidates", len(items)).
				Err(catalog.ErrAmbiguousMatch).
				Msg("variation lookup ambiguous, skipping")
			continue
		}
	}
	return nil, nil
}
