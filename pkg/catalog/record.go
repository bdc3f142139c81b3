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

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ScrapedRecord is one platform listing as handed over by the crawling
// layer. Title and ReleaseYear are required; everything else is
// optional. RawPayload is preserved verbatim for audit and
// re-processing and is never interpreted by this engine.
type ScrapedRecord struct {
	Title       string      `validate:"required"`
	TitleEn     string      `validate:"omitempty"`
	Kind        ContentKind `validate:"required,kind"`
	Genres      []string    `validate:"omitempty,dive,required"`
	Platform    Platform    `validate:"required,platform"`
	SourceID    string      `validate:"required"`
	URL         string      `validate:"omitempty,url"`
	RawPayload  string
	Credits     []Credit
	ReleaseYear int `validate:"required,gte=1900,lte=2030"`
}

var recordValidate = newRecordValidator()

func newRecordValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Enum validators for types the built-ins can't cover
	_ = v.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
		return Platform(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("kind", func(fl validator.FieldLevel) bool {
		return ContentKind(fl.Field().String()).Valid()
	})

	return v
}

// Validate checks that the record carries everything resolution needs.
// Failures wrap ErrValidation so the ingestion pipeline can classify
// them without string matching.
func (r *ScrapedRecord) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if err := recordValidate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrValidation, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
