// RetailScope - E-Commerce Customer Segmentation and Market Basket Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the shared struct validator. validator.Validate caches struct
// metadata, so a single instance is reused for every call.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the configuration is internally consistent.
//
// Field-level constraints (ranges, enums, required fields) are declared as
// validate struct tags and enforced by go-playground/validator; cross-field
// rules that tags cannot express are checked explicitly afterwards.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if ok := asValidationErrors(err, &verrs); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid value for %s (rule %q)", fieldPath(fe), fe.Tag())
		}
		return err
	}

	if err := c.validateSegmentLabels(); err != nil {
		return err
	}

	return c.validateInputFormat()
}

// validateSegmentLabels enforces the rank-to-label contract: the label tier
// list must match the cluster count exactly, since clusters are labeled by
// descending mean-monetary rank.
func (c *Config) validateSegmentLabels() error {
	if len(c.Analysis.SegmentLabels) != c.Analysis.Clusters {
		return fmt.Errorf("analysis.segment_labels has %d entries but analysis.clusters is %d; one label tier per cluster is required",
			len(c.Analysis.SegmentLabels), c.Analysis.Clusters)
	}

	for i, label := range c.Analysis.SegmentLabels {
		if strings.TrimSpace(label) == "" {
			return fmt.Errorf("analysis.segment_labels[%d] is empty", i)
		}
	}

	return nil
}

// validateInputFormat checks that an explicit format matches the input path
// when format resolution is not automatic.
func (c *Config) validateInputFormat() error {
	if c.Input.Format != "auto" {
		return nil
	}

	path := strings.ToLower(c.Input.Path)
	switch {
	case strings.HasSuffix(path, ".csv"), strings.HasSuffix(path, ".csv.gz"):
		return nil
	case strings.HasSuffix(path, ".xlsx"):
		return nil
	default:
		return fmt.Errorf("input.format is auto but the extension of %q is not recognized; set input.format to csv or xlsx", c.Input.Path)
	}
}

// fieldPath renders a validator namespace like Config.Analysis.MinSupport as
// the config key analysis.min_support for error messages.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		ns = ns[idx+1:]
	}

	var b strings.Builder
	for i, part := range strings.Split(ns, ".") {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(camelToSnake(part))
	}
	return b.String()
}

// camelToSnake converts MinSupport to min_support.
func camelToSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				prev := rune(s[i-1])
				if prev < 'A' || prev > 'Z' {
					b.WriteByte('_')
				}
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// asValidationErrors unwraps err into validator.ValidationErrors.
func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors) //nolint:errorlint // validator returns the slice directly
	if ok {
		*target = verrs
	}
	return ok
}
