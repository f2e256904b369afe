// Package extract applies declarative CSS-selector schemas to HTML documents.
//
// A schema is pure configuration: a base selector locating repeated records,
// plus named field selectors evaluated relative to each record. Extraction is
// deterministic: the same schema against the same input bytes produces the
// same records in document order.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// One parses the given HTML string and applies fields relative to the
// document root.
//
// This is the "single object" extraction mode: fields are evaluated against
// the full document and returned as a single JSON-ready map.
//
// Missing selectors are not treated as errors; they simply produce no output.
func One(html string, fields []Field) (map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return parseSelection(doc.Selection, fields)
}

// Records parses the given HTML string and extracts one JSON-ready map per
// record container matched by baseSelector.
//
// Each element matched by baseSelector becomes an independent extraction
// root, and fields are evaluated relative to that root.
//
// The returned slice preserves DOM order. Zero matches yields an empty slice,
// not an error.
func Records(html, baseSelector string, fields []Field) ([]map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return extractRecords(doc, baseSelector, fields), nil
}

// extractRecords iterates all record containers matched by baseSelector and
// extracts one map per container.
//
// This helper is resilient by design: if extraction for a given record returns
// an error (e.g., invalid regex in a field), that record is skipped so the
// remaining records still come through.
func extractRecords(doc *goquery.Document, baseSelector string, fields []Field) []map[string]any {
	var records []map[string]any

	doc.Find(baseSelector).Each(func(_ int, rec *goquery.Selection) {
		obj, err := parseSelection(rec, fields)
		if err != nil {
			// Skip a bad record rather than failing the entire page.
			return
		}
		if len(obj) > 0 {
			records = append(records, obj)
		}
	})

	return records
}

// parseSelection applies all fields relative to root and returns a JSON-ready map.
//
// Semantics:
//   - If Field.All is true, all selector matches are collected into []string.
//   - Otherwise, only the first match is extracted.
//   - If Field.Match is set, it is treated as a regular expression:
//   - If the regex contains capturing groups, group 1 is used as output.
//   - Otherwise, the full match is used.
//     If the regex does not match, the field is omitted.
//
// Resilience:
// Missing selectors are not treated as errors; they simply produce no output.
func parseSelection(root *goquery.Selection, fields []Field) (map[string]any, error) {
	output := make(map[string]any)

	for _, field := range fields {
		re, err := compileOptionalRegex(field.Match, field.Name)
		if err != nil {
			return nil, err
		}

		if field.All {
			var vals []string
			root.Find(field.Selector).Each(func(_ int, sel *goquery.Selection) {
				if v := applyRegexFilter(field.valueFrom(sel), re); v != "" {
					vals = append(vals, v)
				}
			})
			if len(vals) > 0 {
				output[field.Name] = vals
			}
			continue
		}

		sel := root.Find(field.Selector).First()
		if sel.Length() == 0 {
			continue
		}
		if v := applyRegexFilter(field.valueFrom(sel), re); v != "" {
			output[field.Name] = v
		}
	}

	return output, nil
}

// compileOptionalRegex compiles pattern into a regexp.Regexp.
//
// If pattern is empty, it returns (nil, nil).
// If pattern is invalid, it returns an error annotated with the field name to
// make debugging schema configurations straightforward.
func compileOptionalRegex(pattern, fieldName string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex for field=%q: %w", fieldName, err)
	}
	return re, nil
}

// applyRegexFilter applies an optional regex post-processing step to value.
//
// Behavior:
//   - If re is nil, it returns value unchanged.
//   - If re does not match, it returns "" (caller should omit the field).
//   - If re matches and contains capture groups, group 1 is returned.
//   - If re matches with no capture groups, the full match is returned.
func applyRegexFilter(value string, re *regexp.Regexp) string {
	if value == "" || re == nil {
		return value
	}

	sm := re.FindStringSubmatch(value)
	if len(sm) == 0 {
		return ""
	}
	if len(sm) > 1 {
		return sm[1]
	}
	return sm[0]
}
