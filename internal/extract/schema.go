package extract

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Field is one extraction rule, evaluated relative to the document root or to
// a record container (depending on whether the schema sets BaseSelector).
type Field struct {
	Name     string `json:"name"`            // key in the output record
	Selector string `json:"selector"`        // relative CSS selector
	Type     string `json:"type"`            // "text" or "attr"
	Attr     string `json:"attr,omitempty"`  // used when Type == "attr"
	Match    string `json:"match,omitempty"` // optional regex filter (applies to extracted value)
	All      bool   `json:"all,omitempty"`   // optional: collect all matches into []string
}

// valueFrom converts one matched node into this field's string value, before
// the optional regex filter. An empty string means "no value here"; callers
// omit the key.
func (f Field) valueFrom(sel *goquery.Selection) string {
	switch f.Type {
	case "", "text":
		// Text is the default so hand-written schemas can omit "type".
		return strings.TrimSpace(sel.Text())

	case "attr":
		if f.Attr == "" {
			return ""
		}
		if val, ok := sel.Attr(f.Attr); ok {
			return strings.TrimSpace(val)
		}
		return ""

	default:
		// Unknown extraction types intentionally produce no value.
		return ""
	}
}

// Schema describes a declarative extraction: a base selector locating repeated
// records on a page, plus the fields pulled out of each record.
//
// When BaseSelector is empty the schema operates in single-object mode: fields
// are evaluated once against the whole document.
type Schema struct {
	Name         string  `json:"name,omitempty"`
	BaseSelector string  `json:"base_selector,omitempty"`
	Fields       []Field `json:"fields"`
}

// LoadSchema loads and validates a JSON schema file.
func LoadSchema(path string) (*Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}

	var s Schema
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse schema json: %w", err)
	}

	if len(s.Fields) == 0 {
		return nil, fmt.Errorf("schema has no fields")
	}
	for i, f := range s.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("schema field %d has no name", i)
		}
		if f.Selector == "" {
			return nil, fmt.Errorf("schema field %q has no selector", f.Name)
		}
	}
	return &s, nil
}
