// Package formfill drives a real browser through a declarative list of form
// actions. The dashboard's demo page ships as a local fixture; the same plan
// format works against any URL.
package formfill

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Op is the kind of a form action.
type Op string

const (
	// OpFill types a value into a text input or textarea.
	OpFill Op = "fill"
	// OpSelect chooses a dropdown option by its value attribute.
	OpSelect Op = "select"
	// OpCheck ticks a checkbox.
	OpCheck Op = "check"
	// OpClick clicks an element (submit buttons, links).
	OpClick Op = "click"
)

// Action is one step of a form plan.
type Action struct {
	Op       Op     `json:"op" yaml:"op"`
	Selector string `json:"selector" yaml:"selector"`
	Value    string `json:"value,omitempty" yaml:"value,omitempty"`
}

// Plan is an ordered list of form actions against one page.
type Plan struct {
	// Target is the page to open: a URL or a local file path.
	Target  string   `json:"target" yaml:"target"`
	Actions []Action `json:"actions" yaml:"actions"`
}

// Validate checks the plan is executable before a browser is launched.
// Launching a browser to discover a typo'd op is a slow way to fail.
func (p Plan) Validate() error {
	if strings.TrimSpace(p.Target) == "" {
		return fmt.Errorf("formfill: plan has no target")
	}
	if len(p.Actions) == 0 {
		return fmt.Errorf("formfill: plan has no actions")
	}
	for i, a := range p.Actions {
		if a.Selector == "" {
			return fmt.Errorf("formfill: action %d (%s) has no selector", i, a.Op)
		}
		switch a.Op {
		case OpFill, OpSelect:
			if a.Value == "" {
				return fmt.Errorf("formfill: action %d (%s %s) needs a value", i, a.Op, a.Selector)
			}
		case OpCheck, OpClick:
			// No value.
		default:
			return fmt.Errorf("formfill: action %d has unknown op %q", i, a.Op)
		}
	}
	return nil
}

// TargetURL converts the plan target into something a browser can navigate
// to: URLs pass through, local paths become file:// URLs.
func (p Plan) TargetURL() (string, error) {
	t := strings.TrimSpace(p.Target)
	if strings.HasPrefix(t, "http://") || strings.HasPrefix(t, "https://") || strings.HasPrefix(t, "file://") {
		return t, nil
	}
	abs, err := filepath.Abs(t)
	if err != nil {
		return "", fmt.Errorf("formfill: resolve target path: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// DemoPlan fills the bundled demo form: name and email inputs, a country
// dropdown, and a newsletter checkbox.
func DemoPlan(fixture, name, email string) Plan {
	return Plan{
		Target: fixture,
		Actions: []Action{
			{Op: OpFill, Selector: "#name", Value: name},
			{Op: OpFill, Selector: "#email", Value: email},
			{Op: OpSelect, Selector: "#country", Value: "taiwan"},
			{Op: OpCheck, Selector: "#subscribe"},
		},
	}
}
