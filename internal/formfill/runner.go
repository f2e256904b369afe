package formfill

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
)

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	// Headless runs the browser without a window. Off by default so the demo
	// is watchable; CI sets it.
	Headless bool

	// HoldOpen keeps the page on screen after the last action, so a human can
	// inspect the filled form before the browser closes.
	HoldOpen time.Duration

	Logger *slog.Logger
}

// Runner executes form plans in a Chromium instance via Playwright.
//
// A Runner owns one Playwright driver process; Close releases it. Each
// Execute call launches a fresh browser so plans never leak state into each
// other.
type Runner struct {
	pw       *playwright.Playwright
	headless bool
	holdOpen time.Duration
	log      *slog.Logger
}

// NewRunner installs the Playwright driver if needed and starts it.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("formfill: install playwright: %w", err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("formfill: start playwright: %w", err)
	}

	return &Runner{
		pw:       pw,
		headless: opts.Headless,
		holdOpen: opts.HoldOpen,
		log:      log,
	}, nil
}

// Close stops the Playwright driver.
func (r *Runner) Close() error {
	return r.pw.Stop()
}

// Execute validates the plan, opens its target, and applies each action in
// order. The first failing action aborts the plan with an error naming the
// step.
func (r *Runner) Execute(plan Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	target, err := plan.TargetURL()
	if err != nil {
		return err
	}

	browser, err := r.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(r.headless),
	})
	if err != nil {
		return fmt.Errorf("formfill: launch browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.NewPage()
	if err != nil {
		return fmt.Errorf("formfill: new page: %w", err)
	}

	if _, err := page.Goto(target); err != nil {
		return fmt.Errorf("formfill: open %s: %w", target, err)
	}
	r.log.Info("form page opened", "target", target)

	for i, a := range plan.Actions {
		if err := applyAction(page, a); err != nil {
			return fmt.Errorf("formfill: action %d (%s %s): %w", i, a.Op, a.Selector, err)
		}
		r.log.Debug("action applied", "op", string(a.Op), "selector", a.Selector)
	}

	if r.holdOpen > 0 {
		time.Sleep(r.holdOpen)
	}
	return nil
}

func applyAction(page playwright.Page, a Action) error {
	switch a.Op {
	case OpFill:
		return page.Fill(a.Selector, a.Value)
	case OpSelect:
		_, err := page.SelectOption(a.Selector, playwright.SelectOptionValues{
			Values: playwright.StringSlice(a.Value),
		})
		return err
	case OpCheck:
		return page.Check(a.Selector)
	case OpClick:
		return page.Click(a.Selector)
	default:
		return fmt.Errorf("unknown op %q", a.Op)
	}
}
