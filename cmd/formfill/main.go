// Command formfill opens a page in a real browser and fills its form from a
// declarative plan.
//
// Usage (bundled demo form):
//
//	formfill -target fixtures/form_demo.html -name "Eric Yang" -email eric@example.com
//
// Usage (plan file):
//
//	formfill -plan plan.yaml
//
// The browser stays open for -hold (default 3s) after the last action so the
// filled form is visible.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"ratewatch/internal/formfill"
	"ratewatch/internal/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run is split out from main so we can unit test flag handling without a
// browser.
//
// It returns a Unix-style exit code:
//   - 0 for success
//   - 2 for usage/config errors
//   - 1 for operational/runtime errors
func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("formfill", flag.ContinueOnError)
	fs.SetOutput(stderr)

	planPath := fs.String("plan", "", "Path to a YAML plan file")
	target := fs.String("target", "", "Page to open (URL or local HTML file)")
	name := fs.String("name", "Eric Yang", "Name to fill into the demo form")
	email := fs.String("email", "eric@example.com", "Email to fill into the demo form")
	headless := fs.Bool("headless", false, "Run the browser without a window")
	hold := fs.Duration("hold", 3*time.Second, "Keep the page open after the last action")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	plan, code := loadPlan(*planPath, *target, *name, *email, stderr)
	if code != 0 {
		return code
	}
	if err := plan.Validate(); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}

	runner, err := formfill.NewRunner(formfill.RunnerOptions{
		Headless: *headless,
		HoldOpen: *hold,
		Logger:   logger.New(logger.Options{}),
	})
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer runner.Close()

	if err := runner.Execute(plan); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	return 0
}

// loadPlan builds the plan from either a plan file or the demo-form flags.
func loadPlan(planPath, target, name, email string, stderr io.Writer) (formfill.Plan, int) {
	if planPath != "" {
		data, err := os.ReadFile(planPath)
		if err != nil {
			fmt.Fprintf(stderr, "read plan: %v\n", err)
			return formfill.Plan{}, 2
		}
		var plan formfill.Plan
		if err := yaml.Unmarshal(data, &plan); err != nil {
			fmt.Fprintf(stderr, "parse plan: %v\n", err)
			return formfill.Plan{}, 2
		}
		return plan, 0
	}

	if target == "" {
		fmt.Fprintf(stderr, "need -plan or -target\n")
		return formfill.Plan{}, 2
	}
	return formfill.DemoPlan(target, name, email), 0
}
