// Package suite contains the scenario definitions for the expense service:
// smoke checks, authentication, expense CRUD, multi-step lifecycles,
// local-oracle validation, and browser-level UI flows.
package suite

import (
	"github.com/mybank/expense-contract-tests/browser"
	"github.com/mybank/expense-contract-tests/config"
	"github.com/mybank/expense-contract-tests/framework"
)

// Options select optional parts of the suite.
type Options struct {
	// Browser enables the UI scenario group.
	Browser bool
	// NewPage overrides how browser pages are created; tests inject fakes
	// here. When nil, headless Chrome is used.
	NewPage func() (browser.Page, error)
}

// RunTestSuite executes every scenario group against the harness's service
// and returns the accumulated results.
func RunTestSuite(
	harness *framework.Harness,
	cfg *config.Config,
	opts Options,
	filter framework.Filter,
	testLogger framework.TestLogger,
) framework.Results {
	if opts.NewPage == nil {
		opts.NewPage = func() (browser.Page, error) {
			return browser.NewChromePage(true)
		}
	}
	env := &environment{
		harness: harness,
		cfg:     cfg,
		opts:    opts,
	}
	return framework.Run(filter, testLogger, func(c *framework.Context) {
		t := newScope(c, env)

		t.Run("smoke", DoSmokeTests)
		t.Run("auth", DoAuthTests)
		t.Run("expenses", DoExpenseCRUDTests)
		t.Run("lifecycle", DoLifecycleTests)
		t.Run("validation", DoValidationTests)
		t.Run("ui", DoUITests)
	})
}
