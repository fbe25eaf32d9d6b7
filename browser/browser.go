// Package browser wraps page-level automation behind a small interface so
// the UI scenarios depend only on navigation, element lookup, and
// visibility/text reads. The real implementation drives headless Chrome.
package browser

import "time"

// Page is one exclusively owned browser page. A scenario that acquires a
// Page must release it with Close on every exit path; pages are never reused
// across scenarios.
type Page interface {
	Navigate(url string) error
	SetValue(selector, value string) error
	Click(selector string) error
	WaitVisible(selector string, timeout time.Duration) error
	Text(selector string) (string, error)
	IsVisible(selector string, timeout time.Duration) bool
	Title() (string, error)
	Close()
}
