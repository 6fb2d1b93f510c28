package crawler

import "errors"

// Recoverable fetch errors. A scrape attempt that fails with one of these is
// retried up to the policy's attempt budget; anything else drops the URL
// immediately.
var (
	ErrNavigationTimeout = errors.New("navigation timed out")
	ErrSelectorTimeout   = errors.New("selector did not appear")
)

// ErrNoRecipe marks a page that loaded fine but yielded no usable recipe
// (missing title or ingredients, even after the LLM fallback). Not retried.
var ErrNoRecipe = errors.New("no recipe extracted from page")

// IsRecoverable reports whether a scrape error is worth retrying.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrNavigationTimeout) || errors.Is(err, ErrSelectorTimeout)
}
