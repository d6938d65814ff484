// Package anchor probes external anchor URLs. Anchoring itself (posting the
// signature to a platform) happens outside this system; the checker only
// confirms that a URL the operator is about to record actually resolves.
package anchor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Checker verifies anchor URL reachability before an anchor is recorded.
type Checker struct {
	client *resty.Client
}

// NewChecker creates a checker with the given request timeout.
// Parameters:
//   - timeout: per-request timeout; 0 selects 10 seconds.
// Returns:
//   - *Checker: configured checker.
func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
		SetHeader("User-Agent", "sigil-anchor/1.0")
	return &Checker{client: client}
}

// Check confirms the URL responds with a non-error status. Some platforms
// reject HEAD, so a failed HEAD falls back to GET before giving up.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - url: http(s) anchor URL.
// Returns:
//   - error: non-nil if the URL is malformed or unreachable.
func (c *Checker) Check(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("anchor url %q is not an http(s) url", url)
	}

	resp, err := c.client.R().SetContext(ctx).Head(url)
	if err == nil && resp.StatusCode() < 400 {
		return nil
	}

	resp, err = c.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return fmt.Errorf("anchor url unreachable: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("anchor url returned status %d", resp.StatusCode())
	}
	return nil
}
