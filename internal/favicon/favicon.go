// Package favicon derives a display icon URL for an application link. The
// contract is "never fails, sometimes degrades": every path resolves to some
// URL, with a deterministic generated placeholder as the floor.
package favicon

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// DefaultServiceBase is the third-party favicon service queried first.
const DefaultServiceBase = "https://www.google.com/s2/favicons"

// DefaultTimeout bounds a full resolution attempt.
const DefaultTimeout = 2 * time.Second

var domainPattern = regexp.MustCompile(`^(?:https?://)?(?:www\.)?([^/]+)`)

// ExtractDomain returns the hostname of rawURL with a leading "www."
// stripped. On parse failure it falls back to a best-effort regexp match and
// returns "" only if neither succeeds.
func ExtractDomain(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		return strings.TrimPrefix(u.Hostname(), "www.")
	}
	if m := domainPattern.FindStringSubmatch(strings.TrimSpace(rawURL)); m != nil {
		return m[1]
	}
	return ""
}

// Placeholder generates an inline SVG data URL showing the domain's first
// character, uppercased, white on black. The output is deterministic for a
// given domain; an empty domain yields "?".
func Placeholder(domain string) string {
	initial := "?"
	if domain != "" {
		runes := []rune(domain)
		initial = string(unicode.ToUpper(runes[0]))
	}

	svg := fmt.Sprintf(`<svg width="64" height="64" xmlns="http://www.w3.org/2000/svg"><rect width="64" height="64" fill="#000000"/><text x="32" y="42" font-family="Arial, sans-serif" font-size="36" font-weight="bold" fill="#FFFFFF" text-anchor="middle" dominant-baseline="middle">%s</text></svg>`, initial)
	return "data:image/svg+xml;charset=utf-8," + url.PathEscape(svg)
}

// Resolver fetches icons with a bounded budget.
type Resolver struct {
	client      *http.Client
	serviceBase string
	timeout     time.Duration
}

type Option func(*Resolver)

func WithClient(client *http.Client) Option {
	return func(r *Resolver) { r.client = client }
}

func WithServiceBase(base string) Option {
	return func(r *Resolver) { r.serviceBase = base }
}

func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		client:      &http.Client{Timeout: DefaultTimeout},
		serviceBase: DefaultServiceBase,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SyncURL immediately returns the favicon-service URL keyed by the link's
// domain, without verifying it resolves. Used for optimistic display.
func (r *Resolver) SyncURL(applyURL string) string {
	domain := ExtractDomain(applyURL)
	if domain == "" {
		return Placeholder("")
	}
	return r.serviceURL(domain)
}

func (r *Resolver) serviceURL(domain string) string {
	return fmt.Sprintf("%s?domain=%s&sz=64", r.serviceBase, url.QueryEscape(domain))
}

// ResolveWithFallback attempts to confirm a real icon for the link and falls
// back to the deterministic placeholder. The attempt races against a fixed
// timeout; whichever finishes first is the single result. A slow fetch is
// abandoned, never surfaced as an error.
func (r *Resolver) ResolveWithFallback(ctx context.Context, applyURL string) string {
	domain := ExtractDomain(applyURL)
	if domain == "" {
		return Placeholder("")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// Buffered so the prober never blocks after the race is decided.
	result := make(chan string, 1)
	go func() {
		result <- r.probeAll(fetchCtx, applyURL, domain)
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case resolved := <-result:
		return resolved
	case <-timer.C:
		return Placeholder(domain)
	case <-ctx.Done():
		return Placeholder(domain)
	}
}

// probeAll tries the favicon service, then an icon link declared in the
// page head, then the origin's /favicon.ico, before giving up.
func (r *Resolver) probeAll(ctx context.Context, applyURL, domain string) string {
	if r.probe(ctx, r.serviceURL(domain)) {
		return r.serviceURL(domain)
	}
	if iconURL, ok := r.discoverIconLink(ctx, applyURL); ok && r.probe(ctx, iconURL) {
		return iconURL
	}
	if iconURL, ok := originFavicon(applyURL); ok && r.probe(ctx, iconURL) {
		return iconURL
	}
	return Placeholder(domain)
}

// probe reports whether target serves a successful response.
func (r *Resolver) probe(ctx context.Context, target string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// discoverIconLink fetches the page and looks for a <link rel=icon> in its
// head, resolving relative hrefs against the page URL.
func (r *Resolver) discoverIconLink(ctx context.Context, pageURL string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", false
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", false
	}

	href, exists := doc.Find(`link[rel="icon"], link[rel="shortcut icon"], link[rel="apple-touch-icon"]`).First().Attr("href")
	if !exists || strings.TrimSpace(href) == "" {
		return "", false
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return href, true
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}

func originFavicon(applyURL string) (string, bool) {
	u, err := url.Parse(applyURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return fmt.Sprintf("%s://%s/favicon.ico", u.Scheme, u.Host), true
}
