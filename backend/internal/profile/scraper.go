// Package profile discovers avatars from public profile pages.
package profile

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	apperrors "vouch-graph/backend/pkg/errors"
	"vouch-graph/backend/pkg/logger"
)

// avatarSelectors are tried in order; the first non-empty content wins
var avatarSelectors = []string{
	`meta[property="og:image"]`,
	`meta[name="twitter:image"]`,
	`link[rel="apple-touch-icon"]`,
}

// Scraper fetches profile pages built from a URL template
type Scraper struct {
	template   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewScraper creates a scraper for template, a fmt pattern taking the
// URL-escaped handle (for example "https://warpcast.com/%s").
func NewScraper(template string, timeout time.Duration) *Scraper {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Scraper{
		template:   template,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("profile"),
	}
}

// AvatarURL returns the avatar advertised on handle's profile page, or "" when
// the page has none.
func (s *Scraper) AvatarURL(ctx context.Context, handle string) (string, error) {
	handle = strings.TrimSpace(handle)
	if s == nil || s.template == "" || handle == "" {
		return "", nil
	}
	pageURL := fmt.Sprintf(s.template, url.PathEscape(handle))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid profile url %q: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; VouchGraph/1.0)")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewSourceUnavailable(pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.NewSourceUnavailable(pageURL, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	// 512KB is plenty for a page head
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return "", fmt.Errorf("failed to parse profile page: %w", err)
	}

	for _, sel := range avatarSelectors {
		attr := "content"
		if strings.HasPrefix(sel, "link") {
			attr = "href"
		}
		if v, ok := doc.Find(sel).First().Attr(attr); ok && strings.TrimSpace(v) != "" {
			return absolute(pageURL, strings.TrimSpace(v)), nil
		}
	}

	s.logger.Debug("Profile page has no avatar", zap.String("handle", handle))
	return "", nil
}

func absolute(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
