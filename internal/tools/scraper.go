package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

const maxPageChars = 20000

// Page is the web_page output.
type Page struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Excerpt   string `json:"excerpt,omitempty"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
}

// ScraperTool implements web_page: fetch a URL and extract the readable
// article text.
type ScraperTool struct {
	userAgent string
	client    *http.Client
	policy    *bluemonday.Policy
}

type scraperOptions struct {
	allow func(netip.AddrPort) bool
}

type ScraperOption func(*scraperOptions)

// AllowPrivateHosts lets the scraper connect to loopback and private
// network addresses.
func AllowPrivateHosts() ScraperOption {
	return func(o *scraperOptions) { o.allow = nil }
}

// NewScraperTool returns a web_page capability. By default it only connects
// to public addresses, checked at dial time so DNS names and redirects are
// covered too.
func NewScraperTool(userAgent string, timeout time.Duration, opts ...ScraperOption) *ScraperTool {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	o := scraperOptions{allow: publicAddrPort}
	for _, opt := range opts {
		opt(&o)
	}

	client := &http.Client{Timeout: timeout}
	if o.allow != nil {
		client.Transport = guardedTransport(o.allow)
	}
	return &ScraperTool{
		userAgent: userAgent,
		client:    client,
		policy:    bluemonday.StrictPolicy(),
	}
}

func (s *ScraperTool) Name() Action {
	return ActionWebPage
}

func (s *ScraperTool) Description() string {
	return "Fetch a webpage URL and extract the main content as clean, sanitized text."
}

func (s *ScraperTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "The full URL of the webpage (e.g., https://example.com/article)",
			},
		},
		"required": []string{"url"},
	}
}

func (s *ScraperTool) Invoke(ctx context.Context, params map[string]any) (any, error) {
	raw, err := requiredString(params, "url")
	if err != nil {
		return nil, err
	}
	parsedURL, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", parsedURL.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsedURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status code %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse article: %w", err)
	}

	content := strings.TrimSpace(s.policy.Sanitize(article.TextContent))
	page := &Page{
		URL:     parsedURL.String(),
		Title:   strings.TrimSpace(article.Title),
		Excerpt: strings.TrimSpace(article.Excerpt),
	}
	page.Content, page.Truncated = truncate(content, maxPageChars)
	return page, nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) (string, bool) {
	if utf8.RuneCountInString(s) <= n {
		return s, false
	}
	r := []rune(s)
	return string(r[:n]), true
}
