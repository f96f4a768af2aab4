// Package fetch retrieves full text for candidate documents. It is the
// engine's fetch port: downstream evidence enrichment pulls quotes and
// summaries out of the text it returns.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/reedko/truthtrollers-engine/internal/model"
	"github.com/reedko/truthtrollers-engine/internal/util"
	"github.com/reedko/truthtrollers-engine/internal/worker"
)

// Fetcher retrieves the readable text of a candidate document.
type Fetcher interface {
	GetText(ctx context.Context, doc model.CandidateDoc) (string, error)
}

// HTTPFetcher fetches pages over HTTP and strips them down to visible text.
type HTTPFetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
}

// Options configures an HTTPFetcher.
type Options struct {
	Timeout       time.Duration
	UserAgent     string
	MaxBodyBytes  int64
	RespectRobots bool
	HTTPProxy     string
	HTTPSProxy    string
	NoProxy       string
}

// NewHTTPFetcher creates a fetcher with the given options.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "TruthTrollers/0.1 (+https://github.com/reedko/truthtrollers-engine)"
	}
	if opts.MaxBodyBytes == 0 {
		opts.MaxBodyBytes = 2_000_000
	}

	var robots *util.RobotsChecker
	if opts.RespectRobots {
		robots = util.NewRobotsChecker(util.NormalizeUserAgent(opts.UserAgent), 5*time.Second)
	}

	return &HTTPFetcher{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBodyBytes,
		robots:    robots,
		limiter:   worker.NewLimiter(2, 4),
	}
}

// GetText fetches the candidate URL and returns its visible text.
func (f *HTTPFetcher) GetText(ctx context.Context, doc model.CandidateDoc) (string, error) {
	if doc.URL == "" {
		return "", fmt.Errorf("candidate has no URL")
	}

	if f.robots != nil && !f.robots.IsAllowed(ctx, doc.URL) {
		return "", fmt.Errorf("disallowed by robots.txt: %s", doc.URL)
	}

	if err := f.limiter.Wait(ctx, doc.URL); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, doc.URL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/html") || strings.Contains(contentType, "xhtml") || contentType == "" {
		return ExtractVisibleText(string(body))
	}

	return string(body), nil
}

// ExtractVisibleText parses HTML and returns its visible text, skipping
// scripts, styles and embedded frames.
func ExtractVisibleText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return strings.TrimSpace(buf.String()), nil
}
