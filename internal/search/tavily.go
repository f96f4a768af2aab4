package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/reedko/truthtrollers-engine/internal/model"
	"github.com/reedko/truthtrollers-engine/internal/worker"
)

const defaultTavilyBaseURL = "https://api.tavily.com"

// TavilyClient implements the Searcher interface against the Tavily
// search API.
type TavilyClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *worker.Limiter
}

// TavilyConfig holds Tavily backend configuration.
type TavilyConfig struct {
	APIKey            string
	BaseURL           string
	Timeout           int // seconds
	RequestsPerSecond float64
	Burst             int
}

// Tavily API structures
type tavilyRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results,omitempty"`
	SearchDepth    string   `json:"search_depth,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
}

type tavilyResponse struct {
	Query   string `json:"query"`
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		Score         float64 `json:"score"`
		PublishedDate string  `json:"published_date,omitempty"`
	} `json:"results"`
}

type tavilyError struct {
	Detail string `json:"detail"`
}

// NewTavilyClient creates a new Tavily search client. An empty API key is
// allowed: the client then answers every query with zero candidates so
// the pipeline degrades instead of failing.
func NewTavilyClient(config TavilyConfig) *TavilyClient {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultTavilyBaseURL
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 4
	}

	return &TavilyClient{
		apiKey:  config.APIKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: worker.NewLimiter(rps, config.Burst),
	}
}

// Name returns the backend name
func (c *TavilyClient) Name() string {
	return "tavily"
}

// Search runs one query against the Tavily API.
func (c *TavilyClient) Search(ctx context.Context, req Request) ([]model.CandidateDoc, error) {
	if c.apiKey == "" {
		// No credentials: zero candidates, not an error
		return []model.CandidateDoc{}, nil
	}

	if err := c.limiter.Wait(ctx, c.baseURL); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	topK := req.TopK
	if topK <= 0 {
		topK = 8
	}

	apiReq := tavilyRequest{
		APIKey:      c.apiKey,
		Query:       req.Query,
		MaxResults:  topK,
		SearchDepth: "basic",
		// Tavily's include_domains is a hard allowlist, so the advisory
		// preference only maps onto it in strict mode.
		ExcludeDomains: req.Avoid,
	}
	if req.Strict {
		apiReq.IncludeDomains = req.Prefer
	}

	resp, err := c.makeRequest(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	docs := make([]model.CandidateDoc, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.URL == "" {
			continue
		}
		docs = append(docs, model.CandidateDoc{
			URL:         r.URL,
			Title:       r.Title,
			Domain:      domainOf(r.URL),
			Snippet:     r.Content,
			Score:       r.Score,
			PublishedAt: r.PublishedDate,
			Source:      model.SourceWebSearch,
		})
		if len(docs) >= topK {
			break
		}
	}

	return docs, nil
}

// makeRequest makes an HTTP request to the Tavily API
func (c *TavilyClient) makeRequest(ctx context.Context, apiReq tavilyRequest) (*tavilyResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/search", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr tavilyError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Detail != "" {
			return nil, fmt.Errorf("API error (%d): %s", httpResp.StatusCode, apiErr.Detail)
		}
		return nil, fmt.Errorf("API error (%d): %s", httpResp.StatusCode, string(respBody))
	}

	var resp tavilyResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &resp, nil
}

// domainOf extracts the host from a URL, empty on parse failure.
func domainOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Host, "www.")
}
