// Package serper talks to the Serper Google search and page-scrape APIs.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultSearchURL = "https://google.serper.dev/search"
	DefaultScrapeURL = "https://scrape.serper.dev"

	defaultTimeout = 30 * time.Second
	resultsPerPage = 10
	pastWeek       = "qdr:w"
)

var ErrMissingAPIKey = errors.New("serper: missing API key")

type Config struct {
	SearchURL  string
	ScrapeURL  string
	APIKey     string // used by Scrape; Search takes the key per call
	HTTPClient *http.Client
}

type Client struct {
	searchURL  string
	scrapeURL  string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	searchURL := strings.TrimSpace(cfg.SearchURL)
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	scrapeURL := strings.TrimSpace(cfg.ScrapeURL)
	if scrapeURL == "" {
		scrapeURL = DefaultScrapeURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		searchURL:  searchURL,
		scrapeURL:  scrapeURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: httpClient,
	}
}

type SearchRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num"`
	Page  int    `json:"page"`
	TBS   string `json:"tbs,omitempty"`
}

// NewSearchRequest builds the request the collector issues: ten results, past week only.
func NewSearchRequest(query string, page int) SearchRequest {
	return SearchRequest{Query: query, Num: resultsPerPage, Page: page, TBS: pastWeek}
}

type OrganicResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

type SearchResponse struct {
	Organic []OrganicResult `json:"organic"`
}

type scrapeRequest struct {
	URL             string `json:"url"`
	IncludeMarkdown bool   `json:"includeMarkdown"`
}

type ScrapeResponse struct {
	Markdown string `json:"markdown"`
	Text     string `json:"text"`
}

// Search runs one results page. A response with no organic items is not an error.
func (c *Client) Search(ctx context.Context, apiKey string, in SearchRequest) (SearchResponse, error) {
	if c == nil {
		return SearchResponse{}, errors.New("serper: nil client")
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return SearchResponse{}, ErrMissingAPIKey
	}
	var out SearchResponse
	if err := c.post(ctx, c.searchURL, apiKey, in, &out); err != nil {
		return SearchResponse{}, err
	}
	return out, nil
}

func (c *Client) Scrape(ctx context.Context, pageURL string) (ScrapeResponse, error) {
	if c == nil {
		return ScrapeResponse{}, errors.New("serper: nil client")
	}
	if c.apiKey == "" {
		return ScrapeResponse{}, ErrMissingAPIKey
	}
	var out ScrapeResponse
	body := scrapeRequest{URL: strings.TrimSpace(pageURL), IncludeMarkdown: true}
	if err := c.post(ctx, c.scrapeURL, c.apiKey, body, &out); err != nil {
		return ScrapeResponse{}, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, endpoint, apiKey string, in any, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("serper: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("serper: build request: %w", err)
	}
	req.Header.Set("X-API-KEY", apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("serper: request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("serper: API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(rb)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("serper: decode response: %w", err)
	}
	return nil
}
