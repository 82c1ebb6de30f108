package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

const cseEndpoint = "https://www.googleapis.com/customsearch/v1"

// GoogleClient queries the Google Custom Search JSON API. The outreach
// pipeline uses it to scrape executive names from public LinkedIn results.
type GoogleClient struct {
	apiKey   string
	engineID string
	endpoint string
	client   *http.Client
	logger   *logrus.Logger
}

func NewGoogleClient(apiKey, engineID string, logger *logrus.Logger) *GoogleClient {
	if logger == nil {
		logger = logrus.New()
	}
	return &GoogleClient{
		apiKey:   apiKey,
		engineID: engineID,
		endpoint: cseEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

// Result is one search hit, trimmed to what the pipeline consumes.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type cseResponse struct {
	Items []Result `json:"items"`
}

// Search runs one query and returns at most limit results.
func (g *GoogleClient) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if g.apiKey == "" || g.engineID == "" {
		return nil, fmt.Errorf("google custom search not configured")
	}
	if limit <= 0 || limit > 10 {
		limit = 5
	}

	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("cx", g.engineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("custom search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("custom search returned status %d", resp.StatusCode)
	}
	var parsed cseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("custom search response decode failed: %w", err)
	}
	return parsed.Items, nil
}

// FindExecutives scrapes public profiles for the given positions at a
// company, one query per position.
func (g *GoogleClient) FindExecutives(ctx context.Context, companyName string, positions []string) ([]map[string]string, error) {
	if len(positions) == 0 {
		positions = []string{"CEO", "Co-CEO", "VP"}
	}

	var scraped []map[string]string
	for _, position := range positions {
		query := fmt.Sprintf("Present %s at %s site:linkedin.com", position, companyName)
		results, err := g.Search(ctx, query, 5)
		if err != nil {
			g.logger.WithError(err).WithField("position", position).Warn("executive search failed")
			continue
		}
		for _, r := range results {
			scraped = append(scraped, map[string]string{
				"name":     r.Title,
				"position": position,
				"snippet":  r.Snippet,
			})
		}
	}
	if len(scraped) == 0 {
		return nil, fmt.Errorf("no executives found for %s", companyName)
	}
	return scraped, nil
}
