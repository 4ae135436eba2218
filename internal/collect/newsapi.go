package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/tkoide/newsround/internal/article"
)

const newsAPIBaseURL = "https://newsapi.org/v2/everything"

// NewsAPISource queries newsapi.org for articles matching a configured query.
type NewsAPISource struct {
	apiKey string
	query  string
	client *http.Client
}

// NewNewsAPISource creates a NewsAPI source reading the key from the named
// environment variable.
func NewNewsAPISource(apiKeyEnv, query string) *NewsAPISource {
	return &NewsAPISource{
		apiKey: os.Getenv(apiKeyEnv),
		query:  query,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns the source name.
func (s *NewsAPISource) Name() string { return "NewsAPI" }

// Fetch searches for items published within daysBack.
func (s *NewsAPISource) Fetch(ctx context.Context, daysBack int) ([]article.RawItem, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("NewsAPI key not configured")
	}

	fromDate := time.Now().AddDate(0, 0, -daysBack).Format("2006-01-02")
	toDate := time.Now().Format("2006-01-02")

	params := url.Values{
		"q":        {s.query},
		"from":     {fromDate},
		"to":       {toDate},
		"pageSize": {"100"},
		"sortBy":   {"relevancy"},
	}

	req, err := http.NewRequestWithContext(ctx, "GET", newsAPIBaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("NewsAPI HTTP %d", resp.StatusCode)
	}

	var result struct {
		Status   string `json:"status"`
		Articles []struct {
			URL         string `json:"url"`
			Title       string `json:"title"`
			PublishedAt string `json:"publishedAt"`
			Content     string `json:"content"`
			Description string `json:"description"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding NewsAPI response: %w", err)
	}
	if result.Status != "ok" {
		return nil, fmt.Errorf("NewsAPI status %q", result.Status)
	}

	var items []article.RawItem
	for _, a := range result.Articles {
		if a.URL == "" || a.Title == "" {
			continue
		}
		if a.Title == "[Removed]" || a.URL == "https://removed.com" {
			continue
		}

		var published time.Time
		if a.PublishedAt != "" {
			if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
				published = t
			}
		}

		body := a.Content
		if body == "" {
			body = a.Description
		}

		source := "NewsAPI"
		if a.Source.Name != "" {
			source = a.Source.Name
		}

		items = append(items, article.RawItem{
			Source:    source,
			URL:       a.URL,
			Title:     strings.TrimSpace(a.Title),
			Body:      strings.TrimSpace(body),
			Published: published,
		})
	}
	return items, nil
}
