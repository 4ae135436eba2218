// Package fetch pulls full article text for items whose feed body is too
// thin to fingerprint reliably. A failed fetch keeps the feed excerpt; it
// never fails the article.
package fetch

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"

	"github.com/tkoide/newsround/internal/article"
)

// thinBodyRunes is the body length below which full content is fetched.
const thinBodyRunes = 500

// Result holds the outcome of a content fetch pass.
type Result struct {
	Fetched int
	Skipped int
	Failed  int
}

// ContentFetcher fetches full article text via HTTP plus readability
// extraction.
type ContentFetcher struct {
	client *http.Client
}

// NewContentFetcher creates a content fetcher.
func NewContentFetcher(timeout time.Duration) *ContentFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &ContentFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// FillThinBodies replaces thin bodies with extracted full text where
// possible. Once a domain errors, remaining articles from it are skipped.
func (f *ContentFetcher) FillThinBodies(ctx context.Context, articles []*article.Article) *Result {
	result := &Result{}
	failedDomains := make(map[string]struct{})

	for _, a := range articles {
		if utf8.RuneCountInString(a.Body) >= thinBodyRunes {
			result.Skipped++
			continue
		}

		domain := ""
		if u, err := url.Parse(a.URL); err == nil {
			domain = strings.ToLower(u.Host)
		}
		if _, failed := failedDomains[domain]; failed {
			result.Failed++
			continue
		}

		content, err := f.fetchArticleContent(ctx, a.URL)
		if err != nil {
			result.Failed++
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			log.Printf("Fetch error for %s, skipping remaining from %s", a.URL, domain)
			continue
		}

		if content != "" {
			a.Body = content
			result.Fetched++
		} else {
			result.Failed++
		}
	}

	log.Printf("Content fetch complete: %d fetched, %d already full, %d failed",
		result.Fetched, result.Skipped, result.Failed)
	return result
}

func (f *ContentFetcher) fetchArticleContent(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", articleURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "newsround/1.0 (news aggregator)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	parsedURL, _ := url.Parse(articleURL)
	extracted, err := readability.FromReader(strings.NewReader(string(bodyBytes)), parsedURL)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(extracted.TextContent)
	if utf8.RuneCountInString(text) > 100 {
		return strings.Join(strings.Fields(text), " "), nil
	}
	return "", nil
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
