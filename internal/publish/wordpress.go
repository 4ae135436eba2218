// Package publish sends enriched, slugged articles to the content-management
// backend. Failures are classified HTTP-style (auth, rate-limit, validation,
// transient) so the retry policy only touches the transient class.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/tkoide/newsround/internal/retry"
)

// FailureClass classifies a publish failure for the run report.
type FailureClass string

const (
	FailureAuth       FailureClass = "auth"
	FailureRateLimit  FailureClass = "rate_limit"
	FailureValidation FailureClass = "validation"
	FailureTransient  FailureClass = "transient"
)

// Error is a classified publish failure.
type Error struct {
	Class  FailureClass
	Status int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("publish %s (HTTP %d): %s", e.Class, e.Status, e.Msg)
}

// Post is the payload handed to the backend.
type Post struct {
	Title    string
	Slug     string
	Body     string // HTML
	Excerpt  string
	Tags     []string
	Category int
	Author   int
	Status   string
}

// Result identifies the created post.
type Result struct {
	PostID int64
	URL    string
}

// Publisher is the external content-management collaborator.
type Publisher interface {
	Publish(ctx context.Context, post Post) (Result, error)
}

// WordPressClient publishes via the WordPress REST API using an application
// password over Basic auth.
type WordPressClient struct {
	baseURL string
	user    string
	appPass string
	client  *http.Client

	tagMu    sync.Mutex
	tagCache map[string]int64
}

// NewWordPressClient creates a client. The application password is read from
// the named environment variable.
func NewWordPressClient(baseURL, user, appPassEnv string) *WordPressClient {
	return &WordPressClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		user:     user,
		appPass:  os.Getenv(appPassEnv),
		client:   &http.Client{Timeout: 30 * time.Second},
		tagCache: make(map[string]int64),
	}
}

// IsConfigured reports whether credentials are present.
func (c *WordPressClient) IsConfigured() bool {
	return c.baseURL != "" && c.user != "" && c.appPass != ""
}

// Publish creates one post. Network errors, 429 and 5xx come back tagged
// transient; 401/403 and 400/422 are permanent.
func (c *WordPressClient) Publish(ctx context.Context, post Post) (Result, error) {
	payload := map[string]any{
		"title":   post.Title,
		"slug":    post.Slug,
		"content": post.Body,
		"excerpt": post.Excerpt,
		"status":  post.Status,
	}
	if post.Category > 0 {
		payload["categories"] = []int{post.Category}
	}
	if post.Author > 0 {
		payload["author"] = post.Author
	}
	if len(post.Tags) > 0 {
		// Tag resolution is best effort; a post without tags beats no post.
		if ids := c.resolveTags(ctx, post.Tags); len(ids) > 0 {
			payload["tags"] = ids
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("marshaling post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/wp-json/wp/v2/posts", bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.user, c.appPass)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "newsround/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, retry.Transient(&Error{Class: FailureTransient, Msg: err.Error()})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, classify(resp.StatusCode, string(body))
	}

	var created struct {
		ID   int64  `json:"id"`
		Link string `json:"link"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return Result{}, fmt.Errorf("decoding response: %w", err)
	}
	return Result{PostID: created.ID, URL: created.Link}, nil
}

// resolveTags maps tag names to term IDs, creating missing tags. Results are
// cached for the lifetime of the client.
func (c *WordPressClient) resolveTags(ctx context.Context, names []string) []int64 {
	c.tagMu.Lock()
	defer c.tagMu.Unlock()

	var ids []int64
	for _, name := range names {
		if id, ok := c.tagCache[name]; ok {
			ids = append(ids, id)
			continue
		}
		id, err := c.findTag(ctx, name)
		if err == nil && id == 0 {
			id, err = c.createTag(ctx, name)
		}
		if err != nil {
			log.Printf("Tag %q could not be resolved: %v", name, err)
			continue
		}
		c.tagCache[name] = id
		ids = append(ids, id)
	}
	return ids
}

func (c *WordPressClient) findTag(ctx context.Context, name string) (int64, error) {
	u := c.baseURL + "/wp-json/wp/v2/tags?search=" + url.QueryEscape(name)
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return 0, err
	}
	req.SetBasicAuth(c.user, c.appPass)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("tag search returned HTTP %d", resp.StatusCode)
	}

	var tags []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return 0, err
	}
	for _, t := range tags {
		if strings.EqualFold(t.Name, name) {
			return t.ID, nil
		}
	}
	return 0, nil
}

func (c *WordPressClient) createTag(ctx context.Context, name string) (int64, error) {
	data, _ := json.Marshal(map[string]string{"name": name})
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/wp-json/wp/v2/tags", bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	req.SetBasicAuth(c.user, c.appPass)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return 0, fmt.Errorf("tag create returned HTTP %d", resp.StatusCode)
	}

	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// classify maps an HTTP status to a publish failure class.
func classify(status int, body string) error {
	e := &Error{Status: status, Msg: body}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Class = FailureAuth
		return e
	case status == http.StatusTooManyRequests:
		e.Class = FailureRateLimit
		return retry.Transient(e)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e.Class = FailureValidation
		return e
	case status >= 500:
		e.Class = FailureTransient
		return retry.Transient(e)
	default:
		e.Class = FailureValidation
		return e
	}
}
