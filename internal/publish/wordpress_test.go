package publish

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tkoide/newsround/internal/article"
	"github.com/tkoide/newsround/internal/retry"
)

func newTestClient(t *testing.T, handler http.Handler) (*WordPressClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("WP_APP_PASS_TEST", "secret")
	return NewWordPressClient(srv.URL, "editor", "WP_APP_PASS_TEST"), srv
}

func testPost() Post {
	return Post{
		Title:   "OpenAI releases new model",
		Slug:    "ai-news-openai-releases-new-model",
		Body:    "<p>body</p>",
		Excerpt: "excerpt",
		Status:  "publish",
	}
}

func TestPublishSuccess(t *testing.T) {
	var captured map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wp/v2/posts" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "editor" || pass != "secret" {
			t.Error("expected Basic auth with app password")
		}
		json.NewDecoder(r.Body).Decode(&captured)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": 42, "link": "https://blog.example/ai-news-openai-releases-new-model"})
	}))

	res, err := client.Publish(context.Background(), testPost())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PostID != 42 {
		t.Errorf("expected post ID 42, got %d", res.PostID)
	}
	if !strings.Contains(res.URL, "ai-news-") {
		t.Errorf("unexpected post URL: %s", res.URL)
	}
	if captured["slug"] != "ai-news-openai-releases-new-model" {
		t.Errorf("expected slug in payload, got %v", captured["slug"])
	}
	if captured["status"] != "publish" {
		t.Errorf("expected status in payload, got %v", captured["status"])
	}
}

func TestPublishClassifiesFailures(t *testing.T) {
	cases := []struct {
		status    int
		class     FailureClass
		transient bool
	}{
		{http.StatusUnauthorized, FailureAuth, false},
		{http.StatusForbidden, FailureAuth, false},
		{http.StatusTooManyRequests, FailureRateLimit, true},
		{http.StatusBadRequest, FailureValidation, false},
		{http.StatusUnprocessableEntity, FailureValidation, false},
		{http.StatusInternalServerError, FailureTransient, true},
		{http.StatusBadGateway, FailureTransient, true},
	}

	for _, c := range cases {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(c.status)
		}))

		_, err := client.Publish(context.Background(), testPost())
		if err == nil {
			t.Fatalf("status %d: expected error", c.status)
		}

		var pubErr *Error
		if !errors.As(err, &pubErr) {
			t.Fatalf("status %d: expected publish.Error, got %T", c.status, err)
		}
		if pubErr.Class != c.class {
			t.Errorf("status %d: expected class %s, got %s", c.status, c.class, pubErr.Class)
		}
		if retry.IsTransient(err) != c.transient {
			t.Errorf("status %d: expected transient=%v", c.status, c.transient)
		}
	}
}

func TestPublishNetworkErrorIsTransient(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := client.Publish(context.Background(), testPost())
	if err == nil {
		t.Fatal("expected error against a closed server")
	}
	if !retry.IsTransient(err) {
		t.Errorf("expected network error to be transient, got %v", err)
	}
}

func TestPublishResolvesTags(t *testing.T) {
	var postPayload map[string]any
	tagCreated := false
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/wp-json/wp/v2/tags" && r.Method == "GET":
			if r.URL.Query().Get("search") == "AI" {
				json.NewEncoder(w).Encode([]map[string]any{{"id": 7, "name": "AI"}})
			} else {
				json.NewEncoder(w).Encode([]map[string]any{})
			}
		case r.URL.Path == "/wp-json/wp/v2/tags" && r.Method == "POST":
			tagCreated = true
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"id": 13})
		case r.URL.Path == "/wp-json/wp/v2/posts":
			json.NewDecoder(r.Body).Decode(&postPayload)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"id": 1, "link": "https://blog.example/x"})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))

	post := testPost()
	post.Tags = []string{"AI", "技術動向"}
	if _, err := client.Publish(context.Background(), post); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !tagCreated {
		t.Error("expected missing tag to be created")
	}
	tags, ok := postPayload["tags"].([]any)
	if !ok || len(tags) != 2 {
		t.Fatalf("expected 2 resolved tag IDs, got %v", postPayload["tags"])
	}
}

func TestIsConfigured(t *testing.T) {
	t.Setenv("WP_APP_PASS_TEST", "secret")
	if c := NewWordPressClient("https://blog.example", "editor", "WP_APP_PASS_TEST"); !c.IsConfigured() {
		t.Error("expected configured client")
	}
	if c := NewWordPressClient("https://blog.example", "editor", "WP_APP_PASS_UNSET"); c.IsConfigured() {
		t.Error("expected missing password to mean unconfigured")
	}
	if c := NewWordPressClient("", "editor", "WP_APP_PASS_TEST"); c.IsConfigured() {
		t.Error("expected missing URL to mean unconfigured")
	}
}

func TestComposeBody(t *testing.T) {
	a := &article.Article{
		Source:     "Example Feed",
		URL:        "https://example.com/article",
		Summary:    "要約のテキストです。",
		Commentary: "影響の解説です。",
	}

	html, err := ComposeBody(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(html, "<h2>要約</h2>") {
		t.Errorf("expected summary heading, got %s", html)
	}
	if !strings.Contains(html, "<h2>ユーザーへの影響</h2>") {
		t.Errorf("expected commentary heading, got %s", html)
	}
	if !strings.Contains(html, `href="https://example.com/article"`) {
		t.Errorf("expected source link, got %s", html)
	}
}

func TestComposeBodyWithoutCommentary(t *testing.T) {
	a := &article.Article{
		Source:  "Example Feed",
		URL:     "https://example.com/article",
		Summary: "フォールバックの抜粋。",
	}

	html, err := ComposeBody(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(html, "ユーザーへの影響") {
		t.Errorf("expected no commentary section, got %s", html)
	}
}
