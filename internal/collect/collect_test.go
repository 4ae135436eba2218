package collect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/tkoide/newsround/internal/article"
)

// fakeSource implements Source for testing.
type fakeSource struct {
	name  string
	items []article.RawItem
	err   error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(_ context.Context, _ int) ([]article.RawItem, error) {
	return f.items, f.err
}

func TestCollectAggregatesSources(t *testing.T) {
	c := NewCollectorFromSources([]Source{
		&fakeSource{name: "one", items: []article.RawItem{{URL: "https://a.com/1"}, {URL: "https://a.com/2"}}},
		&fakeSource{name: "two", items: []article.RawItem{{URL: "https://b.com/1"}}},
	}, 1)

	r := c.Collect(context.Background())
	if len(r.Items) != 3 {
		t.Errorf("expected 3 items, got %d", len(r.Items))
	}
	if r.BySource["one"] != 2 || r.BySource["two"] != 1 {
		t.Errorf("unexpected per-source counts: %v", r.BySource)
	}
	if len(r.Errors) != 0 {
		t.Errorf("expected no source errors, got %v", r.Errors)
	}
}

func TestCollectIsolatesFailingSource(t *testing.T) {
	boom := errors.New("connection refused")
	c := NewCollectorFromSources([]Source{
		&fakeSource{name: "broken", err: boom},
		&fakeSource{name: "healthy", items: []article.RawItem{{URL: "https://b.com/1"}}},
	}, 1)

	r := c.Collect(context.Background())
	if len(r.Items) != 1 {
		t.Errorf("expected healthy source items, got %d", len(r.Items))
	}
	if len(r.Errors) != 1 || r.Errors[0].Source != "broken" {
		t.Errorf("expected one error for the broken source, got %v", r.Errors)
	}
	if !errors.Is(r.Errors[0].Err, boom) {
		t.Errorf("expected original error preserved, got %v", r.Errors[0].Err)
	}
}

func TestCollectAllSourcesFailing(t *testing.T) {
	c := NewCollectorFromSources([]Source{
		&fakeSource{name: "a", err: errors.New("down")},
		&fakeSource{name: "b", err: errors.New("down")},
	}, 1)

	r := c.Collect(context.Background())
	if len(r.Items) != 0 {
		t.Errorf("expected no items, got %d", len(r.Items))
	}
	if len(r.Errors) != 2 {
		t.Errorf("expected 2 source errors, got %d", len(r.Errors))
	}
}

func TestParseItem(t *testing.T) {
	published := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	item := &gofeed.Item{
		Title:           "  OpenAI releases new model  ",
		Link:            "https://example.com/article",
		Content:         "<p>The <b>model</b> improves &amp; extends reasoning.</p>",
		PublishedParsed: &published,
	}

	raw := parseItem(item, "Example")
	if raw == nil {
		t.Fatal("expected item")
	}
	if raw.Title != "OpenAI releases new model" {
		t.Errorf("expected trimmed title, got %q", raw.Title)
	}
	if raw.Body != "The model improves & extends reasoning." {
		t.Errorf("unexpected body: %q", raw.Body)
	}
	if !raw.Published.Equal(published) {
		t.Errorf("unexpected published time: %v", raw.Published)
	}
	if raw.Source != "Example" {
		t.Errorf("unexpected source: %q", raw.Source)
	}
}

func TestParseItemFallsBackToGUIDAndDescription(t *testing.T) {
	item := &gofeed.Item{
		Title:       "Some title",
		GUID:        "https://example.com/guid-article",
		Description: "Short description text.",
	}

	raw := parseItem(item, "Example")
	if raw == nil {
		t.Fatal("expected item")
	}
	if raw.URL != "https://example.com/guid-article" {
		t.Errorf("expected GUID as URL, got %q", raw.URL)
	}
	if raw.Body != "Short description text." {
		t.Errorf("expected description as body, got %q", raw.Body)
	}
}

func TestParseItemRejectsMissingFields(t *testing.T) {
	if parseItem(&gofeed.Item{Title: "No URL"}, "X") != nil {
		t.Error("expected nil for missing URL")
	}
	if parseItem(&gofeed.Item{Link: "https://example.com"}, "X") != nil {
		t.Error("expected nil for missing title")
	}
}

func TestStripHTML(t *testing.T) {
	cases := []struct{ in, want string }{
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"Tom &amp; Jerry &lt;3", "Tom & Jerry <3"},
		{"no markup", "no markup"},
		{"<div>改行と\n  空白を</div> 整理", "改行と 空白を 整理"},
	}
	for _, c := range cases {
		if got := stripHTML(c.in); got != c.want {
			t.Errorf("stripHTML(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestExtractSourceName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"https://www.itmedia.co.jp/rss/aiplus.xml", "Itmedia"},
		{"https://feeds.example.com/rss", "Example"},
		{"https://gigazine.net/news/rss_2.0/", "Gigazine"},
	}
	for _, c := range cases {
		if got := extractSourceName(c.in); got != c.want {
			t.Errorf("extractSourceName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
