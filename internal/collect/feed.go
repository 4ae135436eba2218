package collect

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/tkoide/newsround/internal/article"
)

const maxPerFeed = 20

// FeedSource reads one RSS/Atom feed.
type FeedSource struct {
	url    string
	name   string
	parser *gofeed.Parser
}

// NewFeedSource creates a feed source. An empty name is derived from the
// feed URL's host.
func NewFeedSource(feedURL, name string) *FeedSource {
	if name == "" {
		name = extractSourceName(feedURL)
	}
	return &FeedSource{url: feedURL, name: name, parser: gofeed.NewParser()}
}

// Name returns the source name.
func (f *FeedSource) Name() string { return f.name }

// Fetch parses the feed and returns items published within daysBack.
func (f *FeedSource) Fetch(ctx context.Context, daysBack int) ([]article.RawItem, error) {
	feed, err := f.parser.ParseURLWithContext(f.url, ctx)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -daysBack)
	var items []article.RawItem
	for _, item := range feed.Items {
		if len(items) >= maxPerFeed {
			break
		}
		raw := parseItem(item, f.name)
		if raw == nil {
			continue
		}
		if raw.Published.IsZero() || !raw.Published.Before(cutoff) {
			items = append(items, *raw)
		}
	}
	return items, nil
}

func parseItem(item *gofeed.Item, source string) *article.RawItem {
	itemURL := item.Link
	if itemURL == "" {
		itemURL = item.GUID
	}
	if itemURL == "" {
		return nil
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		return nil
	}

	var published time.Time
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	var body string
	if item.Content != "" {
		body = stripHTML(item.Content)
	} else if item.Description != "" {
		body = stripHTML(item.Description)
	}

	return &article.RawItem{
		Source:    source,
		URL:       itemURL,
		Title:     title,
		Body:      body,
		Published: published,
	}
}

func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

func extractSourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		name := parts[len(parts)-2]
		// second-level registrations like itmedia.co.jp
		switch name {
		case "co", "ne", "or", "ac", "go", "com":
			if len(parts) >= 3 {
				name = parts[len(parts)-3]
			}
		}
		return strings.ToUpper(name[:1]) + name[1:]
	}
	if host == "" {
		return feedURL
	}
	return strings.ToUpper(host[:1]) + host[1:]
}
