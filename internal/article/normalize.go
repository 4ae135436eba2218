package article

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	minTitleRunes = 10
	minBodyRunes  = 100
)

// Normalizer converts raw collector items into Articles, dropping items that
// fail basic quality checks and exact URL/title repeats within the batch.
type Normalizer struct {
	seenURLs   map[string]struct{}
	seenTitles map[string]struct{}
}

// NewNormalizer creates a Normalizer with empty de-repetition sets.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		seenURLs:   make(map[string]struct{}),
		seenTitles: make(map[string]struct{}),
	}
}

// Normalize converts one RawItem. Returns nil if the item does not survive
// quality filtering or repeats an URL/title already seen in this batch.
func (n *Normalizer) Normalize(item RawItem) *Article {
	title := strings.TrimSpace(item.Title)
	body := collapseWhitespace(item.Body)
	url := strings.TrimSpace(item.URL)

	if url == "" || utf8.RuneCountInString(title) < minTitleRunes {
		return nil
	}
	if utf8.RuneCountInString(body) < minBodyRunes {
		return nil
	}

	if _, ok := n.seenURLs[url]; ok {
		return nil
	}
	titleKey := strings.ToLower(title)
	if _, ok := n.seenTitles[titleKey]; ok {
		return nil
	}
	n.seenURLs[url] = struct{}{}
	n.seenTitles[titleKey] = struct{}{}

	// Sources without a parseable timestamp get the collection time.
	// A zero time would fall outside every history window and the
	// article would be republished on the next run.
	published := item.Published
	if published.IsZero() {
		published = time.Now().UTC()
	}

	return &Article{
		Source:    item.Source,
		URL:       url,
		Title:     title,
		Body:      body,
		Published: published,
		State:     StateCollected,
	}
}

// NormalizeAll converts a batch, silently dropping filtered items.
func (n *Normalizer) NormalizeAll(items []RawItem) []*Article {
	var out []*Article
	for _, item := range items {
		if a := n.Normalize(item); a != nil {
			out = append(out, a)
		}
	}
	return out
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
