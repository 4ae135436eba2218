package slug

import (
	"strings"
	"testing"
)

func newTestGenerator() *Generator {
	return New("ai-news-", 50)
}

func TestEnglishTitle(t *testing.T) {
	g := newTestGenerator()
	got := g.Generate("OpenAI Releases New Model", nil)
	if got != "ai-news-openai-releases-new-model" {
		t.Errorf("unexpected slug: %s", got)
	}
}

func TestKnownJapaneseTerms(t *testing.T) {
	g := newTestGenerator()
	got := g.Generate("AI技術の最新動向", nil)
	if !strings.Contains(got, "tech") || !strings.Contains(got, "latest") || !strings.Contains(got, "trends") {
		t.Errorf("expected translated terms in slug, got %s", got)
	}
	if !strings.HasPrefix(got, "ai-news-") {
		t.Errorf("expected prefix, got %s", got)
	}
}

func TestKatakanaRomanization(t *testing.T) {
	g := newTestGenerator()
	// カメラ is not in the term table, so it goes through romanization.
	got := g.Generate("カメラ", nil)
	if got != "ai-news-kamera" {
		t.Errorf("expected romanized katakana, got %s", got)
	}
}

func TestJapaneseDateBecomesNumericTokens(t *testing.T) {
	g := newTestGenerator()
	got := g.Generate("2026年3月15日のニュース", nil)
	if !strings.Contains(got, "2026-3-15") {
		t.Errorf("expected date tokens in slug, got %s", got)
	}
}

func TestMaxLengthTruncatesAtTokenBoundary(t *testing.T) {
	g := newTestGenerator()
	got := g.Generate("a very long title with many words that will certainly exceed the maximum slug length limit", nil)
	if len(got) > 50 {
		t.Errorf("expected slug within 50 chars, got %d: %s", len(got), got)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("expected no trailing hyphen, got %s", got)
	}
	// Truncation must not split a word.
	words := strings.Split("a very long title with many words that will certainly exceed the maximum slug length limit", " ")
	last := got[strings.LastIndex(got, "-")+1:]
	found := false
	for _, w := range words {
		if w == last {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected last token to be a complete word, got %q in %s", last, got)
	}
}

func TestCollisionGetsNumericSuffix(t *testing.T) {
	g := newTestGenerator()
	taken := map[string]struct{}{
		"ai-news-openai-releases-new-model":   {},
		"ai-news-openai-releases-new-model-2": {},
	}

	got := g.Generate("OpenAI Releases New Model", taken)
	if got != "ai-news-openai-releases-new-model-3" {
		t.Errorf("expected -3 suffix, got %s", got)
	}
}

func TestSuffixedSlugStaysWithinMaxLength(t *testing.T) {
	g := newTestGenerator()
	title := "a very long title with many words that will certainly exceed the maximum"

	base := g.Generate(title, nil)
	taken := map[string]struct{}{base: {}}

	got := g.Generate(title, taken)
	if len(got) > 50 {
		t.Errorf("expected suffixed slug within 50 chars, got %d: %s", len(got), got)
	}
	if !strings.HasSuffix(got, "-2") {
		t.Errorf("expected -2 suffix, got %s", got)
	}
}

func TestDeterministic(t *testing.T) {
	g := newTestGenerator()
	a := g.Generate("AIニュースのまとめ", nil)
	b := g.Generate("AIニュースのまとめ", nil)
	if a != b {
		t.Errorf("expected deterministic slugs, got %s and %s", a, b)
	}
}

func TestUntranslatableTitleFallsBack(t *testing.T) {
	g := newTestGenerator()
	// Pure kanji with no table entries and no katakana leaves nothing.
	got := g.Generate("憂鬱", nil)
	if got != "ai-news-post" {
		t.Errorf("expected fallback slug, got %s", got)
	}
}

func TestRomanizeKatakanaDetails(t *testing.T) {
	cases := []struct{ in, want string }{
		{"チャット", "chatto"},      // sokuon doubles the next consonant
		{"サーバー", "saba"},        // long vowel marks dropped
		{"キャスト", "kyasuto"},     // digraph
		{"ジョブ", "jobu"},
	}
	for _, c := range cases {
		if got := romanizeKatakana(c.in); got != c.want {
			t.Errorf("romanizeKatakana(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
