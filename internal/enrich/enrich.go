// Package enrich generates a summary and a reader-impact commentary for each
// kept article. Transient summarizer failures are retried; when retries are
// exhausted the article still proceeds with a deterministic excerpt fallback.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/tkoide/newsround/internal/article"
	"github.com/tkoide/newsround/internal/llm"
	"github.com/tkoide/newsround/internal/retry"
)

const summaryPrompt = `以下のAI関連記事を250字程度で要約してください。
親しみやすく、かつ正確な文体で、技術的な内容を分かりやすく説明してください。
重要なポイントと実用的な価値を含めて要約してください。

記事タイトル: %s
記事内容: %s

次のJSONのみで回答してください:
{
    "summary": "250字程度の要約",
    "commentary": "このニュースによってユーザーが受ける具体的な影響についての200字程度のコメント"
}`

// fallbackExcerptRunes is how much of the body the excerpt fallback keeps.
const fallbackExcerptRunes = 300

// Enrichment is the result of one summarization call.
type Enrichment struct {
	Summary    string
	Commentary string
	Fallback   bool
}

// Summarizer is the external collaborator that produces summaries.
type Summarizer interface {
	Summarize(ctx context.Context, title, body string, maxChars int) (Enrichment, error)
}

// LLMSummarizer implements Summarizer on top of an llm.Provider.
type LLMSummarizer struct {
	provider llm.Provider
}

// NewLLMSummarizer wraps an LLM provider as a Summarizer.
func NewLLMSummarizer(provider llm.Provider) *LLMSummarizer {
	return &LLMSummarizer{provider: provider}
}

// Summarize requests a summary and commentary for one article. Errors keep
// their transient/permanent tagging from the provider; a response that is
// not the expected JSON shape is a permanent failure.
func (s *LLMSummarizer) Summarize(ctx context.Context, title, body string, maxChars int) (Enrichment, error) {
	if s.provider == nil {
		return Enrichment{}, fmt.Errorf("no LLM provider configured")
	}

	content := body
	if maxChars > 0 {
		runes := []rune(content)
		if len(runes) > maxChars {
			content = string(runes[:maxChars])
		}
	}

	prompt := fmt.Sprintf(summaryPrompt, title, content)
	responseText, err := s.provider.Generate(ctx, prompt, 800)
	if err != nil {
		return Enrichment{}, err
	}

	return parseResponse(responseText)
}

// parseResponse decodes the model's {summary, commentary} JSON, tolerating a
// markdown code fence around it. Anything else is a permanent failure.
func parseResponse(text string) (Enrichment, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		end := len(lines) - 1
		for i := len(lines) - 1; i > 0; i-- {
			if strings.TrimSpace(lines[i]) == "```" {
				end = i
				break
			}
		}
		text = strings.Join(lines[1:end], "\n")
	}

	var resp struct {
		Summary    string `json:"summary"`
		Commentary string `json:"commentary"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return Enrichment{}, fmt.Errorf("malformed summarizer response: %w", err)
	}

	summary := strings.TrimSpace(resp.Summary)
	if summary == "" {
		return Enrichment{}, fmt.Errorf("summarizer response missing summary")
	}
	return Enrichment{Summary: summary, Commentary: strings.TrimSpace(resp.Commentary)}, nil
}

// Enricher applies the retry/fallback policy around a Summarizer.
type Enricher struct {
	summarizer Summarizer
	policy     retry.Policy
	maxChars   int
}

// New creates an Enricher.
func New(summarizer Summarizer, policy retry.Policy, maxChars int) *Enricher {
	return &Enricher{summarizer: summarizer, policy: policy, maxChars: maxChars}
}

// Enrich fills in the article's summary and commentary and advances it to
// the enriched state. Exhausted transient failures degrade to an excerpt
// fallback; permanent failures mark the article failed. The returned error
// is non-nil only for the permanent case.
func (e *Enricher) Enrich(ctx context.Context, a *article.Article) error {
	var result Enrichment
	err := retry.Do(ctx, e.policy, func() error {
		var callErr error
		result, callErr = e.summarizer.Summarize(ctx, a.Title, a.Body, e.maxChars)
		return callErr
	})

	switch {
	case err == nil:
		a.Summary = result.Summary
		a.Commentary = result.Commentary
	case ctx.Err() != nil:
		a.Fail("enrichment: run deadline exceeded")
		return err
	case retry.IsTransient(err):
		// Retries exhausted on a transient failure: degrade, don't drop.
		log.Printf("Enrichment retries exhausted for %q, using excerpt fallback: %v", a.Title, err)
		a.Summary = Excerpt(a.Body)
		a.Commentary = ""
		a.FallbackSummary = true
	default:
		a.Fail(fmt.Sprintf("enrichment: %v", err))
		return err
	}

	a.Advance(article.StateEnriched)
	return nil
}

// Excerpt is the deterministic local fallback: the first part of the body.
func Excerpt(body string) string {
	runes := []rune(body)
	if len(runes) <= fallbackExcerptRunes {
		return body
	}
	return string(runes[:fallbackExcerptRunes]) + "..."
}
