// Package pipeline sequences one run: collect, normalize, dedup against the
// rolling history, enrich, slug, publish. A single article's failure never
// aborts the run; only configuration errors and an unreachable history
// store do.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tkoide/newsround/internal/article"
	"github.com/tkoide/newsround/internal/collect"
	"github.com/tkoide/newsround/internal/config"
	"github.com/tkoide/newsround/internal/dedup"
	"github.com/tkoide/newsround/internal/enrich"
	"github.com/tkoide/newsround/internal/fetch"
	"github.com/tkoide/newsround/internal/fingerprint"
	"github.com/tkoide/newsround/internal/history"
	"github.com/tkoide/newsround/internal/llm"
	"github.com/tkoide/newsround/internal/publish"
	"github.com/tkoide/newsround/internal/retry"
	"github.com/tkoide/newsround/internal/slug"
)

// Mode selects how far a run goes.
type Mode string

const (
	// ModeCollectOnly collects and dedups, recording kept articles into
	// history without enriching or publishing.
	ModeCollectOnly Mode = "collect-only"
	// ModeFull runs the complete pipeline through publishing.
	ModeFull Mode = "full"
	// ModeDryRun runs the complete pipeline but skips the publish call and
	// leaves the history store untouched.
	ModeDryRun Mode = "dry-run"
)

// State is the orchestrator's position within a run.
type State int

const (
	StateIdle State = iota
	StateCollecting
	StateProcessing
	StatePublishing
	StateCompleted
	StateAborted
)

// ArticleFailure records why one article failed, for operator follow-up.
type ArticleFailure struct {
	URL    string
	Title  string
	Stage  string
	Reason string
}

// RunResult summarizes one run. It is not mutated after Run returns.
type RunResult struct {
	Mode       Mode
	StartedAt  time.Time
	FinishedAt time.Time

	Collected    int
	Deduplicated int
	Enriched     int
	Fallbacks    int
	Published    int
	Failed       int

	Failures     []ArticleFailure
	SourceErrors []collect.SourceError

	Aborted     bool
	AbortReason string
}

// Deps are the pipeline's collaborators, split out so tests can substitute
// doubles for the remote ones.
type Deps struct {
	Collector  *collect.Collector
	Fetcher    *fetch.ContentFetcher
	Summarizer enrich.Summarizer
	Publisher  publish.Publisher
}

// Pipeline orchestrates one run at a time over a shared history store.
type Pipeline struct {
	cfg     *config.Config
	store   *history.Store
	deps    Deps
	slugger *slug.Generator

	runMu sync.Mutex

	stateMu sync.Mutex
	state   State
}

// New creates a pipeline with explicit collaborators.
func New(cfg *config.Config, store *history.Store, deps Deps) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		store:   store,
		deps:    deps,
		slugger: slug.New(cfg.Slug.Prefix, cfg.Slug.MaxLength),
	}
}

// NewDefault wires the production collaborators from configuration.
func NewDefault(cfg *config.Config, store *history.Store, daysBack int) *Pipeline {
	e := cfg.Enrich
	provider := llm.CreateProvider(e.Provider, e.Model, e.OllamaURL, e.OpenAIModel, e.APIKeyEnv)

	wp := cfg.WordPress
	return New(cfg, store, Deps{
		Collector:  collect.NewCollector(cfg, daysBack),
		Fetcher:    fetch.NewContentFetcher(0),
		Summarizer: enrich.NewLLMSummarizer(provider),
		Publisher:  publish.NewWordPressClient(wp.URL, wp.User, wp.AppPassEnv),
	})
}

// State returns the orchestrator's current state. Safe to call from
// another goroutine while a run is in progress.
func (p *Pipeline) State() State {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.stateMu.Lock()
	p.state = s
	p.stateMu.Unlock()
}

// Run executes one run in the given mode. The returned RunResult is always
// non-nil; a non-nil error means the run aborted (partial results are still
// in the RunResult). Only one run may be active at a time.
func (p *Pipeline) Run(ctx context.Context, mode Mode) (*RunResult, error) {
	if !p.runMu.TryLock() {
		return &RunResult{Mode: mode, Aborted: true, AbortReason: "run already in progress"},
			fmt.Errorf("run already in progress")
	}
	defer p.runMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, p.cfg.RunTimeout())
	defer cancel()

	result := &RunResult{Mode: mode, StartedAt: time.Now()}
	err := p.run(ctx, mode, result)
	result.FinishedAt = time.Now()

	if err != nil {
		result.Aborted = true
		result.AbortReason = err.Error()
		p.setState(StateAborted)
	} else {
		p.setState(StateCompleted)
	}

	if mode != ModeDryRun {
		report := history.RunReport{
			Mode:         string(mode),
			StartedAt:    result.StartedAt,
			FinishedAt:   result.FinishedAt,
			Collected:    result.Collected,
			Deduplicated: result.Deduplicated,
			Enriched:     result.Enriched,
			Published:    result.Published,
			Failed:       result.Failed,
			Aborted:      result.Aborted,
		}
		if rerr := p.store.InsertReport(report); rerr != nil {
			log.Printf("Failed to record run report: %v", rerr)
		}
	}

	return result, err
}

func (p *Pipeline) run(ctx context.Context, mode Mode, result *RunResult) error {
	// Collecting
	p.setState(StateCollecting)
	log.Printf("Run started (mode=%s)", mode)

	collected := p.deps.Collector.Collect(ctx)
	result.SourceErrors = collected.Errors

	normalizer := article.NewNormalizer()
	articles := normalizer.NormalizeAll(collected.Items)
	result.Collected = len(articles)
	log.Printf("Normalized %d of %d collected items", len(articles), len(collected.Items))

	if p.deps.Fetcher != nil {
		p.deps.Fetcher.FillThinBodies(ctx, articles)
	}

	// Processing: dedup is strictly sequential so that each article is
	// compared against everything kept earlier in the same run.
	p.setState(StateProcessing)

	window, err := p.store.QueryRecent(p.cfg.Dedup.HistoryDays)
	if err != nil {
		return fmt.Errorf("history store unavailable: %w", err)
	}
	takenSlugs, err := p.store.Slugs()
	if err != nil {
		return fmt.Errorf("history store unavailable: %w", err)
	}

	dd := dedup.New(p.cfg.Dedup.SimilarityThreshold, window)
	var kept []*article.Article
	for _, a := range articles {
		a.Fingerprint = fingerprint.New(a.Title, a.Body)
		match, isDup := dd.Check(a.Fingerprint)
		if isDup {
			a.Advance(article.StateDeduplicated)
			result.Deduplicated++
			log.Printf("Duplicate (%.2f vs %q): %s", match.Similarity, match.Record.Title, a.Title)
			continue
		}
		a.Advance(article.StateKept)
		dd.Observe(history.Record{
			Fingerprint: a.Fingerprint,
			Title:       a.Title,
			Source:      a.Source,
			URL:         a.URL,
			Published:   a.Published,
		})
		kept = append(kept, a)
	}
	log.Printf("Dedup complete: %d kept, %d duplicates (window %d records)",
		len(kept), result.Deduplicated, dd.WindowSize()-len(kept))

	if mode == ModeCollectOnly {
		for _, a := range kept {
			if err := p.appendHistory(a); err != nil {
				return err
			}
		}
		p.pruneStore()
		return nil
	}

	// Enrich concurrently across the worker pool.
	enricher := enrich.New(p.deps.Summarizer, p.retryPolicy(), p.cfg.Enrich.MaxContentChars)
	p.forEachConcurrently(ctx, kept, "enrich", result, func(runCtx context.Context, a *article.Article) error {
		return enricher.Enrich(runCtx, a)
	})
	for _, a := range kept {
		if a.State == article.StateEnriched {
			result.Enriched++
			if a.FallbackSummary {
				result.Fallbacks++
			}
		}
	}

	// Slug assignment is sequential so numeric suffixes are deterministic.
	for _, a := range kept {
		if a.State != article.StateEnriched {
			continue
		}
		a.Slug = p.slugger.Generate(a.Title, takenSlugs)
		takenSlugs[a.Slug] = struct{}{}
		a.Advance(article.StateSlugged)
	}

	// Publishing
	p.setState(StatePublishing)
	var toPublish []*article.Article
	for _, a := range kept {
		if a.State == article.StateSlugged {
			toPublish = append(toPublish, a)
		}
	}

	if mode == ModeDryRun {
		for _, a := range toPublish {
			log.Printf("[dry-run] Would publish %q as %s", a.Title, a.Slug)
			a.Advance(article.StatePublished)
			result.Published++
		}
		return nil
	}

	var appendErr error
	var appendMu sync.Mutex
	p.forEachConcurrently(ctx, toPublish, "publish", result, func(runCtx context.Context, a *article.Article) error {
		if err := p.publishArticle(runCtx, a); err != nil {
			return err
		}
		// Recorded into history only once the publish succeeded, so a
		// failed article can be retried in a later run.
		if err := p.appendHistory(a); err != nil {
			appendMu.Lock()
			appendErr = err
			appendMu.Unlock()
		}
		return nil
	})
	for _, a := range toPublish {
		if a.State == article.StatePublished {
			result.Published++
		}
	}
	if appendErr != nil {
		return appendErr
	}

	p.pruneStore()
	return nil
}

// forEachConcurrently dispatches fn over articles through a bounded worker
// pool, marking articles failed when the run deadline expires before they
// are processed. Failures are collected into the result.
func (p *Pipeline) forEachConcurrently(ctx context.Context, articles []*article.Article, stage string, result *RunResult, fn func(context.Context, *article.Article) error) {
	sem := make(chan struct{}, p.cfg.Run.Workers)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, a := range articles {
		if ctx.Err() != nil {
			a.Fail(stage + ": run deadline exceeded")
			mu.Lock()
			p.recordFailure(result, a, stage)
			mu.Unlock()
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(a *article.Article) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := fn(ctx, a); err != nil {
				mu.Lock()
				p.recordFailure(result, a, stage)
				mu.Unlock()
			}
		}(a)
	}
	wg.Wait()
}

func (p *Pipeline) recordFailure(result *RunResult, a *article.Article, stage string) {
	result.Failed++
	result.Failures = append(result.Failures, ArticleFailure{
		URL:    a.URL,
		Title:  a.Title,
		Stage:  stage,
		Reason: a.FailReason,
	})
}

// publishArticle composes and sends one post with retries for transient
// backend failures.
func (p *Pipeline) publishArticle(ctx context.Context, a *article.Article) error {
	body, err := publish.ComposeBody(a)
	if err != nil {
		a.Fail(fmt.Sprintf("compose: %v", err))
		return err
	}

	post := publish.Post{
		Title:    a.Title,
		Slug:     a.Slug,
		Body:     body,
		Excerpt:  enrich.Excerpt(a.Summary),
		Tags:     p.cfg.WordPress.Tags,
		Category: p.cfg.WordPress.CategoryID,
		Author:   p.cfg.WordPress.AuthorID,
		Status:   p.cfg.WordPress.Status,
	}

	var res publish.Result
	err = retry.Do(ctx, p.retryPolicy(), func() error {
		var callErr error
		res, callErr = p.deps.Publisher.Publish(ctx, post)
		return callErr
	})
	if err != nil {
		if ctx.Err() != nil {
			a.Fail("publish: run deadline exceeded")
		} else {
			a.Fail(fmt.Sprintf("publish: %v", err))
		}
		return err
	}

	a.PostID = res.PostID
	a.PostURL = res.URL
	a.Advance(article.StatePublished)
	log.Printf("Published %q as %s (post %d)", a.Title, a.Slug, res.PostID)
	return nil
}

func (p *Pipeline) appendHistory(a *article.Article) error {
	return p.store.Append(history.Record{
		Fingerprint: a.Fingerprint,
		Title:       a.Title,
		Source:      a.Source,
		URL:         a.URL,
		Published:   a.Published,
		Slug:        a.Slug,
	})
}

// pruneStore runs the per-invocation prune, after all comparisons are done.
func (p *Pipeline) pruneStore() {
	removed, err := p.store.Prune(p.cfg.Dedup.HistoryDays)
	if err != nil {
		log.Printf("History prune failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Pruned %d expired history records", removed)
	}
}

func (p *Pipeline) retryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: p.cfg.Enrich.MaxRetries,
		Delay:       p.cfg.RetryDelay(),
		Backoff:     true,
	}
}
