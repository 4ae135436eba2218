// Package collect gathers raw items from the configured sources. A failing
// source is logged and recorded; it never affects other sources.
package collect

import (
	"context"
	"log"

	"github.com/tkoide/newsround/internal/article"
	"github.com/tkoide/newsround/internal/config"
)

// Source produces raw items from one upstream.
type Source interface {
	Name() string
	Fetch(ctx context.Context, daysBack int) ([]article.RawItem, error)
}

// SourceError records a source that failed to produce items.
type SourceError struct {
	Source string
	Err    error
}

// Result holds the outcome of a collection pass.
type Result struct {
	Items    []article.RawItem
	BySource map[string]int
	Errors   []SourceError
}

// Collector runs all configured sources.
type Collector struct {
	sources  []Source
	daysBack int
}

// NewCollector builds a Collector from configuration: one RSS source per
// configured feed, plus NewsAPI when enabled.
func NewCollector(cfg *config.Config, daysBack int) *Collector {
	c := &Collector{daysBack: daysBack}

	for _, f := range cfg.Sources.Feeds {
		c.sources = append(c.sources, NewFeedSource(f.URL, f.Name))
	}

	apiCfg := cfg.Sources.APIs.NewsAPI
	if apiCfg.Enabled {
		query := apiCfg.Query
		if query == "" {
			query = "artificial intelligence"
		}
		c.sources = append(c.sources, NewNewsAPISource(apiCfg.APIKeyEnv, query))
	}

	return c
}

// NewCollectorFromSources builds a Collector over explicit sources.
func NewCollectorFromSources(sources []Source, daysBack int) *Collector {
	return &Collector{sources: sources, daysBack: daysBack}
}

// Collect fetches from every source. Per-source failures are captured in
// Result.Errors; the pass itself always succeeds.
func (c *Collector) Collect(ctx context.Context) *Result {
	r := &Result{BySource: make(map[string]int)}

	for _, src := range c.sources {
		items, err := src.Fetch(ctx, c.daysBack)
		if err != nil {
			log.Printf("Source %s failed: %v", src.Name(), err)
			r.Errors = append(r.Errors, SourceError{Source: src.Name(), Err: err})
			continue
		}
		r.Items = append(r.Items, items...)
		r.BySource[src.Name()] += len(items)
		log.Printf("Collected %d items from %s", len(items), src.Name())
	}

	log.Printf("Collection complete: %d items from %d sources, %d source failures",
		len(r.Items), len(c.sources), len(r.Errors))
	return r
}
