// Package article holds the canonical Article record and its lifecycle state.
package article

import (
	"time"

	"github.com/tkoide/newsround/internal/fingerprint"
)

// State is an Article's position in the pipeline. States only advance.
type State int

const (
	StateCollected State = iota
	StateDeduplicated
	StateKept
	StateEnriched
	StateSlugged
	StatePublished
	StateFailed
)

var stateNames = map[State]string{
	StateCollected:    "collected",
	StateDeduplicated: "deduplicated",
	StateKept:         "kept",
	StateEnriched:     "enriched",
	StateSlugged:      "slugged",
	StatePublished:    "published",
	StateFailed:       "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transition is allowed from s.
func (s State) Terminal() bool {
	return s == StateDeduplicated || s == StatePublished || s == StateFailed
}

// RawItem is what a collector source produces before normalization.
type RawItem struct {
	Source    string
	URL       string
	Title     string
	Body      string
	Published time.Time
}

// Article is the canonical record flowing through the pipeline.
type Article struct {
	Source    string
	URL       string
	Title     string
	Body      string
	Published time.Time

	Fingerprint fingerprint.Fingerprint
	State       State

	// Enrichment results, set once the Article reaches StateEnriched.
	Summary         string
	Commentary      string
	FallbackSummary bool

	// Slug, set once the Article reaches StateSlugged.
	Slug string

	// Publish results.
	PostID  int64
	PostURL string

	// FailReason records why the Article reached StateFailed.
	FailReason string
}

// Advance moves the Article to next if the transition is legal and returns
// whether it happened. Terminal states never change.
func (a *Article) Advance(next State) bool {
	if a.State.Terminal() {
		return false
	}
	if next == StateFailed {
		a.State = StateFailed
		return true
	}
	if next <= a.State {
		return false
	}
	a.State = next
	return true
}

// Fail marks the Article failed with a reason for the run report.
func (a *Article) Fail(reason string) {
	if a.Advance(StateFailed) {
		a.FailReason = reason
	}
}
