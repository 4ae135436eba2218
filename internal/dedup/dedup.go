// Package dedup decides whether a new article near-duplicates anything in
// the rolling history window, including articles kept earlier in the same run.
package dedup

import (
	"github.com/tkoide/newsround/internal/fingerprint"
	"github.com/tkoide/newsround/internal/history"
)

// Match describes the closest history record for a checked article.
type Match struct {
	Similarity float64
	Record     *history.Record
}

// Deduplicator compares fingerprints against a window snapshot loaded at run
// start plus everything observed during the run. Check and Observe are meant
// to be called from a single goroutine per run; the read-then-observe
// sequence must not interleave between articles.
type Deduplicator struct {
	threshold float64
	window    []history.Record
}

// New creates a Deduplicator over a snapshot of the current history window.
func New(threshold float64, window []history.Record) *Deduplicator {
	return &Deduplicator{threshold: threshold, window: window}
}

// Check computes the maximum similarity between fp and the window. An exact
// threshold hit counts as a duplicate (inclusive bound). Without a matched
// record there is no duplicate, whatever the threshold.
func (d *Deduplicator) Check(fp fingerprint.Fingerprint) (Match, bool) {
	best := Match{}
	for i := range d.window {
		sim := fingerprint.Similarity(fp, d.window[i].Fingerprint)
		if sim > best.Similarity {
			best = Match{Similarity: sim, Record: &d.window[i]}
		}
	}
	if best.Record == nil {
		return best, false
	}
	return best, best.Similarity >= d.threshold
}

// Observe adds a kept article's record to the comparison window so that
// later articles in the same run are checked against it too.
func (d *Deduplicator) Observe(rec history.Record) {
	d.window = append(d.window, rec)
}

// WindowSize returns the number of records currently compared against.
func (d *Deduplicator) WindowSize() int {
	return len(d.window)
}
