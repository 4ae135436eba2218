package dedup

import (
	"testing"

	"github.com/tkoide/newsround/internal/fingerprint"
	"github.com/tkoide/newsround/internal/history"
)

func record(title, body string) history.Record {
	return history.Record{
		Title:       title,
		Fingerprint: fingerprint.New(title, body),
	}
}

func TestCheckFindsDuplicateInWindow(t *testing.T) {
	window := []history.Record{
		record("OpenAI releases new model", "The model improves reasoning across many benchmarks."),
		record("Quarterly earnings report", "Revenue grew twelve percent year over year."),
	}

	d := New(0.8, window)
	fp := fingerprint.New("OpenAI releases new model", "The model improves reasoning across many benchmarks.")

	match, isDup := d.Check(fp)
	if !isDup {
		t.Fatal("expected duplicate")
	}
	if match.Record == nil || match.Record.Title != "OpenAI releases new model" {
		t.Errorf("expected match against the model article, got %+v", match.Record)
	}
	if match.Similarity != 1.0 {
		t.Errorf("expected similarity 1.0, got %f", match.Similarity)
	}
}

func TestCheckPassesNonDuplicate(t *testing.T) {
	window := []history.Record{
		record("OpenAI releases new model", "The model improves reasoning across many benchmarks."),
	}

	d := New(0.8, window)
	fp := fingerprint.New("New chip fabrication plant announced", "Construction begins next spring in Arizona.")

	if _, isDup := d.Check(fp); isDup {
		t.Error("expected unrelated article to pass")
	}
}

func TestThresholdIsInclusive(t *testing.T) {
	fp := fingerprint.New("identical title", "identical body text for the test")
	window := []history.Record{{Title: "stored", Fingerprint: fp}}

	// Identical fingerprints score exactly 1.0; threshold 1.0 must still flag.
	d := New(1.0, window)
	if _, isDup := d.Check(fp); !isDup {
		t.Error("expected exact threshold hit to count as duplicate")
	}
}

func TestEmptyWindowNeverFlagsRegardlessOfThreshold(t *testing.T) {
	fp := fingerprint.New("Fresh article", "Long enough body text to fingerprint properly.")

	// Even a degenerate threshold must not produce a match without a record.
	d := New(0, nil)
	match, isDup := d.Check(fp)
	if isDup {
		t.Error("expected no duplicate against an empty window")
	}
	if match.Record != nil {
		t.Errorf("expected nil record, got %+v", match.Record)
	}
}

func TestObserveExtendsWindowWithinRun(t *testing.T) {
	d := New(0.8, nil)

	fp := fingerprint.New("Breaking AI story", "Long enough body text to fingerprint properly.")
	if _, isDup := d.Check(fp); isDup {
		t.Fatal("expected empty window to pass everything")
	}

	d.Observe(history.Record{Title: "Breaking AI story", Fingerprint: fp})

	// A near-identical article later in the same run must now be caught.
	if _, isDup := d.Check(fp); !isDup {
		t.Error("expected duplicate against article kept earlier in the run")
	}
	if d.WindowSize() != 1 {
		t.Errorf("expected window size 1, got %d", d.WindowSize())
	}
}

func TestCheckReturnsBestMatch(t *testing.T) {
	window := []history.Record{
		record("OpenAI releases new model", "Completely different body about something else entirely."),
		record("OpenAI releases new model", "The model improves reasoning across many benchmarks."),
	}

	d := New(0.8, window)
	fp := fingerprint.New("OpenAI releases new model", "The model improves reasoning across many benchmarks.")

	match, _ := d.Check(fp)
	if match.Similarity != 1.0 {
		t.Errorf("expected the best match to win, got %f", match.Similarity)
	}
}
