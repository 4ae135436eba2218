// Package fingerprint derives comparable content signatures for duplicate
// detection. A fingerprint is the set of FNV-1a hashes of overlapping
// rune shingles taken from the normalized title and body; two fingerprints
// are compared with Jaccard similarity over those sets. Rune shingles work
// for both English and Japanese text, where word boundaries are unreliable.
package fingerprint

import (
	"encoding/json"
	"hash/fnv"
	"sort"
	"strings"
	"unicode"
)

// shingleSize is the shingle width in runes. Three runes is wide enough to
// carry word fragments in English and whole morphemes in Japanese.
const shingleSize = 3

// Fingerprint is a set of shingle hashes. The zero value is empty and has
// similarity 0 with everything, including itself.
type Fingerprint struct {
	hashes map[uint64]struct{}
}

// New computes the fingerprint of an article's title and body.
func New(title, body string) Fingerprint {
	text := normalize(title + " " + body)
	runes := []rune(text)

	hashes := make(map[uint64]struct{})
	if len(runes) < shingleSize {
		if len(runes) > 0 {
			hashes[hashShingle(runes)] = struct{}{}
		}
		return Fingerprint{hashes: hashes}
	}
	for i := 0; i+shingleSize <= len(runes); i++ {
		hashes[hashShingle(runes[i:i+shingleSize])] = struct{}{}
	}
	return Fingerprint{hashes: hashes}
}

// normalize lowercases, strips punctuation and symbols, and collapses all
// whitespace to single spaces so minor formatting differences do not move
// the fingerprint.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			// dropped
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}
	return strings.TrimRight(b.String(), " ")
}

func hashShingle(runes []rune) uint64 {
	h := fnv.New64a()
	for _, r := range runes {
		var buf [4]byte
		buf[0] = byte(r)
		buf[1] = byte(r >> 8)
		buf[2] = byte(r >> 16)
		buf[3] = byte(r >> 24)
		h.Write(buf[:])
	}
	return h.Sum64()
}

// Empty reports whether the fingerprint carries no shingles.
func (f Fingerprint) Empty() bool {
	return len(f.hashes) == 0
}

// Size returns the number of distinct shingles.
func (f Fingerprint) Size() int {
	return len(f.hashes)
}

// Similarity returns the Jaccard similarity between two fingerprints in
// [0, 1]. Symmetric and deterministic; identical non-empty fingerprints
// score exactly 1.
func Similarity(a, b Fingerprint) float64 {
	if len(a.hashes) == 0 || len(b.hashes) == 0 {
		return 0
	}
	small, large := a.hashes, b.hashes
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for h := range small {
		if _, ok := large[h]; ok {
			inter++
		}
	}
	union := len(a.hashes) + len(b.hashes) - inter
	return float64(inter) / float64(union)
}

// MarshalJSON encodes the fingerprint as a sorted array of hashes so the
// stored form is deterministic.
func (f Fingerprint) MarshalJSON() ([]byte, error) {
	hashes := make([]uint64, 0, len(f.hashes))
	for h := range f.hashes {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })
	return json.Marshal(hashes)
}

// UnmarshalJSON decodes the stored array form.
func (f *Fingerprint) UnmarshalJSON(data []byte) error {
	var hashes []uint64
	if err := json.Unmarshal(data, &hashes); err != nil {
		return err
	}
	f.hashes = make(map[uint64]struct{}, len(hashes))
	for _, h := range hashes {
		f.hashes[h] = struct{}{}
	}
	return nil
}
