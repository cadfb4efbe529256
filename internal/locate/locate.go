// Package locate answers "what is being said at time t" for a preprocessed
// transcript. Nothing here allocates or mutates its inputs, so the functions
// are safe to call on every playback tick.
package locate

import "github.com/jwulff/steno/player/internal/transcript"

// DefaultTolerance is how far ahead of a paragraph's start the slow path will
// already select it, in seconds. It covers the drift between two ticks so a
// paragraph boundary is not skipped.
const DefaultTolerance = 0.5

// Resolve returns the paragraph active at t, or nil when t falls in a gap.
//
// last is the previously current paragraph. While t stays inside it, it is
// returned without searching. Otherwise paragraphs are scanned in order for
// the first one with Time <= t+tolerance and t <= End. When t sits exactly on
// a boundary shared by two paragraphs the later one wins, on both paths.
func Resolve(t float64, last *transcript.EnrichedParagraph, paragraphs []transcript.EnrichedParagraph, tolerance float64) *transcript.EnrichedParagraph {
	if last != nil && last.Contains(t) && !lastHandsOver(paragraphs, last, t) {
		return last
	}

	for i := range paragraphs {
		p := &paragraphs[i]
		if p.Time <= t+tolerance && t <= p.End() {
			for handsOver(paragraphs, i, t) {
				i++
			}
			return &paragraphs[i]
		}
	}
	return nil
}

// handsOver reports whether paragraphs[i] ends exactly at t and its
// successor already contains t.
func handsOver(paragraphs []transcript.EnrichedParagraph, i int, t float64) bool {
	if i < 0 || i+1 >= len(paragraphs) {
		return false
	}
	return paragraphs[i].End() == t && paragraphs[i+1].Contains(t)
}

// lastHandsOver is handsOver for the cached paragraph. A paragraph ending at
// t that cannot be placed in paragraphs by its Index is left to the scan.
func lastHandsOver(paragraphs []transcript.EnrichedParagraph, last *transcript.EnrichedParagraph, t float64) bool {
	if last.End() != t {
		return false
	}
	i := last.Index
	if i < 0 || i >= len(paragraphs) || &paragraphs[i] != last {
		return true
	}
	return handsOver(paragraphs, i, t)
}

// FindWord returns the word containing t, or nil when t falls between words.
//
// words must be sorted by Time and must not overlap. The search finds the
// last word starting at or before t in O(log n), so when one word ends
// exactly where the next begins the later word is returned.
func FindWord(words []transcript.Word, t float64) *transcript.Word {
	lo, hi := 0, len(words)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if words[mid].Time <= t {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == 0 {
		return nil
	}
	if w := &words[lo-1]; w.Contains(t) {
		return w
	}
	return nil
}

// Match is the paragraph, word and speaker current at one instant.
// All fields are nil when nothing is being said.
type Match struct {
	Paragraph *transcript.EnrichedParagraph
	Word      *transcript.Word
	Speaker   *transcript.Speaker
}

// At resolves the paragraph for t and then locates the word inside it.
func At(t float64, last *transcript.EnrichedParagraph, paragraphs []transcript.EnrichedParagraph, tolerance float64) Match {
	p := Resolve(t, last, paragraphs, tolerance)
	if p == nil {
		return Match{}
	}
	return Match{
		Paragraph: p,
		Word:      FindWord(p.Words, t),
		Speaker:   &p.Speaker,
	}
}
