package align

import (
	"strings"
	"unicode/utf8"
)

// windowPadding is how many tokens a window may exceed the hypothesis by
// before slack from special tokens is added.
const windowPadding = 2

// Result is the outcome of a single alignment.
type Result struct {
	// Text is the best window, verbatim from the reference. Empty when no
	// window qualified.
	Text string
	// Score is the window's word error rate against the hypothesis.
	Score float64
	// Start and End delimit the window in reference tokens, End exclusive.
	Start int
	End   int
}

// Found reports whether any window was selected.
func (r Result) Found() bool {
	return r.End > r.Start
}

// Aligner searches a reference transcript for the window that best matches a
// hypothesis. The zero value keeps the first window among equally scored
// ones.
type Aligner struct {
	// KeepLatestOnTie lets a later window with an equal score replace the
	// current best.
	KeepLatestOnTie bool
}

// Align returns the best window of reference for hypothesis.
//
// Windows start at every token s with at least len(hypothesis tokens) tokens
// remaining and end before token e, for s < e < s+len(hyp)+2+slack. A special
// token at e increments slack and is never the end of a window; slack resets
// per start. Windows that detokenize to a single rune are skipped. Only
// windows scoring at most 1 are eligible.
func (a Aligner) Align(hypothesis, reference string) Result {
	ref := Tokenize(reference)
	hypLen := len(Tokenize(hypothesis))
	hypWords := strings.Fields(Normalize(hypothesis))

	best := Result{Score: 1}
	found := false
	for s := 0; s <= len(ref)-hypLen; s++ {
		slack := 0
		for e := s; e <= len(ref); e++ {
			if e < len(ref) && IsSpecial(ref[e]) {
				slack++
				continue
			}
			if e <= s {
				continue
			}
			if e >= s+hypLen+windowPadding+slack {
				// slack grows at most one per token, so the bound is never reached again
				break
			}
			candidate := strings.ReplaceAll(Detokenize(ref[s:e]), " .", ".")
			if utf8.RuneCountInString(candidate) <= 1 {
				continue
			}
			score := scoreWords(candidate, hypWords)
			if score < best.Score || (score == best.Score && (!found || a.KeepLatestOnTie)) {
				best = Result{Text: candidate, Score: score, Start: s, End: e}
				found = true
			}
		}
	}
	return best
}

// BestMatch returns the reference text that best matches hypothesis, or ""
// when the reference is too short to hold a window.
func BestMatch(hypothesis, reference string) string {
	return Aligner{}.Align(hypothesis, reference).Text
}
