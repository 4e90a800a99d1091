// Package align finds the span of a reference transcript that best matches a
// short speech recognition hypothesis.
//
// The search is a brute-force sliding window over Treebank-style word tokens.
// Every window whose length stays within the hypothesis length plus a small
// slack is detokenized back into text and scored with word error rate after
// transliteration and lowercasing. The best window is returned verbatim, so
// the caller receives the reference's own casing, punctuation, and
// diacritics.
package align
