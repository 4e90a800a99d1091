package align_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/align"
)

func TestAlignSelectsExactWindow(t *testing.T) {
	res := align.Aligner{}.Align("world how are", "hello world how are you today")
	if res.Text != "world how are" {
		t.Fatalf("expected exact window, got %q", res.Text)
	}
	if res.Score != 0 {
		t.Fatalf("expected score 0, got %v", res.Score)
	}
	if res.Start != 1 || res.End != 4 {
		t.Fatalf("unexpected token span [%d,%d)", res.Start, res.End)
	}
}

func TestAlignIsDeterministic(t *testing.T) {
	hyp := "xin chao cac ban"
	ref := "Hôm nay, xin chào các bạn đến với chương trình."
	first := align.BestMatch(hyp, ref)
	for i := 0; i < 5; i++ {
		if got := align.BestMatch(hyp, ref); got != first {
			t.Fatalf("run %d returned %q, want %q", i, got, first)
		}
	}
}

func TestAlignIgnoresDiacriticsAndCase(t *testing.T) {
	res := align.Aligner{}.Align("xin chao cac ban", "Hôm nay, xin chào các bạn đến với chương trình.")
	if res.Text != "xin chào các bạn" {
		t.Fatalf("expected verbatim reference text, got %q", res.Text)
	}
	if res.Score != 0 {
		t.Fatalf("expected score 0, got %v", res.Score)
	}
}

func TestAlignCanReachEndOfReference(t *testing.T) {
	res := align.Aligner{}.Align("the quick brown fox", "the quick brown fox")
	if res.Text != "the quick brown fox" || res.Score != 0 {
		t.Fatalf("expected whole reference, got %q (%v)", res.Text, res.Score)
	}
}

func TestAlignTieBreak(t *testing.T) {
	ref := "red fish blue fish red fish"
	first := align.Aligner{}.Align("red fish", ref)
	if first.Start != 0 || first.End != 2 || first.Score != 0 {
		t.Fatalf("expected earliest exact window, got %+v", first)
	}
	latest := align.Aligner{KeepLatestOnTie: true}.Align("red fish", ref)
	if latest.Start != 4 || latest.End != 6 || latest.Text != "red fish" {
		t.Fatalf("expected latest exact window, got %+v", latest)
	}
}

func TestAlignShortReference(t *testing.T) {
	cases := []struct{ hyp, ref string }{
		{"one two three four", "hi"},
		{"a", "b"},
		{"anything", ""},
	}
	for _, tc := range cases {
		res := align.Aligner{}.Align(tc.hyp, tc.ref)
		if res.Found() || res.Text != "" {
			t.Fatalf("Align(%q, %q) = %+v, want empty result", tc.hyp, tc.ref, res)
		}
	}
}

func TestAlignEmptyHypothesis(t *testing.T) {
	res := align.Aligner{}.Align("", "hello world")
	if res.Text != "hello" {
		t.Fatalf("expected first single-word window, got %q", res.Text)
	}
	if res.Score != 1 {
		t.Fatalf("expected score 1 for empty hypothesis, got %v", res.Score)
	}
}

func TestAlignNeverSelectsWorseThanOne(t *testing.T) {
	// every window scores above 1 because the hypothesis is much longer
	res := align.Aligner{}.Align("a b c d e f g h", "zz yy xx ww vv uu tt ss")
	if res.Score > 1 {
		t.Fatalf("selected a window scoring %v", res.Score)
	}
}

func TestAlignSpecialTokenWindows(t *testing.T) {
	tests := []struct {
		name string
		hyp  string
		ref  string
		want align.Result
	}{
		{
			// bound without slack is e < 5; the commas stretch it to reach e = 6
			name: "slack extends window",
			hyp:  "a b c",
			ref:  "a, b, c, d",
			want: align.Result{Text: "a, b, c,", Score: 1, Start: 0, End: 6},
		},
		{
			// "a b" would score 0 but ends right before the comma
			name: "no window ends before a special token",
			hyp:  "a b",
			ref:  "x a b, c",
			want: align.Result{Text: "a b,", Score: 0.5, Start: 1, End: 4},
		},
		{
			// the leading comma counts for start 0 only; carried over it would
			// admit "a x b y c" at 0.4
			name: "slack resets per start",
			hyp:  "a b c",
			ref:  ", a x b y c",
			want: align.Result{Text: "a x b y", Score: 0.5, Start: 1, End: 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := align.Aligner{}.Align(tt.hyp, tt.ref)
			if got != tt.want {
				t.Fatalf("Align(%q, %q) = %+v, want %+v", tt.hyp, tt.ref, got, tt.want)
			}
		})
	}
}

// exhaustiveAlign scores every window the bound admits without stopping early.
func exhaustiveAlign(hypothesis, reference string, keepLatest bool) align.Result {
	ref := align.Tokenize(reference)
	hypLen := len(align.Tokenize(hypothesis))
	best := align.Result{Score: 1}
	found := false
	for s := 0; s <= len(ref)-hypLen; s++ {
		slack := 0
		for e := s; e <= len(ref); e++ {
			if e < len(ref) && align.IsSpecial(ref[e]) {
				slack++
				continue
			}
			if e <= s || e >= s+hypLen+2+slack {
				continue
			}
			candidate := strings.ReplaceAll(align.Detokenize(ref[s:e]), " .", ".")
			if utf8.RuneCountInString(candidate) <= 1 {
				continue
			}
			score := align.Score(candidate, hypothesis)
			if score < best.Score || (score == best.Score && (!found || keepLatest)) {
				best = align.Result{Text: candidate, Score: score, Start: s, End: e}
				found = true
			}
		}
	}
	return best
}

func TestAlignMatchesExhaustiveSearch(t *testing.T) {
	refs := []string{
		"a, b, c, d",
		", a x b y c",
		"Hôm nay, xin chào các bạn đến với chương trình.",
		"One, two; three (four) five -- six. Seven? Eight!",
		`He said "go now" and we went, quickly, home.`,
		"red fish blue fish red fish",
		"x, , , y z",
	}
	hyps := []string{
		"a b c",
		"xin chao cac ban",
		"two three four five",
		"go now and we went",
		"fish red",
		"y z",
		"",
	}
	for _, ref := range refs {
		for _, hyp := range hyps {
			for _, latest := range []bool{false, true} {
				got := align.Aligner{KeepLatestOnTie: latest}.Align(hyp, ref)
				want := exhaustiveAlign(hyp, ref, latest)
				if got != want {
					t.Fatalf("Align(%q, %q, latest=%v) = %+v, want %+v", hyp, ref, latest, got, want)
				}
			}
		}
	}
}

func TestWER(t *testing.T) {
	tests := []struct {
		ref, hyp string
		want     float64
	}{
		{"a b c", "a b c", 0},
		{"a b c d", "a x c", 0.5},
		{"", "", 0},
		{"", "x", 1},
		{"a", "a b c", 2},
		{"a  b", " a b ", 0},
	}
	for _, tt := range tests {
		if got := align.WER(tt.ref, tt.hyp); got != tt.want {
			t.Fatalf("WER(%q, %q) = %v, want %v", tt.ref, tt.hyp, got, tt.want)
		}
	}
}

func TestScoreNormalizesAndDisqualifiesWhitespace(t *testing.T) {
	if got := align.Score("Xin Chào", "xin chao"); got != 0 {
		t.Fatalf("expected normalized match, got %v", got)
	}
	if got := align.Score("   ", "xin chao"); got != 1 {
		t.Fatalf("expected whitespace candidate to score 1, got %v", got)
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Đường Phố Hà Nội": "duong pho ha noi",
		"Crème Brûlée":     "creme brulee",
		"STRASSE":          "strasse",
		"Straße":           "strasse",
	}
	for in, want := range cases {
		if got := align.Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
