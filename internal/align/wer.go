package align

import "strings"

// WER returns the word error rate of hypothesis against reference: the word
// level edit distance divided by the number of reference words. Words are
// whitespace separated; no other normalization is applied. An empty reference
// scores 0 against an empty hypothesis and 1 otherwise.
func WER(reference, hypothesis string) float64 {
	return wordErrorRate(strings.Fields(reference), strings.Fields(hypothesis))
}

func wordErrorRate(ref, hyp []string) float64 {
	if len(ref) == 0 {
		if len(hyp) == 0 {
			return 0
		}
		return 1
	}
	return float64(editDistance(ref, hyp)) / float64(len(ref))
}

func editDistance(a, b []string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// Score compares a reference candidate with a hypothesis after normalizing
// both. Whitespace-only candidates get the worst score, 1.
func Score(candidate, hypothesis string) float64 {
	return scoreWords(candidate, strings.Fields(Normalize(hypothesis)))
}

func scoreWords(candidate string, hypWords []string) float64 {
	if strings.TrimSpace(candidate) == "" {
		return 1
	}
	return wordErrorRate(strings.Fields(Normalize(candidate)), hypWords)
}
