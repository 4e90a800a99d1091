package align

import (
	"regexp"
	"strings"
)

var detokEndingQuotes = []rewrite{
	{regexp.MustCompile(`([^' ])\s('ll|'LL|'re|'RE|'ve|'VE|n't|N'T) `), "${1}${2} "},
	{regexp.MustCompile(`([^' ])\s('[sS]|'[mM]|'[dD]|') `), "${1}${2} "},
	{regexp.MustCompile(`(\S)\s('')`), "${1}${2}"},
	{regexp.MustCompile(`('')\s([.,:)\]>};%])`), "${1}${2}"},
	{regexp.MustCompile(`''`), `"`},
}

var detokContractions = []rewrite{
	{regexp.MustCompile(`(?i)\b(can)\s(not)\b`), "${1}${2}"},
	{regexp.MustCompile(`(?i)\b(d)\s('ye)\b`), "${1}${2}"},
	{regexp.MustCompile(`(?i)\b(gim)\s(me)\b`), "${1}${2}"},
	{regexp.MustCompile(`(?i)\b(gon)\s(na)\b`), "${1}${2}"},
	{regexp.MustCompile(`(?i)\b(got)\s(ta)\b`), "${1}${2}"},
	{regexp.MustCompile(`(?i)\b(lem)\s(me)\b`), "${1}${2}"},
	{regexp.MustCompile(`(?i)\b(more)\s('n)\b`), "${1}${2}"},
	{regexp.MustCompile(`(?i)\b(wan)\s(na)\s`), "${1}${2} "},
	{regexp.MustCompile(`(?i) ('t)\s(is)\b`), " ${1}${2}"},
	{regexp.MustCompile(`(?i) ('t)\s(was)\b`), " ${1}${2}"},
}

var detokBrackets = []rewrite{
	{regexp.MustCompile(`([\[\(\{<])\s`), "${1}"},
	{regexp.MustCompile(`\s([\]\)\}>])`), "${1}"},
	{regexp.MustCompile(`([\]\)\}>])\s([:;,.])`), "${1}${2}"},
}

var detokPunctuation = []rewrite{
	{regexp.MustCompile(`([^'])\s'\s`), "${1}' "},
	{regexp.MustCompile(`\s([?!])`), "${1}"},
	{regexp.MustCompile(`([^.])\s(\.)([\]\)}>"']*)\s*$`), "${1}${2}${3}"},
	{regexp.MustCompile(`([#$])\s`), "${1}"},
	{regexp.MustCompile(`\s([;%])`), "${1}"},
	{regexp.MustCompile(`\s\.\.\.\s`), "..."},
	{regexp.MustCompile(`\s([&*])\s`), " ${1} "},
	{regexp.MustCompile(`\s([:,])`), "${1}"},
}

var detokStartingQuotes = []rewrite{
	{regexp.MustCompile("([ (\\[{<])\\s``"), "${1}``"},
	{regexp.MustCompile("(``)\\s"), "${1}"},
	{regexp.MustCompile("``"), `"`},
}

// Detokenize joins Treebank-style tokens back into running text, undoing the
// spacing Tokenize introduced around punctuation, quotes, brackets, and
// contractions.
func Detokenize(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	text := " " + strings.Join(tokens, " ") + " "
	text = apply(text, detokEndingQuotes)
	text = apply(text, detokContractions)
	text = apply(text, detokBrackets)
	text = apply(text, detokPunctuation)
	text = apply(text, detokStartingQuotes)
	return strings.TrimSpace(text)
}
