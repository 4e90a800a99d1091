package align

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type rewrite struct {
	re   *regexp.Regexp
	repl string
}

func apply(text string, rules []rewrite) string {
	for _, rule := range rules {
		text = rule.re.ReplaceAllString(text, rule.repl)
	}
	return text
}

var startingQuotes = []rewrite{
	{regexp.MustCompile(`^"`), "``"},
	{regexp.MustCompile("(``)"), " ${1} "},
	{regexp.MustCompile(`([ (\[{<])("|'{2})`), "${1} `` "},
}

var punctuation = []rewrite{
	{regexp.MustCompile(`([:,])([^\d])`), " ${1} ${2}"},
	{regexp.MustCompile(`([:,])$`), " ${1} "},
	{regexp.MustCompile(`\.\.\.`), " ... "},
	{regexp.MustCompile(`[;@#$%&]`), " ${0} "},
	{regexp.MustCompile(`([^.])(\.)([\]\)}>"']*)\s*$`), "${1} ${2}${3} "},
	{regexp.MustCompile(`[?!]`), " ${0} "},
	{regexp.MustCompile(`([^'])' `), "${1} ' "},
	{regexp.MustCompile(`[\]\[\(\)\{\}<>]`), " ${0} "},
	{regexp.MustCompile(`--`), " -- "},
}

var endingQuotes = []rewrite{
	{regexp.MustCompile(`"`), " '' "},
	{regexp.MustCompile(`(\S)('')`), "${1} ${2} "},
	{regexp.MustCompile(`([^' ])('[sS]|'[mM]|'[dD]|') `), "${1} ${2} "},
	{regexp.MustCompile(`([^' ])('ll|'LL|'re|'RE|'ve|'VE|n't|N'T) `), "${1} ${2} "},
}

var contractions = []rewrite{
	{regexp.MustCompile(`(?i)\b(can)(not)\b`), " ${1} ${2} "},
	{regexp.MustCompile(`(?i)\b(d)('ye)\b`), " ${1} ${2} "},
	{regexp.MustCompile(`(?i)\b(gim)(me)\b`), " ${1} ${2} "},
	{regexp.MustCompile(`(?i)\b(gon)(na)\b`), " ${1} ${2} "},
	{regexp.MustCompile(`(?i)\b(got)(ta)\b`), " ${1} ${2} "},
	{regexp.MustCompile(`(?i)\b(lem)(me)\b`), " ${1} ${2} "},
	{regexp.MustCompile(`(?i)\b(more)('n)\b`), " ${1} ${2} "},
	{regexp.MustCompile(`(?i)\b(wan)(na)\s`), " ${1} ${2} "},
	{regexp.MustCompile(`(?i) ('t)(is)\b`), " ${1} ${2} "},
	{regexp.MustCompile(`(?i) ('t)(was)\b`), " ${1} ${2} "},
}

// Tokenize splits text into Treebank-style word tokens. Sentences are split
// first so that every sentence-final period becomes its own token.
func Tokenize(text string) []string {
	var tokens []string
	for _, sentence := range splitSentences(text) {
		tokens = append(tokens, tokenizeSentence(sentence)...)
	}
	return tokens
}

func tokenizeSentence(text string) []string {
	text = apply(text, startingQuotes)
	text = apply(text, punctuation)
	text = " " + text + " "
	text = apply(text, endingQuotes)
	text = apply(text, contractions)
	return strings.Fields(text)
}

var abbreviations = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {}, "st": {}, "jr": {}, "sr": {},
	"vs": {}, "etc": {}, "e.g": {}, "i.e": {}, "u.s": {}, "no": {}, "inc": {}, "co": {},
}

// splitSentences breaks text after '.', '?' or '!' (plus trailing closing
// quotes or brackets) when whitespace follows and the next word does not start
// with a lowercase letter. Known abbreviations never end a sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if r != '.' && r != '?' && r != '!' {
			continue
		}
		end := i
		for end < len(text) && strings.ContainsRune(`"')]}`, rune(text[end])) {
			end++
		}
		if end >= len(text) {
			break
		}
		next, _ := utf8.DecodeRuneInString(text[end:])
		if !unicode.IsSpace(next) {
			continue
		}
		rest := strings.TrimLeftFunc(text[end:], unicode.IsSpace)
		if rest == "" {
			break
		}
		first, _ := utf8.DecodeRuneInString(rest)
		if unicode.IsLower(first) {
			continue
		}
		if r == '.' && isAbbreviation(text[start:i-size]) {
			continue
		}
		if sentence := strings.TrimSpace(text[start:end]); sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = end
		i = end
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func isAbbreviation(prefix string) bool {
	fields := strings.Fields(prefix)
	if len(fields) == 0 {
		return false
	}
	word := strings.ToLower(strings.TrimLeft(fields[len(fields)-1], `"'([{`))
	_, ok := abbreviations[word]
	return ok
}

// IsSpecial reports whether a token contains any rune that is not a letter or
// a digit. Such tokens widen the alignment window instead of closing it.
func IsSpecial(token string) bool {
	for _, r := range token {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			return true
		}
	}
	return false
}
