package align

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// transliterations covers letters that do not decompose into a base letter
// plus combining marks.
var transliterations = strings.NewReplacer(
	"đ", "d", "Đ", "D",
	"ß", "ss",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O",
	"ł", "l", "Ł", "L",
	"ħ", "h", "Ħ", "H",
	"ı", "i",
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
	"\u2013", "-", "\u2014", "-",
	"…", "...",
)

// Normalize folds text for comparison: it transliterates to ASCII where a
// base letter exists (dropping diacritics) and lowercases the result.
func Normalize(text string) string {
	text = transliterations.Replace(text)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	// Casers carry state, so one is built per call.
	return cases.Lower(language.Und).String(folded)
}
