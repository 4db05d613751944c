package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/ideaflow/internal/registry"
)

// normalize applies NFKC and case folding, replaces punctuation with spaces
// and collapses whitespace. It works across scripts.
func normalize(text string) string {
	text = cases.Fold().String(norm.NFKC.String(text))
	text = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		// Arabic diacritics.
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, text)
	return strings.Join(strings.Fields(text), " ")
}

var stopWords = map[string]bool{
	// en
	"the": true, "and": true, "for": true, "with": true, "from": true, "that": true, "this": true,
	"are": true, "was": true, "will": true, "who": true, "what": true, "how": true, "their": true,
	"they": true, "our": true, "can": true, "into": true, "them": true, "have": true, "has": true,
	// fr
	"les": true, "des": true, "pour": true, "une": true, "dans": true, "avec": true, "sur": true,
	"qui": true, "que": true, "est": true, "par": true, "pas": true, "aux": true,
	// ar
	"في": true, "من": true, "على": true, "إلى": true, "الى": true, "عن": true, "مع": true,
	"هذا": true, "هذه": true, "التي": true, "الذي": true,
}

// keywords returns the distinct significant words of text.
func keywords(text string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.Fields(normalize(text)) {
		if len([]rune(w)) > 2 && !stopWords[w] {
			out[w] = true
		}
	}
	return out
}

func jaccard(a, b map[string]bool) (float64, []string) {
	if len(a) == 0 || len(b) == 0 {
		return 0, nil
	}
	var shared []string
	for w := range a {
		if b[w] {
			shared = append(shared, w)
		}
	}
	union := len(a) + len(b) - len(shared)
	return float64(len(shared)) / float64(union), shared
}

var frenchMarkers = map[string]bool{
	"les": true, "des": true, "pour": true, "une": true, "dans": true, "avec": true, "est": true, "aux": true,
}

// language guesses the language of an idea from its text.
func language(text string) string {
	if registry.IsArabic(text) {
		return "ar"
	}
	fr := 0
	for _, w := range strings.Fields(normalize(text)) {
		if frenchMarkers[w] {
			fr++
		}
	}
	if fr >= 2 {
		return "fr"
	}
	return "en"
}
