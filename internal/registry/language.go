package registry

import "unicode"

// IsArabic reports whether at least half of the letters in text are in
// Arabic script.
func IsArabic(text string) bool {
	letters, arabic := 0, 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.Is(unicode.Arabic, r) {
				arabic++
			}
		}
	}
	return letters > 0 && arabic*2 >= letters
}

// Language picks the prompt language for text: Arabic when the text is
// mostly Arabic script, otherwise fallback, otherwise DefaultLanguage.
func Language(text, fallback string) string {
	if IsArabic(text) {
		return "ar"
	}
	if fallback == "" {
		return DefaultLanguage
	}
	return fallback
}
