package transcript

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize applies the mode's engine post-step: whitespace is collapsed and
// Hinglish text is romanized so it never carries Devanagari.
func Normalize(text string, mode OutputMode) string {
	if mode == ModeHinglishRoman && ContainsDevanagari(text) {
		text = Transliterate(text)
	}
	return NormalizeSpaces(text)
}

// PolishEnglish capitalizes the first letter and ensures terminal punctuation.
func PolishEnglish(text string) string {
	text = NormalizeSpaces(text)
	if text == "" {
		return text
	}
	first, size := utf8.DecodeRuneInString(text)
	text = string(unicode.ToUpper(first)) + text[size:]
	return withTerminalPunctuation(text)
}

// PolishHinglish romanizes if needed and ensures terminal punctuation. Casing
// is left alone.
func PolishHinglish(text string) string {
	text = Normalize(text, ModeHinglishRoman)
	if text == "" {
		return text
	}
	return withTerminalPunctuation(text)
}

// Polish dispatches to the mode's polish rule.
func Polish(text string, mode OutputMode) string {
	if mode == ModeHinglishRoman {
		return PolishHinglish(text)
	}
	return PolishEnglish(text)
}

func withTerminalPunctuation(text string) string {
	if strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?") {
		return text
	}
	return text + "."
}
