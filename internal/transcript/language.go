package transcript

import (
	"unicode/utf8"

	"github.com/agarwal-mihir/SpeakFlow/internal/config"
)

// OutputMode is the script/register the final text is produced in.
type OutputMode string

const (
	ModeEnglish       OutputMode = "english"
	ModeHinglishRoman OutputMode = "hinglish_roman"
)

const (
	hindiConfidenceThreshold = 0.45
	mixedScriptThreshold     = 0.07
)

// Analysis is the raw engine output used to decide the output mode.
type Analysis struct {
	RawText          string
	DetectedLanguage string
	Confidence       float64
}

// Decision records the chosen output mode and the signals behind it.
type Decision struct {
	Mode               OutputMode
	ContainsDevanagari bool
	MixedScriptRatio   float64
}

// Decide picks the output mode. english and hinglish_roman force their mode;
// auto selects Hinglish on Devanagari, a confident hi detection, or a high
// share of non-ASCII characters.
func Decide(mode config.LanguageMode, a Analysis) Decision {
	d := Decision{
		Mode:               ModeEnglish,
		ContainsDevanagari: ContainsDevanagari(a.RawText),
		MixedScriptRatio:   MixedScriptRatio(a.RawText),
	}

	switch mode {
	case config.LanguageEnglish:
		return d
	case config.LanguageHinglishRoman:
		d.Mode = ModeHinglishRoman
		return d
	}

	switch {
	case d.ContainsDevanagari,
		a.DetectedLanguage == "hi" && a.Confidence >= hindiConfidenceThreshold,
		d.MixedScriptRatio >= mixedScriptThreshold:
		d.Mode = ModeHinglishRoman
	}
	return d
}

// ContainsDevanagari reports whether text has any rune in U+0900..U+097F.
func ContainsDevanagari(text string) bool {
	for _, r := range text {
		if isDevanagari(r) {
			return true
		}
	}
	return false
}

// MixedScriptRatio returns the share of non-ASCII runes in text.
func MixedScriptRatio(text string) float64 {
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return 0
	}
	nonASCII := 0
	for _, r := range text {
		if r > 0x7F {
			nonASCII++
		}
	}
	return float64(nonASCII) / float64(total)
}

func isDevanagari(r rune) bool {
	return r >= 0x0900 && r <= 0x097F
}
