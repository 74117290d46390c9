package cleanup

import (
	"fmt"
	"strings"

	"github.com/agarwal-mihir/SpeakFlow/internal/transcript"
)

const minOverlap = 0.45

var metaPrefixes = []string{
	"certainly",
	"sure",
	"here's",
	"here is",
	"cleaned",
	"revised",
	"output:",
}

// hinglishKeepTokens are romanized Hindi words a rewrite must not translate
// away.
var hinglishKeepTokens = map[string]struct{}{
	"bhai": {}, "behen": {}, "kya": {}, "kyun": {}, "kaise": {}, "haan": {},
	"nahi": {}, "hai": {}, "hain": {}, "tha": {}, "thi": {}, "the": {},
	"acha": {}, "accha": {}, "yaar": {}, "bhaiya": {}, "didi": {}, "tum": {},
	"aap": {}, "mera": {}, "meri": {}, "apna": {}, "apni": {}, "kar": {},
	"karo": {}, "karna": {}, "chalo": {}, "chal": {}, "mat": {}, "toh": {},
	"bas": {}, "thik": {}, "theek": {}, "haanji": {},
}

// Validate checks a provider reply against the text it was asked to clean
// and returns the flattened candidate, or an error wrapping ErrRejected.
func Validate(original string, rewritten string, mode transcript.OutputMode) (string, error) {
	candidate := transcript.NormalizeSpaces(strings.ReplaceAll(rewritten, "\n", " "))
	candidate = stripWrappingQuotes(candidate)
	if candidate == "" {
		return "", fmt.Errorf("%w: empty reply", ErrRejected)
	}

	if mode == transcript.ModeHinglishRoman && transcript.ContainsDevanagari(candidate) {
		return "", fmt.Errorf("%w: reply contains Devanagari", ErrRejected)
	}

	lowered := strings.ToLower(candidate)
	for _, prefix := range metaPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return "", fmt.Errorf("%w: meta response", ErrRejected)
		}
	}

	source := tokens(original)
	target := tokens(candidate)
	if len(source) > 0 && len(target) == 0 {
		return "", fmt.Errorf("%w: no Latin-script words in reply", ErrRejected)
	}
	if len(source) > 0 {
		if overlap := overlapRatio(source, target); overlap < minOverlap {
			return "", fmt.Errorf("%w: low lexical overlap (%.2f)", ErrRejected, overlap)
		}
	}

	if len(target) > max(1, len(source))*2 {
		return "", fmt.Errorf("%w: output expanded too much", ErrRejected)
	}

	if mode == transcript.ModeHinglishRoman && droppedHinglish(source, target) {
		return "", fmt.Errorf("%w: likely Hinglish-to-English translation", ErrRejected)
	}
	return candidate, nil
}

// tokens lowercases runs of ASCII letters and apostrophes.
func tokens(text string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			out = append(out, strings.ToLower(b.String()))
			b.Reset()
		}
	}
	for _, r := range text {
		if r == '\'' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}

func overlapRatio(source []string, target []string) float64 {
	if len(source) == 0 {
		return 1
	}
	set := make(map[string]struct{}, len(source))
	for _, tok := range source {
		set[tok] = struct{}{}
	}
	kept := 0
	for _, tok := range target {
		if _, ok := set[tok]; ok {
			kept++
		}
	}
	return float64(kept) / float64(len(source))
}

func droppedHinglish(source []string, target []string) bool {
	var keep []string
	for _, tok := range source {
		if _, ok := hinglishKeepTokens[tok]; ok {
			keep = append(keep, tok)
		}
	}
	if len(keep) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(target))
	for _, tok := range target {
		set[tok] = struct{}{}
	}
	for _, tok := range keep {
		if _, ok := set[tok]; ok {
			return false
		}
	}
	return true
}

func stripWrappingQuotes(text string) string {
	pairs := [][2]string{{`"`, `"`}, {"'", "'"}, {"“", "”"}}
	for _, pair := range pairs {
		if len(text) >= len(pair[0])+len(pair[1]) && strings.HasPrefix(text, pair[0]) && strings.HasSuffix(text, pair[1]) {
			return strings.TrimSpace(text[len(pair[0]) : len(text)-len(pair[1])])
		}
	}
	return text
}
