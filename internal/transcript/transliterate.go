package transcript

import "strings"

const (
	halant = '\u094D'
	nukta  = '\u093C'
)

var independentVowels = map[rune]string{
	'अ': "a", 'आ': "aa", 'इ': "i", 'ई': "ee", 'उ': "u", 'ऊ': "oo",
	'ऋ': "ri", 'ए': "e", 'ऐ': "ai", 'ओ': "o", 'औ': "au",
}

var matras = map[rune]string{
	'ा': "aa", 'ि': "i", 'ी': "ee", 'ु': "u", 'ू': "oo",
	'ृ': "ri", 'े': "e", 'ै': "ai", 'ो': "o", 'ौ': "au",
}

var consonants = map[rune]string{
	'क': "k", 'ख': "kh", 'ग': "g", 'घ': "gh", 'ङ': "ng",
	'च': "ch", 'छ': "chh", 'ज': "j", 'झ': "jh", 'ञ': "ny",
	'ट': "t", 'ठ': "th", 'ड': "d", 'ढ': "dh", 'ण': "n",
	'त': "t", 'थ': "th", 'द': "d", 'ध': "dh", 'न': "n",
	'प': "p", 'फ': "ph", 'ब': "b", 'भ': "bh", 'म': "m",
	'य': "y", 'र': "r", 'ल': "l", 'व': "v",
	'श': "sh", 'ष': "sh", 'स': "s", 'ह': "h",
	// precomposed nukta forms
	'\u0958': "q", '\u0959': "kh", '\u095A': "g", '\u095B': "z",
	'\u095C': "r", '\u095D': "rh", '\u095E': "f",
}

// nuktaConsonants maps base consonant + U+093C sequences.
var nuktaConsonants = map[rune]string{
	'क': "q", 'ख': "kh", 'ग': "g", 'ज': "z", 'फ': "f", 'ड': "r", 'ढ': "rh",
}

var specials = map[rune]string{
	'ं': "m", 'ँ': "n", 'ः': "h", halant: "", nukta: "",
	'।': ".", '॥': ".",
}

// Transliterate romanizes Devanagari with an inherent "a" after consonants
// that carry neither a matra nor a halant. The inherent vowel is dropped at
// the end of a word unless the consonant starts it ("haal", but "na").
// Non-Devanagari runes pass through; unmapped Devanagari runes are dropped.
func Transliterate(text string) string {
	runes := []rune(text)
	var out strings.Builder
	out.Grow(len(text))

	wordStart := true
	for i := 0; i < len(runes); {
		r := runes[i]
		startsWord := wordStart
		wordStart = !isDevanagari(r)

		if v, ok := independentVowels[r]; ok {
			out.WriteString(v)
			i++
			continue
		}

		base, isConsonant := "", false
		if i+1 < len(runes) && runes[i+1] == nukta {
			if v, ok := nuktaConsonants[r]; ok {
				base, isConsonant = v, true
				i += 2
			}
		}
		if !isConsonant {
			if v, ok := consonants[r]; ok {
				base, isConsonant = v, true
				i++
			}
		}

		if isConsonant {
			var next rune
			if i < len(runes) {
				next = runes[i]
			}
			if next == halant {
				out.WriteString(base)
				i++
				continue
			}
			if m, ok := matras[next]; ok {
				out.WriteString(base + m)
				i++
				continue
			}
			if !startsWord && endsWord(runes, i) {
				out.WriteString(base)
				continue
			}
			out.WriteString(base + "a")
			continue
		}

		if m, ok := matras[r]; ok {
			out.WriteString(m)
			i++
			continue
		}
		if s, ok := specials[r]; ok {
			out.WriteString(s)
			i++
			continue
		}
		if r >= '०' && r <= '९' {
			out.WriteRune('0' + (r - '०'))
			i++
			continue
		}
		if !isDevanagari(r) {
			out.WriteRune(r)
		}
		i++
	}

	return out.String()
}

// endsWord reports whether no Devanagari letter or sign follows index i.
func endsWord(runes []rune, i int) bool {
	if i >= len(runes) {
		return true
	}
	r := runes[i]
	return !isDevanagari(r) || r == '।' || r == '॥'
}
