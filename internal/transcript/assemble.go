// Package transcript assembles recognized segments and applies language-aware
// normalization (output-mode decision, Devanagari romanization).
package transcript

import "strings"

// Assemble joins recognized segments and collapses whitespace.
func Assemble(segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	return NormalizeSpaces(strings.Join(segments, " "))
}

// NormalizeSpaces collapses every whitespace run to one space and trims.
func NormalizeSpaces(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
