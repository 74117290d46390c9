// Package cleanup rewrites raw transcripts through a configured provider.
// The Stage never fails: provider errors are absorbed and the input text is
// returned unchanged.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agarwal-mihir/SpeakFlow/internal/transcript"
)

var (
	ErrMissingKey       = errors.New("api key missing")
	ErrEmptyChoice      = errors.New("empty choices in response")
	ErrModelUnavailable = errors.New("no model available")
	ErrRejected         = errors.New("rewrite rejected")
)

// Request is one rewrite call.
type Request struct {
	Text string
	Mode transcript.OutputMode
}

// Provider rewrites transcript text.
type Provider interface {
	Name() string
	Rewrite(ctx context.Context, req Request) (string, error)
}

// Error records a provider failure absorbed by the Stage.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("cleanup %s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Deterministic applies rule-based polish only.
type Deterministic struct{}

func (Deterministic) Name() string { return "deterministic" }

func (Deterministic) Rewrite(_ context.Context, req Request) (string, error) {
	return transcript.Polish(req.Text, req.Mode), nil
}

// SystemPrompt returns the rewrite instructions for an output mode.
func SystemPrompt(mode transcript.OutputMode) string {
	if mode == transcript.ModeHinglishRoman {
		return strings.Join([]string{
			"You are a strict dictation text normalizer.",
			"Task: minimally clean text while preserving the original words and meaning.",
			"Rules:",
			"1) Output Roman Hinglish only.",
			"2) Keep Hindi words in Roman script as spoken.",
			"3) Never translate Hindi words to English (e.g. bhai->brother, kya->what is forbidden).",
			"4) Do not paraphrase, summarize, explain, or add content.",
			"5) Only fix spacing, punctuation, casing, and stretched letters.",
			"6) Return one plain line only. No quotes, markdown, or preface.",
		}, "\n")
	}
	return strings.Join([]string{
		"You are a strict dictation text normalizer.",
		"Task: minimally clean English text while preserving original words and meaning.",
		"Rules:",
		"1) Keep the same wording as much as possible.",
		"2) Do not paraphrase, summarize, explain, or add content.",
		"3) Only fix spacing, punctuation, and casing.",
		"4) Return one plain line only. No quotes, markdown, or preface.",
	}, "\n")
}

// TokenBudget caps completion length at four tokens per word plus slack,
// bounded to [40, 180].
func TokenBudget(text string) int {
	budget := len(strings.Fields(text))*4 + 20
	return min(max(budget, 40), 180)
}
