package cleanup

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/agarwal-mihir/SpeakFlow/internal/config"
)

// KeyFunc resolves an API key at call time.
type KeyFunc func() (string, error)

// Groq rewrites through Groq's OpenAI-compatible endpoint.
type Groq struct {
	baseURL    string
	model      string
	timeout    time.Duration
	key        KeyFunc
	httpClient *http.Client
}

// NewGroq builds a Groq provider from the cleanup config.
func NewGroq(cfg config.CleanupConfig, key KeyFunc, httpClient *http.Client) *Groq {
	return &Groq{
		baseURL:    cfg.GroqBaseURL,
		model:      cfg.GroqModel,
		timeout:    timeoutFromMS(cfg.MaxCleanupTimeoutMS, 200*time.Millisecond),
		key:        key,
		httpClient: httpClient,
	}
}

func (g *Groq) Name() string { return string(config.ProviderGroq) }

func (g *Groq) Rewrite(ctx context.Context, req Request) (string, error) {
	if g.key == nil {
		return "", ErrMissingKey
	}
	key, err := g.key()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingKey, err)
	}
	if key == "" {
		return "", ErrMissingKey
	}
	return newChatClient(g.baseURL, key, g.timeout, g.httpClient).complete(ctx, g.model, req)
}
