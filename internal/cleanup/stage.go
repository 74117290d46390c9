package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/agarwal-mihir/SpeakFlow/internal/config"
	"github.com/agarwal-mihir/SpeakFlow/internal/transcript"
)

// Result is the outcome of one Clean call. Err is set when a provider
// failure was absorbed; Text is then the input unchanged.
type Result struct {
	Text     string
	Provider string
	Applied  bool
	Err      error
	Latency  time.Duration
}

// Stage selects the configured provider for each session and guards network
// providers with a per-provider breaker.
type Stage struct {
	logger     *slog.Logger
	key        KeyFunc
	httpClient *http.Client

	mu          sync.Mutex
	breakers    map[string]*breakerEntry
	lmstudio    *LMStudio
	lmstudioCfg string
}

type breakerEntry struct {
	breaker  *Breaker
	settings string
}

// StageOption configures a Stage.
type StageOption func(*Stage)

// WithKeyFunc sets the Groq API key resolver.
func WithKeyFunc(key KeyFunc) StageOption {
	return func(s *Stage) {
		s.key = key
	}
}

// WithHTTPClient overrides the HTTP client used by network providers.
func WithHTTPClient(client *http.Client) StageOption {
	return func(s *Stage) {
		s.httpClient = client
	}
}

// NewStage builds a cleanup stage.
func NewStage(logger *slog.Logger, opts ...StageOption) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Stage{
		logger:   logger,
		breakers: make(map[string]*breakerEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Clean rewrites text with the provider named in cfg. It never fails.
func (s *Stage) Clean(ctx context.Context, cfg config.CleanupConfig, text string, mode transcript.OutputMode) Result {
	started := time.Now()
	provider := s.provider(cfg)
	result := Result{Text: text, Provider: provider.Name()}
	if strings.TrimSpace(text) == "" {
		return result
	}

	req := Request{Text: text, Mode: mode}
	if _, ok := provider.(Deterministic); ok {
		out, _ := provider.Rewrite(ctx, req)
		result.Text = out
		result.Applied = out != text
		result.Latency = time.Since(started)
		return result
	}

	var (
		reply   string
		skipped error
	)
	err := s.breaker(provider.Name(), cfg).Execute(func() error {
		out, rerr := provider.Rewrite(ctx, req)
		if errors.Is(rerr, ErrMissingKey) {
			skipped = rerr
			return nil
		}
		reply = out
		return rerr
	})
	if err == nil && skipped != nil {
		err = skipped
	}
	if err == nil {
		reply, err = Validate(text, reply, mode)
	}
	result.Latency = time.Since(started)

	if err != nil {
		result.Err = &Error{Provider: provider.Name(), Err: err}
		s.logger.Warn("cleanup skipped, keeping transcript",
			"provider", provider.Name(),
			"error", err.Error(),
			"latency_ms", result.Latency.Milliseconds(),
		)
		return result
	}

	result.Text = reply
	result.Applied = true
	s.logger.Debug("cleanup applied",
		"provider", provider.Name(),
		"chars_in", len(text),
		"chars_out", len(reply),
		"latency_ms", result.Latency.Milliseconds(),
	)
	return result
}

// BreakerState reports the breaker state for a provider name.
func (s *Stage) BreakerState(name string) BreakerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.breakers[name]; ok {
		return entry.breaker.State()
	}
	return BreakerClosed
}

func (s *Stage) provider(cfg config.CleanupConfig) Provider {
	switch cfg.Provider {
	case config.ProviderGroq:
		return NewGroq(cfg, s.key, s.httpClient)
	case config.ProviderLMStudio:
		if !cfg.LMStudioEnabled {
			return Deterministic{}
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		key := fmt.Sprintf("%s|%s|%t|%d|%d|%q", cfg.LMStudioBaseURL, cfg.LMStudioModel, cfg.LMStudioAutoStart,
			cfg.LMStudioStartTimeout, cfg.MaxCleanupTimeoutMS, cfg.LMStudioStartCmd.Argv)
		if s.lmstudio == nil || s.lmstudioCfg != key {
			s.lmstudio = NewLMStudio(cfg, s.httpClient, s.logger)
			s.lmstudioCfg = key
		}
		return s.lmstudio
	default:
		return Deterministic{}
	}
}

func (s *Stage) breaker(name string, cfg config.CleanupConfig) *Breaker {
	settings := fmt.Sprintf("%d|%d", cfg.BreakerMaxFailures, cfg.BreakerResetTimeoutMS)

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.breakers[name]
	if !ok || entry.settings != settings {
		entry = &breakerEntry{
			breaker:  NewBreaker(name, cfg.BreakerMaxFailures, time.Duration(cfg.BreakerResetTimeoutMS)*time.Millisecond, s.logger),
			settings: settings,
		}
		s.breakers[name] = entry
	}
	return entry.breaker
}
