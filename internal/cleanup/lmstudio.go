package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"
	"sync"
	"time"

	"github.com/agarwal-mihir/SpeakFlow/internal/config"
)

const lmstudioPollInterval = 350 * time.Millisecond

// LMStudio rewrites through a local LM Studio server. When no model is
// configured the first id served at /models is used and cached. An
// unreachable server is launched at most once per provider instance.
type LMStudio struct {
	chat         chatClient
	model        string
	autoStart    bool
	startCmd     []string
	startTimeout time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
	launch       func(argv []string) error

	mu             sync.Mutex
	resolved       string
	startAttempted bool
}

// NewLMStudio builds an LM Studio provider from the cleanup config.
func NewLMStudio(cfg config.CleanupConfig, httpClient *http.Client, logger *slog.Logger) *LMStudio {
	if logger == nil {
		logger = slog.Default()
	}
	return &LMStudio{
		chat:         newChatClient(cfg.LMStudioBaseURL, "lm-studio", timeoutFromMS(cfg.MaxCleanupTimeoutMS, 200*time.Millisecond), httpClient),
		model:        cfg.LMStudioModel,
		autoStart:    cfg.LMStudioAutoStart,
		startCmd:     append([]string(nil), cfg.LMStudioStartCmd.Argv...),
		startTimeout: timeoutFromMS(cfg.LMStudioStartTimeout, 500*time.Millisecond),
		pollInterval: lmstudioPollInterval,
		logger:       logger,
		launch:       startDetached,
	}
}

func (l *LMStudio) Name() string { return string(config.ProviderLMStudio) }

func (l *LMStudio) Rewrite(ctx context.Context, req Request) (string, error) {
	model, err := l.resolveModel(ctx)
	if err != nil {
		return "", err
	}
	return l.chat.complete(ctx, model, req)
}

func (l *LMStudio) resolveModel(ctx context.Context) (string, error) {
	if l.model != "" {
		return l.model, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.resolved != "" {
		return l.resolved, nil
	}

	ids, err := l.chat.listModels(ctx)
	if err != nil && l.ensureRunning(ctx) {
		ids, err = l.chat.listModels(ctx)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("%w: server reachable but no models are loaded", ErrModelUnavailable)
	}

	l.resolved = ids[0]
	l.logger.Info("lmstudio model resolved", "model", l.resolved)
	return l.resolved, nil
}

// ensureRunning launches the server once and polls /models until it answers
// or the start timeout passes. Callers hold l.mu.
func (l *LMStudio) ensureRunning(ctx context.Context) bool {
	if !l.autoStart || l.startAttempted || len(l.startCmd) == 0 {
		return false
	}
	l.startAttempted = true

	l.logger.Warn("lmstudio unreachable, launching server", "cmd", l.startCmd)
	if err := l.launch(l.startCmd); err != nil {
		l.logger.Warn("lmstudio launch failed", "error", err.Error())
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, l.startTimeout)
	defer cancel()
	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Warn("lmstudio did not become reachable", "timeout", l.startTimeout.String())
			return false
		case <-ticker.C:
			if _, err := l.chat.listModels(ctx); err == nil {
				l.logger.Info("lmstudio reachable after launch")
				return true
			}
		}
	}
}

func startDetached(argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", argv[0], err)
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
