package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agarwal-mihir/SpeakFlow/internal/cleanup"
	"github.com/agarwal-mihir/SpeakFlow/internal/config"
	"github.com/agarwal-mihir/SpeakFlow/internal/ducker"
	"github.com/agarwal-mihir/SpeakFlow/internal/history"
	"github.com/agarwal-mihir/SpeakFlow/internal/hypr"
	"github.com/agarwal-mihir/SpeakFlow/internal/indicator"
	"github.com/agarwal-mihir/SpeakFlow/internal/ipc"
	"github.com/agarwal-mihir/SpeakFlow/internal/metrics"
	"github.com/agarwal-mihir/SpeakFlow/internal/output"
	"github.com/agarwal-mihir/SpeakFlow/internal/pipeline"
	"github.com/agarwal-mihir/SpeakFlow/internal/secrets"
	"github.com/agarwal-mihir/SpeakFlow/internal/session"
	"github.com/agarwal-mihir/SpeakFlow/internal/transcribe"
)

// commandRun owns the runtime socket and serves dictation sessions until ctx
// is cancelled.
func (r Runner) commandRun(ctx context.Context, loaded config.Loaded, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, func(path string) {
		logger.Warn("removed stale daemon socket", "path", path)
	})
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: speakflow is already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	if err := r.serve(ctx, loaded, logger, listener); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("daemon stopped", "error", err.Error())
		return 1
	}
	logger.Info("daemon stopped")
	return 0
}

func (r Runner) serve(ctx context.Context, loaded config.Loaded, logger *slog.Logger, listener net.Listener) error {
	watcher := config.NewWatcher(loaded, logger, config.WithOnChange(func(_, next config.Config) {
		logger.Info("config reloaded",
			"hotkey_mode", next.HotkeyMode,
			"cleanup_provider", next.Cleanup.Provider,
			"paste_method", next.Paste.Method,
		)
	}))
	cfg := watcher.Current()

	engine, err := transcribe.Load(cfg.Whisper.ModelPath, cfg.Whisper.Threads, logger)
	if err != nil {
		return fmt.Errorf("load whisper model: %w", err)
	}
	defer func() { _ = engine.Close() }()

	provider, err := metrics.NewProvider()
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx)
	}()
	m, err := metrics.NewMetrics(provider.MeterProvider)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	var store session.History
	if cfg.History.Enable {
		s, err := history.Open(cfg.History.Path)
		if err != nil {
			logger.Warn("history disabled", "error", err.Error())
		} else {
			defer s.Close()
			store = s
		}
	}

	ind := indicator.New(cfg.Indicator, logger)
	// Clears a notification left on screen by a daemon that crashed.
	ind.Sync(indicator.State{Phase: indicator.PhaseIdle})
	recorder := pipeline.NewRecorder(logger)

	ctrl := session.NewController(session.Deps{
		Logger: logger,
		Config: watcher.Current,
		Recorder: session.RecorderFunc(func(ctx context.Context, cfg config.Config) (session.Recording, error) {
			rec, err := recorder.Start(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return rec, nil
		}),
		Ducker:      ducker.New(ducker.PulseMixer{}, logger),
		Transcriber: engine,
		Cleaner:     cleanup.NewStage(logger, cleanup.WithKeyFunc(secrets.GroqAPIKey)),
		Injector: func(cfg config.Config) session.Injector {
			return output.NewInjector(output.NewClipboard(cfg.Clipboard), output.NewDispatcher(cfg), output.DefaultTiming, logger)
		},
		Indicator: ind,
		History:   store,
		Metrics:   m,
		TargetApp: hypr.ActiveApp,
	})

	logger.Info("daemon ready",
		"socket", listener.Addr().String(),
		"hotkey_mode", cfg.HotkeyMode,
		"model", cfg.Whisper.ModelPath,
		"metrics", cfg.Metrics.Listen,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ctrl.Run(gctx) })
	g.Go(func() error { return ipc.Serve(gctx, listener, ctrl) })
	g.Go(func() error { return watcher.Run(gctx) })
	g.Go(func() error { return ind.Run(gctx) })
	g.Go(func() error { return provider.Serve(gctx, cfg.Metrics.Listen, logger) })
	return g.Wait()
}
