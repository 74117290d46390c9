// Package app dispatches speakflow commands: the daemon, thin IPC clients,
// and local diagnostics.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/agarwal-mihir/SpeakFlow/internal/audio"
	"github.com/agarwal-mihir/SpeakFlow/internal/cli"
	"github.com/agarwal-mihir/SpeakFlow/internal/config"
	"github.com/agarwal-mihir/SpeakFlow/internal/doctor"
	"github.com/agarwal-mihir/SpeakFlow/internal/history"
	"github.com/agarwal-mihir/SpeakFlow/internal/logging"
	"github.com/agarwal-mihir/SpeakFlow/internal/version"
)

const (
	binaryName          = "speakflow"
	defaultHistoryLimit = 10
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}
	logRuntime.SetLevel(cfgLoaded.Config.Debug.LogLevel)

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandRun:
		return r.commandRun(ctx, cfgLoaded, logger)
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandHistory:
		return r.commandHistory(ctx, cfgLoaded.Config, parsed.Args)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandKey:
		return r.commandKey(ctx, parsed.Args)
	case cli.CommandPress, cli.CommandRelease, cli.CommandToggle,
		cli.CommandStop, cli.CommandCancel, cli.CommandPasteLast:
		return r.forwardOrFail(ctx, string(parsed.Command))
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// commandDevices lists capture sources; "*" marks the server default.
func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	tw := tabwriter.NewWriter(r.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tDESCRIPTION\tSTATE\tAVAILABLE\tMUTED")
	for _, d := range devices {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			mark(d.Default, "*", ""),
			d.ID,
			d.Description,
			d.State,
			mark(d.Available, "yes", "no"),
			mark(d.Muted, "yes", "no"),
		)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func mark(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}

// commandHistory prints the newest sessions first, one per line.
func (r Runner) commandHistory(ctx context.Context, cfg config.Config, args []string) int {
	limit, err := cli.ParseHistoryLimit(args, defaultHistoryLimit)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 2
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer store.Close()

	entries, err := store.Recent(ctx, limit)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(entries) == 0 {
		fmt.Fprintln(r.Stdout, "no dictation history")
		return 0
	}

	for _, e := range entries {
		text := e.FinalText
		if e.Outcome != "success" && e.Error != "" {
			text = "error: " + e.Error
		}
		app := e.SourceApp
		if app == "" {
			app = "-"
		}
		fmt.Fprintf(r.Stdout, "%s  %-7s  %-12s  %s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.Outcome,
			app,
			text,
		)
	}
	return 0
}
