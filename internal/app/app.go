// Package app dispatches CLI commands to the daemon loop and control surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/voxkit/voxd/internal/actions"
	"github.com/voxkit/voxd/internal/audio"
	"github.com/voxkit/voxd/internal/cli"
	"github.com/voxkit/voxd/internal/config"
	"github.com/voxkit/voxd/internal/cue"
	"github.com/voxkit/voxd/internal/doctor"
	"github.com/voxkit/voxd/internal/intent"
	"github.com/voxkit/voxd/internal/ipc"
	"github.com/voxkit/voxd/internal/logging"
	"github.com/voxkit/voxd/internal/record"
	"github.com/voxkit/voxd/internal/session"
	"github.com/voxkit/voxd/internal/stt"
	"github.com/voxkit/voxd/internal/tts"
	"github.com/voxkit/voxd/internal/vad"
	"github.com/voxkit/voxd/internal/version"
	"github.com/voxkit/voxd/internal/wake"
)

const (
	forwardTimeout = 220 * time.Millisecond
	probeTimeout   = 180 * time.Millisecond

	deviceReopenRetries = 5
	deviceReopenBackoff = 2 * time.Second
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
		fmt.Fprint(r.Stderr, cli.HelpText("voxd"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("voxd"))
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
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		logger.Warn("config warning", "message", w.Message)
	}

	logger.Info("command start",
		"command", string(parsed.Command),
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandStop:
		return r.forwardOrFail(ctx, ipc.CommandStop)
	case cli.CommandRun:
		return r.commandRun(ctx, cfgLoaded.Config, logRuntime.Path, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// commandRun starts the daemon loop in the foreground, serving IPC until
// shutdown.
func (r Runner) commandRun(ctx context.Context, cfg config.Config, logPath string, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, probeTimeout, 8, nil)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: voxd session already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	controller, err := buildController(cfg, logPath, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, controller)
	}()

	runErr := controller.Run(ctx)
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	if runErr != nil {
		logger.Error("session loop failed", "error", runErr.Error())
		fmt.Fprintf(r.Stderr, "error: %v\n", runErr)
		return 1
	}
	fmt.Fprintln(r.Stdout, "stopped")
	return 0
}

// buildController wires all collaborators from config.
func buildController(cfg config.Config, logPath string, logger *slog.Logger) (*session.Controller, error) {
	source := audio.NewPulseSource(
		cfg.Audio.Input,
		cfg.Audio.Fallback,
		cfg.Audio.SampleRate,
		cfg.Audio.FrameSize,
		logger,
	)

	scorer, err := wake.NewExecScorer(cfg.Wake.Command, cfg.Wake.Model, cfg.Wake.Timeout())
	if err != nil {
		return nil, fmt.Errorf("configure wake scorer: %w", err)
	}
	gate := wake.NewGate(
		scorer,
		cfg.Wake.Threshold,
		cfg.Wake.Window(),
		cfg.Wake.Cooldown(),
		cfg.Audio.SampleRate,
		logger,
	)

	synth, err := tts.NewExecSynth(cfg.TTS.Command, cfg.TTS.Voice, cfg.TTS.SampleRate, cfg.TTS.Timeout())
	if err != nil {
		return nil, fmt.Errorf("configure tts: %w", err)
	}

	reasoner := intent.NewOllamaReasoner(intent.Options{
		Endpoint:         cfg.LLM.Endpoint,
		Model:            cfg.LLM.Model,
		MaxTokens:        cfg.LLM.MaxTokens,
		Temperature:      cfg.LLM.Temperature,
		SystemPromptPath: cfg.LLM.SystemPromptPath,
		Timeout:          cfg.LLM.Timeout(),
		ContextTimeout:   cfg.LLM.ContextTimeout(),
	}, logger)

	runner := actions.NewRunner(actions.Options{
		Enabled:        cfg.Actions.Enabled,
		BrowserCommand: cfg.Actions.BrowserCommand,
		PlayerCommand:  cfg.Actions.PlayerCommand,
		MediaSearchURL: cfg.Actions.MediaSearchURL,
	}, logger)

	sessionCfg := session.Config{
		Record: record.Options{
			SilenceTimeout: cfg.Record.SilenceTimeout(),
			MaxDuration:    cfg.Record.MaxDuration(),
			NoSpeechGrace:  cfg.Record.NoSpeechGrace(),
		},
		StreamDrain:   cfg.Guard.StreamDrain(),
		RearmDelay:    cfg.Guard.RearmDelay(),
		ReopenRetries: deviceReopenRetries,
		ReopenBackoff: deviceReopenBackoff,
	}

	if cfg.Debug.AudioDump {
		dumpDir := filepath.Join(filepath.Dir(logPath), "dumps")
		if err := os.MkdirAll(dumpDir, 0o700); err != nil {
			return nil, fmt.Errorf("create audio dump dir: %w", err)
		}
		sessionCfg.AudioDumpDir = dumpDir
	}

	return session.NewController(
		logger,
		source,
		gate,
		vad.NewRMS(cfg.VAD.Threshold),
		record.NewRecorder(logger),
		stt.NewWhisperClient(cfg.STT.URL, cfg.STT.Timeout(), logger),
		reasoner,
		tts.NewPulseSpeaker(synth, logger),
		runner,
		cue.NewChime(cfg.Cue.Enabled, cfg.Cue.SoundFile, logger),
		sessionCfg,
	), nil
}

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

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "stopped")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandStatus)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.Phase == "" {
			resp.Phase = "stopped"
		}
		wake := "suppressed"
		if resp.WakeAllowed {
			wake = "armed"
		}
		fmt.Fprintf(r.Stdout, "%s (wake %s, iterations %d)\n", resp.Phase, wake, resp.Iterations)
		return 0
	}

	fmt.Fprintln(r.Stdout, "stopped")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active voxd session\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, forwardTimeout)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) || isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
