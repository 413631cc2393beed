// Package actions carries out resolved intents on the desktop.
package actions

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/voxkit/voxd/internal/intent"
)

// commandTimeout bounds every spawned helper. Action commands are
// fire-and-check, never long-running.
const commandTimeout = 10 * time.Second

// Options configures the runner from the actions config section.
type Options struct {
	Enabled        bool
	BrowserCommand string
	PlayerCommand  string
	MediaSearchURL string
}

// Runner executes intents via desktop helper commands. Failures are
// reported to the caller but are never iteration-fatal; the session logs
// and moves on.
type Runner struct {
	opts   Options
	logger *slog.Logger

	// run is swapped in tests; production goes through exec.
	run func(ctx context.Context, argv []string) error
}

func NewRunner(opts Options, logger *slog.Logger) *Runner {
	r := &Runner{opts: opts, logger: logger}
	r.run = runCommand
	return r
}

// Execute performs the side effect for one intent. provide_info and
// unknown intents carry their payload in the spoken feedback and need no
// action here.
func (r *Runner) Execute(ctx context.Context, resolved intent.Intent) error {
	if !r.opts.Enabled {
		if r.logger != nil {
			r.logger.Debug("actions disabled, skipping", "intent", string(resolved.Kind))
		}
		return nil
	}

	switch resolved.Kind {
	case intent.KindPlayMedia:
		return r.openMediaSearch(ctx, resolved.Filter)
	case intent.KindPauseMedia:
		return r.playerControl(ctx, "pause")
	case intent.KindResumeMedia:
		return r.playerControl(ctx, "play")
	case intent.KindProvideInfo, intent.KindUnknown:
		return nil
	default:
		return fmt.Errorf("no action for intent %q", resolved.Kind)
	}
}

func (r *Runner) openMediaSearch(ctx context.Context, filter string) error {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return fmt.Errorf("play_media intent without search filter")
	}

	target := strings.ReplaceAll(r.opts.MediaSearchURL, "{query}", url.QueryEscape(filter))
	argv, err := shellwords.Parse(r.opts.BrowserCommand)
	if err != nil {
		return fmt.Errorf("parse browser command: %w", err)
	}
	if len(argv) == 0 {
		return fmt.Errorf("browser command is empty")
	}
	argv = append(argv, target)

	if r.logger != nil {
		r.logger.Info("opening media search", "filter", filter)
	}
	return r.run(ctx, argv)
}

func (r *Runner) playerControl(ctx context.Context, verb string) error {
	argv, err := shellwords.Parse(r.opts.PlayerCommand)
	if err != nil {
		return fmt.Errorf("parse player command: %w", err)
	}
	if len(argv) == 0 {
		return fmt.Errorf("player command is empty")
	}
	argv = append(argv, verb)

	if r.logger != nil {
		r.logger.Info("player control", "verb", verb)
	}
	return r.run(ctx, argv)
}

func runCommand(ctx context.Context, argv []string) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("run %s: %w: %s", argv[0], err, stderr.String())
		}
		return fmt.Errorf("run %s: %w", argv[0], err)
	}
	return nil
}
