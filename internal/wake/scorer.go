// Package wake detects the wake phrase on the live capture stream.
package wake

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/voxkit/voxd/internal/audio"
)

// Scorer rates how strongly a PCM window resembles the wake phrase.
// Scores are in [0,1].
type Scorer interface {
	Score(ctx context.Context, window audio.Buffer) (float64, error)
}

// ExecScorer shells out to an external wake-phrase model runner. The window
// is written to stdin as WAV and the score read back as JSON.
type ExecScorer struct {
	argv    []string
	timeout time.Duration
}

type scoreReply struct {
	Score float64 `json:"score"`
}

// NewExecScorer parses the configured command line. The model name, when
// set, is appended as the final argument.
func NewExecScorer(command, model string, timeout time.Duration) (*ExecScorer, error) {
	argv, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse wake command: %w", err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("wake command is empty")
	}
	if model != "" {
		argv = append(argv, model)
	}
	return &ExecScorer{argv: argv, timeout: timeout}, nil
}

// Score runs one scorer invocation for the given window.
func (s *ExecScorer) Score(ctx context.Context, window audio.Buffer) (float64, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, s.argv[0], s.argv[1:]...)
	cmd.Stdin = bytes.NewReader(window.WAV())

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return 0, fmt.Errorf("wake scorer failed: %w: %s", err, stderr.String())
		}
		return 0, fmt.Errorf("wake scorer failed: %w", err)
	}

	var reply scoreReply
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &reply); err != nil {
		return 0, fmt.Errorf("parse wake scorer output: %w", err)
	}
	if reply.Score < 0 || reply.Score > 1 {
		return 0, fmt.Errorf("wake score %v out of range", reply.Score)
	}
	return reply.Score, nil
}
