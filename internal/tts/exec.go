package tts

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/voxkit/voxd/internal/audio"
)

// ExecSynth shells out to a synthesizer such as piper. The text goes to
// stdin, raw little-endian s16 mono PCM comes back on stdout.
type ExecSynth struct {
	argv       []string
	sampleRate int
	timeout    time.Duration
}

// NewExecSynth parses the configured command line. The voice, when set, is
// appended as `--voice <name>`.
func NewExecSynth(command, voice string, sampleRate int, timeout time.Duration) (*ExecSynth, error) {
	argv, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse tts command: %w", err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("tts command is empty")
	}
	if voice != "" {
		argv = append(argv, "--voice", voice)
	}
	return &ExecSynth{argv: argv, sampleRate: sampleRate, timeout: timeout}, nil
}

// Synthesize renders one utterance to a PCM buffer.
func (s *ExecSynth) Synthesize(ctx context.Context, text string) (audio.Buffer, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return audio.NewBuffer(nil, s.sampleRate, 1), nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, s.argv[0], s.argv[1:]...)
	cmd.Stdin = strings.NewReader(text + "\n")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return audio.Buffer{}, &SynthesisError{Err: fmt.Errorf("run synth command: %w: %s", err, stderr.String())}
		}
		return audio.Buffer{}, &SynthesisError{Err: fmt.Errorf("run synth command: %w", err)}
	}

	pcm := stdout.Bytes()
	if len(pcm)%2 != 0 {
		pcm = pcm[:len(pcm)-1]
	}
	return audio.NewBuffer(pcm, s.sampleRate, 1), nil
}
