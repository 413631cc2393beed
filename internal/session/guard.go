package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/voxkit/voxd/internal/audio"
)

// Guard is the anti-feedback barrier between speaking and listening. Both
// steps are awaited in order: first the capture stream is drained of any
// audio that overlapped playback, then a fixed delay passes before wake
// detection is allowed again.
type Guard struct {
	streamDrain time.Duration
	rearmDelay  time.Duration
	logger      *slog.Logger
}

func NewGuard(streamDrain, rearmDelay time.Duration, logger *slog.Logger) *Guard {
	return &Guard{streamDrain: streamDrain, rearmDelay: rearmDelay, logger: logger}
}

// Drain reads and discards frames covering streamDrain of audio time. The
// frames never reach the wake gate, so playback echoes cannot score.
func (g *Guard) Drain(ctx context.Context, source audio.FrameSource) error {
	sampleRate := source.SampleRate()
	if sampleRate <= 0 || g.streamDrain <= 0 {
		return nil
	}

	var drained time.Duration
	for drained < g.streamDrain {
		frame, err := source.ReadFrame(ctx)
		if err != nil {
			return err
		}
		drained += time.Duration(len(frame)/2) * time.Second / time.Duration(sampleRate)
	}

	if g.logger != nil {
		g.logger.Debug("capture stream drained", "drained_ms", drained.Milliseconds())
	}
	return nil
}

// RearmDelay sleeps the configured delay, cancellable by the context.
func (g *Guard) RearmDelay(ctx context.Context) error {
	if g.rearmDelay <= 0 {
		return nil
	}

	timer := time.NewTimer(g.rearmDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
