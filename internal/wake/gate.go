package wake

import (
	"context"
	"log/slog"
	"time"

	"github.com/voxkit/voxd/internal/audio"
)

// scoreStride is how many frames are buffered between scorer invocations
// once the rolling window is full. Scoring every frame would fork the
// scorer process dozens of times per second for no extra recall.
const scoreStride = 4

// Gate owns the rolling audio window and the accept policy. Frames are fed
// continuously; whether a detection is surfaced depends on the armed flag,
// so suppressed audio still ages out of the window instead of being replayed
// later.
type Gate struct {
	scorer     Scorer
	threshold  float64
	cooldown   time.Duration
	sampleRate int
	windowLen  int
	logger     *slog.Logger

	window        []byte
	framesPending int
	lastAccepted  time.Time
	now           func() time.Time
}

// NewGate sizes the rolling window for the given duration of s16le mono audio.
func NewGate(scorer Scorer, threshold float64, window, cooldown time.Duration, sampleRate int, logger *slog.Logger) *Gate {
	windowLen := int(window.Seconds() * float64(sampleRate) * 2)
	return &Gate{
		scorer:     scorer,
		threshold:  threshold,
		cooldown:   cooldown,
		sampleRate: sampleRate,
		windowLen:  windowLen,
		logger:     logger,
		window:     make([]byte, 0, windowLen),
		now:        time.Now,
	}
}

// Feed appends one frame to the rolling window and, when due, scores it.
// It reports a detection only when armed is true and the cooldown since the
// last accepted detection has elapsed. Scores produced while disarmed are
// discarded.
func (g *Gate) Feed(ctx context.Context, frame []byte, armed bool) (bool, error) {
	g.window = append(g.window, frame...)
	if overflow := len(g.window) - g.windowLen; overflow > 0 {
		g.window = g.window[overflow:]
	}

	if len(g.window) < g.windowLen {
		return false, nil
	}

	g.framesPending++
	if g.framesPending < scoreStride {
		return false, nil
	}
	g.framesPending = 0

	score, err := g.scorer.Score(ctx, g.snapshot())
	if err != nil {
		return false, err
	}

	if !armed || score < g.threshold {
		return false, nil
	}

	if since := g.now().Sub(g.lastAccepted); g.lastAccepted != (time.Time{}) && since < g.cooldown {
		if g.logger != nil {
			g.logger.Debug("wake detection within cooldown", "score", score, "since_ms", since.Milliseconds())
		}
		return false, nil
	}

	g.lastAccepted = g.now()
	if g.logger != nil {
		g.logger.Info("wake phrase detected", "score", score)
	}
	return true, nil
}

// Reset drops buffered audio so a fresh listening period starts empty.
func (g *Gate) Reset() {
	g.window = g.window[:0]
	g.framesPending = 0
}

func (g *Gate) snapshot() audio.Buffer {
	return audio.NewBuffer(g.window, g.sampleRate, 1)
}
