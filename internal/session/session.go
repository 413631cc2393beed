// Package session runs the voice interaction loop through its phases.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/voxkit/voxd/internal/audio"
	"github.com/voxkit/voxd/internal/fsm"
	"github.com/voxkit/voxd/internal/intent"
	"github.com/voxkit/voxd/internal/ipc"
	"github.com/voxkit/voxd/internal/record"
	"github.com/voxkit/voxd/internal/vad"
)

// Transcriber converts one recording to text.
type Transcriber interface {
	Transcribe(ctx context.Context, recording audio.Buffer) (string, error)
}

// Reasoner resolves one transcript to an intent.
type Reasoner interface {
	Resolve(ctx context.Context, text string) (intent.Intent, error)
}

// Speaker renders and plays feedback, returning after playback drains.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// ActionRunner performs the side effect for a resolved intent.
type ActionRunner interface {
	Execute(ctx context.Context, resolved intent.Intent) error
}

// CuePlayer plays the wake acknowledgment chime.
type CuePlayer interface {
	Play(ctx context.Context)
}

// WakeDetector consumes frames and reports accepted wake detections.
type WakeDetector interface {
	Feed(ctx context.Context, frame []byte, armed bool) (bool, error)
	Reset()
}

// Recorder captures one command after a wake detection.
type Recorder interface {
	Record(ctx context.Context, source audio.FrameSource, classifier vad.Classifier, opts record.Options) (audio.Buffer, error)
}

// Config carries the timing knobs the controller needs per iteration.
type Config struct {
	Record record.Options

	StreamDrain time.Duration
	RearmDelay  time.Duration

	// AudioDumpDir enables WAV dumps of each captured command when set.
	AudioDumpDir string

	// Device reopen policy after a capture failure.
	ReopenRetries int
	ReopenBackoff time.Duration
}

// Controller owns the phase loop. All session state is mutated by the one
// goroutine running Run; the mutex only guards the snapshots served to the
// IPC surface.
type Controller struct {
	logger      *slog.Logger
	source      audio.FrameSource
	gate        WakeDetector
	classifier  vad.Classifier
	recorder    Recorder
	transcriber Transcriber
	reasoner    Reasoner
	speaker     Speaker
	actions     ActionRunner
	cue         CuePlayer
	cfg         Config

	mu          sync.RWMutex
	phase       fsm.Phase
	wakeAllowed bool
	iterations  int

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewController wires the collaborators into a stopped-at-start controller.
func NewController(
	logger *slog.Logger,
	source audio.FrameSource,
	gate WakeDetector,
	classifier vad.Classifier,
	recorder Recorder,
	transcriber Transcriber,
	reasoner Reasoner,
	speaker Speaker,
	actions ActionRunner,
	cue CuePlayer,
	cfg Config,
) *Controller {
	return &Controller{
		logger:      logger,
		source:      source,
		gate:        gate,
		classifier:  classifier,
		recorder:    recorder,
		transcriber: transcriber,
		reasoner:    reasoner,
		speaker:     speaker,
		actions:     actions,
		cue:         cue,
		cfg:         cfg,
		phase:       fsm.PhaseAwaitingWake,
		wakeAllowed: true,
		stopCh:      make(chan struct{}),
	}
}

// Phase returns the current phase snapshot.
func (c *Controller) Phase() fsm.Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

// WakeAllowed reports whether wake detections are currently accepted.
func (c *Controller) WakeAllowed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wakeAllowed
}

// Iterations returns how many wake cycles have started.
func (c *Controller) Iterations() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.iterations
}

// RequestStop asks the running loop to shut down cooperatively. Safe to
// call from any goroutine, any number of times.
func (c *Controller) RequestStop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.phase, event)
	if err != nil {
		return err
	}
	if c.logger != nil {
		c.logger.Debug("phase transition", "from", string(c.phase), "event", string(event), "to", string(next))
	}
	c.phase = next
	return nil
}

func (c *Controller) setWakeAllowed(allowed bool) {
	c.mu.Lock()
	c.wakeAllowed = allowed
	c.mu.Unlock()
}

// Run executes the session loop until the context is cancelled, stop is
// requested, or the capture device fails beyond recovery.
func (c *Controller) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := c.source.Open(ctx); err != nil {
		return fmt.Errorf("open audio source: %w", err)
	}
	defer c.source.Close()

	if c.logger != nil {
		c.logger.Info("session loop started")
	}

	for {
		if ctx.Err() != nil {
			return c.shutdown()
		}

		err := c.iterate(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return c.shutdown()
		case audio.IsDeviceError(err):
			if reopenErr := c.reopenSource(ctx); reopenErr != nil {
				_ = c.transition(fsm.EventShutdown)
				return reopenErr
			}
			c.recoverToListening("audio device error", err)
		default:
			c.recoverToListening("iteration failed", err)
		}
	}
}

// iterate runs one full wake-to-rearm cycle. Returning nil means the loop
// is back at awaiting_wake; any error has phase recovery handled by Run.
func (c *Controller) iterate(ctx context.Context) error {
	c.mu.Lock()
	c.iterations++
	iteration := c.iterations
	c.mu.Unlock()

	if err := c.awaitWake(ctx); err != nil {
		return err
	}

	// Acknowledgment cue runs unawaited so recording starts immediately.
	go c.cue.Play(ctx)

	recording, err := c.record(ctx)
	if err != nil {
		return err
	}
	if recording.Empty() {
		if c.logger != nil {
			c.logger.Info("no speech captured, rearming", "iteration", iteration)
		}
		return c.transition(fsm.EventEmpty)
	}

	text, err := c.transcribe(ctx, recording)
	if err != nil {
		return err
	}
	if text == "" {
		if c.logger != nil {
			c.logger.Info("empty transcript, rearming", "iteration", iteration)
		}
		if err := c.transition(fsm.EventFail); err != nil {
			return err
		}
		c.setWakeAllowed(true)
		return nil
	}

	resolved, err := c.reason(ctx, text)
	if err != nil {
		return err
	}

	if err := c.speak(ctx, resolved); err != nil {
		return err
	}

	if err := c.drainAndRearm(ctx); err != nil {
		return err
	}

	if c.logger != nil {
		c.logger.Info("iteration complete",
			"iteration", iteration,
			"transcript_chars", len(text),
			"intent", string(resolved.Kind),
		)
	}
	return nil
}

// awaitWake feeds capture frames to the gate until a detection is accepted.
func (c *Controller) awaitWake(ctx context.Context) error {
	for {
		frame, err := c.source.ReadFrame(ctx)
		if err != nil {
			return err
		}

		detected, err := c.gate.Feed(ctx, frame, c.WakeAllowed())
		if err != nil {
			if c.logger != nil {
				c.logger.Warn("wake scoring failed", "error", err)
			}
			continue
		}
		if detected {
			// Drop the window holding the wake phrase so it cannot score again.
			c.gate.Reset()
			return c.transition(fsm.EventWake)
		}
	}
}

func (c *Controller) record(ctx context.Context) (audio.Buffer, error) {
	recording, err := c.recorder.Record(ctx, c.source, c.classifier, c.cfg.Record)
	if err != nil {
		return audio.Buffer{}, err
	}
	c.dumpRecording(recording)
	return recording, nil
}

// transcribe runs STT on the recording. Wake detections are suppressed
// from here until rearm completes; only AwaitingWake and Recording listen
// for the wake phrase.
func (c *Controller) transcribe(ctx context.Context, recording audio.Buffer) (string, error) {
	c.setWakeAllowed(false)
	if err := c.transition(fsm.EventCaptured); err != nil {
		return "", err
	}

	text, err := c.transcriber.Transcribe(ctx, recording)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	return text, nil
}

// reason resolves the transcript, substituting the fallback intent on any
// reasoning failure so the user always hears a response.
func (c *Controller) reason(ctx context.Context, text string) (intent.Intent, error) {
	if err := c.transition(fsm.EventTranscribed); err != nil {
		return intent.Intent{}, err
	}

	resolved, err := c.reasoner.Resolve(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return intent.Intent{}, ctx.Err()
		}
		if c.logger != nil {
			c.logger.Warn("reasoning failed, using fallback", "error", err)
		}
		resolved = intent.Fallback()
	}

	if err := c.transition(fsm.EventResolved); err != nil {
		return intent.Intent{}, err
	}
	return resolved, nil
}

// speak executes the intent's action and plays the feedback.
func (c *Controller) speak(ctx context.Context, resolved intent.Intent) error {
	if err := c.actions.Execute(ctx, resolved); err != nil {
		if c.logger != nil {
			c.logger.Warn("action failed", "intent", string(resolved.Kind), "error", err)
		}
	}

	if resolved.Feedback != "" {
		if err := c.speaker.Speak(ctx, resolved.Feedback); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if c.logger != nil {
				c.logger.Warn("feedback playback failed", "error", err)
			}
		}
	}

	return c.transition(fsm.EventSpoken)
}

func (c *Controller) drainAndRearm(ctx context.Context) error {
	guard := NewGuard(c.cfg.StreamDrain, c.cfg.RearmDelay, c.logger)

	if err := guard.Drain(ctx, c.source); err != nil {
		return err
	}
	if err := c.transition(fsm.EventDrained); err != nil {
		return err
	}

	if err := guard.RearmDelay(ctx); err != nil {
		return err
	}
	if err := c.transition(fsm.EventRearmed); err != nil {
		return err
	}

	c.gate.Reset()
	c.setWakeAllowed(true)
	return nil
}

// recoverToListening routes the loop back to awaiting_wake after a
// non-fatal iteration error.
func (c *Controller) recoverToListening(reason string, err error) {
	if c.logger != nil {
		c.logger.Warn(reason, "error", err, "phase", string(c.Phase()))
	}
	if c.Phase() != fsm.PhaseAwaitingWake {
		_ = c.transition(fsm.EventFail)
	}
	c.gate.Reset()
	c.classifier.Reset()
	c.setWakeAllowed(true)
}

// reopenSource closes and reopens the capture stream with capped retries.
func (c *Controller) reopenSource(ctx context.Context) error {
	_ = c.source.Close()

	for attempt := 1; attempt <= c.cfg.ReopenRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := c.source.Open(ctx); err == nil {
			if c.logger != nil {
				c.logger.Info("audio source reopened", "attempt", attempt)
			}
			return nil
		} else if c.logger != nil {
			c.logger.Warn("audio source reopen failed", "attempt", attempt, "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.ReopenBackoff):
		}
	}
	return fmt.Errorf("audio source unrecoverable after %d attempts: %w", c.cfg.ReopenRetries, audio.ErrDeviceUnavailable)
}

func (c *Controller) shutdown() error {
	_ = c.transition(fsm.EventShutdown)
	if c.logger != nil {
		c.logger.Info("session loop stopped")
	}
	return nil
}

// dumpRecording writes the captured command as WAV for debugging.
func (c *Controller) dumpRecording(recording audio.Buffer) {
	if c.cfg.AudioDumpDir == "" || recording.Empty() {
		return
	}

	name := fmt.Sprintf("command-%s.wav", time.Now().Format("20060102-150405.000"))
	path := filepath.Join(c.cfg.AudioDumpDir, name)

	file, err := os.Create(path)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("audio dump failed", "path", path, "error", err)
		}
		return
	}
	defer file.Close()

	if err := recording.WriteWAV(file); err != nil && c.logger != nil {
		c.logger.Warn("audio dump failed", "path", path, "error", err)
	}
}

// Handle serves IPC commands against the running loop.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	snapshot := ipc.Response{
		Phase:       string(c.Phase()),
		WakeAllowed: c.WakeAllowed(),
		Iterations:  c.Iterations(),
	}

	switch req.Command {
	case ipc.CommandStatus:
		snapshot.OK = true
		snapshot.Message = "status"
		return snapshot
	case ipc.CommandStop:
		c.RequestStop()
		snapshot.OK = true
		snapshot.Message = "stop requested"
		return snapshot
	default:
		snapshot.Error = fmt.Sprintf("unknown command: %s", req.Command)
		return snapshot
	}
}
