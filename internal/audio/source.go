package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrDeviceUnavailable classifies capture failures that are fatal to the
// current session iteration and recovered by reopening the source.
var ErrDeviceUnavailable = errors.New("audio device unavailable")

// IsDeviceError reports whether err stems from the capture device.
func IsDeviceError(err error) bool {
	return errors.Is(err, ErrDeviceUnavailable)
}

// FrameSource is a pull-based source of fixed-size PCM frames. ReadFrame
// blocks until a frame is available, the context is cancelled, or the device
// errors; frames are never dropped silently.
type FrameSource interface {
	Open(ctx context.Context) error
	ReadFrame(ctx context.Context) ([]byte, error)
	Close() error
	SampleRate() int
	FrameSize() int
}

// PulseSource adapts a Pulse capture stream to the FrameSource contract.
type PulseSource struct {
	input      string
	fallback   string
	sampleRate int
	frameSize  int
	logger     *slog.Logger

	capture *Capture
}

// NewPulseSource builds an unopened source from device preferences.
func NewPulseSource(input, fallback string, sampleRate, frameSize int, logger *slog.Logger) *PulseSource {
	return &PulseSource{
		input:      input,
		fallback:   fallback,
		sampleRate: sampleRate,
		frameSize:  frameSize,
		logger:     logger,
	}
}

// Open resolves device selection and starts the capture stream.
func (s *PulseSource) Open(ctx context.Context) error {
	if s.capture != nil {
		return fmt.Errorf("frame source already open")
	}

	selection, err := SelectDevice(ctx, s.input, s.fallback)
	if err != nil {
		return fmt.Errorf("select input device: %w: %w", err, ErrDeviceUnavailable)
	}
	if selection.Warning != "" && s.logger != nil {
		s.logger.Warn(selection.Warning)
	}

	capture, err := StartCapture(ctx, selection.Device, s.sampleRate, s.frameSize)
	if err != nil {
		return fmt.Errorf("start capture: %w: %w", err, ErrDeviceUnavailable)
	}
	s.capture = capture

	if s.logger != nil {
		s.logger.Info("audio source open",
			"device", selection.Device.ID,
			"sample_rate", s.sampleRate,
			"frame_size", s.frameSize,
		)
	}
	return nil
}

// ReadFrame blocks for the next captured frame. A closed capture stream is
// surfaced as a device error so the controller can reopen.
func (s *PulseSource) ReadFrame(ctx context.Context) ([]byte, error) {
	if s.capture == nil {
		return nil, fmt.Errorf("frame source not open: %w", ErrDeviceUnavailable)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case frame, ok := <-s.capture.Frames():
		if !ok {
			return nil, fmt.Errorf("capture stream closed: %w", ErrDeviceUnavailable)
		}
		return frame, nil
	}
}

// Close stops the capture stream; the source may be reopened afterwards.
func (s *PulseSource) Close() error {
	if s.capture == nil {
		return nil
	}
	err := s.capture.Stop()
	s.capture = nil
	return err
}

func (s *PulseSource) SampleRate() int { return s.sampleRate }
func (s *PulseSource) FrameSize() int  { return s.frameSize }
