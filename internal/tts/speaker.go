package tts

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"github.com/jfreymuth/pulse"

	"github.com/voxkit/voxd/internal/audio"
)

// Speaker renders and plays one utterance, returning only after playback
// fully drains. Nothing downstream may run while audio is still leaving
// the speakers, or the microphone would hear it.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// PulseSpeaker pairs a synthesizer with Pulse playback.
type PulseSpeaker struct {
	synth  Synthesizer
	logger *slog.Logger

	// play is swapped in tests; production playback goes through Pulse.
	play func(buf audio.Buffer) error
}

func NewPulseSpeaker(synth Synthesizer, logger *slog.Logger) *PulseSpeaker {
	s := &PulseSpeaker{synth: synth, logger: logger}
	s.play = playPCM
	return s
}

// Speak synthesizes text and blocks until the audio has fully played.
func (s *PulseSpeaker) Speak(ctx context.Context, text string) error {
	buf, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		return err
	}
	if buf.Empty() {
		return nil
	}

	start := time.Now()
	if err := s.play(buf); err != nil {
		return &SynthesisError{Err: err}
	}
	if s.logger != nil {
		s.logger.Info("spoken",
			"audio_ms", buf.Duration().Milliseconds(),
			"playback_ms", time.Since(start).Milliseconds(),
		)
	}
	return nil
}

// playPCM plays a buffer through Pulse and drains the stream before
// returning.
func playPCM(buf audio.Buffer) error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("voxd"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	samples := pcmToInt16(buf.PCM())
	cursor := 0
	reader := pulse.Int16Reader(func(out []int16) (int, error) {
		if cursor >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(out, samples[cursor:])
		cursor += n
		if cursor >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(buf.SampleRate()),
		pulse.PlaybackLatency(0.05),
		pulse.PlaybackMediaName("voxd feedback"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play feedback stream: %w", err)
	}
	return nil
}

func pcmToInt16(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples
}
