// Package record captures one spoken command, ending on silence or a hard cap.
package record

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/voxkit/voxd/internal/audio"
	"github.com/voxkit/voxd/internal/vad"
)

// Options bound a single recording. All three durations are measured in
// audio time derived from the sample rate, not wall clock, so the outcome
// is a pure function of the frames consumed.
type Options struct {
	SilenceTimeout time.Duration
	MaxDuration    time.Duration
	NoSpeechGrace  time.Duration
}

// Recorder pulls frames from a source until the command is complete.
type Recorder struct {
	logger *slog.Logger
}

func NewRecorder(logger *slog.Logger) *Recorder {
	return &Recorder{logger: logger}
}

// Record consumes frames until one of the stop conditions fires:
//
//   - MaxDuration of audio collected. This cap always wins, even mid-speech.
//   - Speech was heard and then SilenceTimeout of continuous silence followed.
//     The silence run that triggered the stop is trimmed from the result, so
//     the buffer ends where speech ended.
//   - No speech at all within NoSpeechGrace. The returned buffer is empty so
//     the caller can skip transcription entirely.
//
// The classifier is reset first, so state from a previous recording or from
// wake-phrase audio cannot bleed in.
func (r *Recorder) Record(ctx context.Context, source audio.FrameSource, classifier vad.Classifier, opts Options) (audio.Buffer, error) {
	classifier.Reset()

	sampleRate := source.SampleRate()
	if sampleRate <= 0 {
		return audio.Buffer{}, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	var (
		pcm        []byte
		elapsed    time.Duration
		speechSeen bool
		silence    time.Duration
		speechEnd  int // pcm length at the end of the last speech frame
	)

	for {
		frame, err := source.ReadFrame(ctx)
		if err != nil {
			return audio.Buffer{}, fmt.Errorf("read frame: %w", err)
		}

		pcm = append(pcm, frame...)
		frameDur := time.Duration(len(frame)/2) * time.Second / time.Duration(sampleRate)
		elapsed += frameDur

		if classifier.IsSpeech(frame) {
			speechSeen = true
			silence = 0
			speechEnd = len(pcm)
		} else if speechSeen {
			silence += frameDur
		}

		if elapsed >= opts.MaxDuration {
			if r.logger != nil {
				r.logger.Info("recording hit max duration", "elapsed_ms", elapsed.Milliseconds())
			}
			return audio.NewBuffer(pcm, sampleRate, 1), nil
		}

		if speechSeen && silence >= opts.SilenceTimeout {
			if r.logger != nil {
				r.logger.Info("recording ended on silence",
					"elapsed_ms", elapsed.Milliseconds(),
					"trimmed_ms", (elapsed - silence).Milliseconds(),
				)
			}
			return audio.NewBuffer(pcm[:speechEnd], sampleRate, 1), nil
		}

		if !speechSeen && elapsed >= opts.NoSpeechGrace {
			if r.logger != nil {
				r.logger.Info("no speech within grace period", "grace_ms", opts.NoSpeechGrace.Milliseconds())
			}
			return audio.NewBuffer(nil, sampleRate, 1), nil
		}
	}
}
