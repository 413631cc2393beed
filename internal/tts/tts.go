// Package tts synthesizes feedback speech and plays it to completion.
package tts

import (
	"context"
	"fmt"

	"github.com/voxkit/voxd/internal/audio"
)

// Synthesizer renders text to a complete PCM buffer.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (audio.Buffer, error)
}

// SynthesisError marks a failed synthesis or playback. The session logs it
// and continues; feedback speech is never worth crashing over.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string { return fmt.Sprintf("speech synthesis failed: %v", e.Err) }
func (e *SynthesisError) Unwrap() error { return e.Err }
