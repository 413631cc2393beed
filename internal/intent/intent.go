// Package intent maps transcripts to structured intents via an LLM backend.
package intent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind names one of the actions the assistant knows how to perform.
type Kind string

const (
	KindPlayMedia   Kind = "play_media"
	KindPauseMedia  Kind = "pause_media"
	KindResumeMedia Kind = "resume_media"
	KindProvideInfo Kind = "provide_info"
	KindUnknown     Kind = "unknown"
)

// Intent is the structured result of one reasoning round trip. Filter
// carries the search term for media intents; Feedback is the sentence
// spoken back to the user.
type Intent struct {
	Kind     Kind   `json:"intent"`
	Filter   string `json:"filter,omitempty"`
	Feedback string `json:"feedback,omitempty"`
}

// Fallback is spoken whenever reasoning fails, so the user always hears
// an acknowledgment even when the backend is down.
func Fallback() Intent {
	return Intent{
		Kind:     KindUnknown,
		Feedback: "Sorry, I didn't catch that.",
	}
}

// ReasoningError marks a failed reasoning round trip. The session recovers
// by speaking the fallback response.
type ReasoningError struct {
	Err error
}

func (e *ReasoningError) Error() string { return fmt.Sprintf("reasoning failed: %v", e.Err) }
func (e *ReasoningError) Unwrap() error { return e.Err }

// Parse decodes a model response into an Intent. Markdown code fences are
// stripped first since models wrap JSON in them regardless of instructions.
// An intent name outside the known set degrades to KindUnknown while
// keeping the feedback text.
func Parse(raw string) (Intent, error) {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return Intent{}, fmt.Errorf("empty model response")
	}

	var parsed Intent
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return Intent{}, fmt.Errorf("parse intent JSON: %w", err)
	}

	switch parsed.Kind {
	case KindPlayMedia, KindPauseMedia, KindResumeMedia, KindProvideInfo, KindUnknown:
	default:
		parsed.Kind = KindUnknown
	}
	return parsed, nil
}
