package intent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePlainJSON(t *testing.T) {
	t.Parallel()

	parsed, err := Parse(`{"intent":"play_media","filter":"miles davis","feedback":"Playing Miles Davis."}`)
	require.NoError(t, err)
	require.Equal(t, KindPlayMedia, parsed.Kind)
	require.Equal(t, "miles davis", parsed.Filter)
	require.Equal(t, "Playing Miles Davis.", parsed.Feedback)
}

func TestParseStripsMarkdownFences(t *testing.T) {
	t.Parallel()

	raw := "```json\n{\"intent\": \"pause_media\", \"feedback\": \"Paused.\"}\n```"
	parsed, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, KindPauseMedia, parsed.Kind)
	require.Equal(t, "Paused.", parsed.Feedback)
}

func TestParseUnknownIntentNameDegrades(t *testing.T) {
	t.Parallel()

	parsed, err := Parse(`{"intent":"order_pizza","feedback":"I can't do that."}`)
	require.NoError(t, err)
	require.Equal(t, KindUnknown, parsed.Kind)
	require.Equal(t, "I can't do that.", parsed.Feedback)
}

func TestParseRejectsEmptyAndMalformed(t *testing.T) {
	t.Parallel()

	_, err := Parse("")
	require.Error(t, err)

	_, err = Parse("```json\n```")
	require.Error(t, err)

	_, err = Parse("I would love to help with that!")
	require.Error(t, err)
}

func TestFallbackAlwaysSpeakable(t *testing.T) {
	t.Parallel()

	fb := Fallback()
	require.Equal(t, KindUnknown, fb.Kind)
	require.NotEmpty(t, fb.Feedback)
}

func TestReasoningErrorUnwraps(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	err := &ReasoningError{Err: base}
	require.ErrorIs(t, err, base)
}
