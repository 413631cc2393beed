// Package transcript normalizes recognized text and spots control phrases.
package transcript

import (
	"regexp"
	"strings"
)

// annotationPattern matches non-speech markers some recognizers emit, such
// as [BLANK_AUDIO], [MUSIC], or (wind blowing).
var annotationPattern = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)

// flushPhrases ask for the conversation context to be discarded.
var flushPhrases = []string{
	"new session",
	"start over",
	"reset",
	"clear context",
}

// Normalize strips recognizer annotations and collapses whitespace. A
// transcript that contained only annotations normalizes to "".
func Normalize(raw string) string {
	cleaned := annotationPattern.ReplaceAllString(raw, " ")
	return strings.Join(strings.Fields(cleaned), " ")
}

// IsFlush reports whether the transcript asks to reset the conversation.
// Matching is case-insensitive substring, same as the phrases people use
// mid-sentence ("ok let's start over").
func IsFlush(text string) bool {
	lowered := strings.ToLower(text)
	for _, phrase := range flushPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}
