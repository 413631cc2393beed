// Package vad classifies PCM frames as speech or silence.
package vad

import (
	"encoding/binary"
	"math"
)

// Classifier decides per frame whether speech is present. Implementations
// keep internal state between frames and are not safe for concurrent use.
type Classifier interface {
	IsSpeech(frame []byte) bool
	Reset()
}

// hysteresis ratios relative to the configured threshold. Entering speech
// requires the full threshold, leaving it a lower one, so normal sentence
// energy dips do not flap the classification.
const (
	exitRatio     = 0.5
	speechFrames  = 2
	silenceFrames = 4
)

// RMS is an energy classifier over little-endian s16 mono frames. The
// threshold is normalized RMS in [0,1]; the hysteresis counters debounce
// single-frame spikes and dips.
type RMS struct {
	enterThreshold float64
	exitThreshold  float64

	inSpeech     bool
	speechCount  int
	silenceCount int
}

// NewRMS builds a classifier from the configured threshold.
func NewRMS(threshold float64) *RMS {
	return &RMS{
		enterThreshold: threshold,
		exitThreshold:  threshold * exitRatio,
	}
}

// IsSpeech consumes one frame and returns the debounced speech state.
func (c *RMS) IsSpeech(frame []byte) bool {
	level := Level(frame)

	if c.inSpeech {
		if level < c.exitThreshold {
			c.silenceCount++
			c.speechCount = 0
			if c.silenceCount >= silenceFrames {
				c.inSpeech = false
				c.silenceCount = 0
			}
		} else {
			c.silenceCount = 0
		}
		return c.inSpeech
	}

	if level >= c.enterThreshold {
		c.speechCount++
		c.silenceCount = 0
		if c.speechCount >= speechFrames {
			c.inSpeech = true
			c.speechCount = 0
		}
	} else {
		c.speechCount = 0
	}
	return c.inSpeech
}

// Reset clears state between recordings so a previous utterance cannot
// leak its in-speech status into the next one.
func (c *RMS) Reset() {
	c.inSpeech = false
	c.speechCount = 0
	c.silenceCount = 0
}

// Level computes normalized RMS energy of an s16le frame in [0,1].
func Level(frame []byte) float64 {
	samples := len(frame) / 2
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < samples; i++ {
		s := float64(int16(binary.LittleEndian.Uint16(frame[i*2:]))) / 32768.0
		sum += s * s
	}
	return math.Sqrt(sum / float64(samples))
}
