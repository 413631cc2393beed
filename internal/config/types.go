// Package config resolves, parses, validates, and defaults voxd configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by voxd.
// It is loaded once at process start and read-only afterwards.
type Config struct {
	Audio   AudioConfig   `yaml:"audio"`
	Wake    WakeConfig    `yaml:"wake"`
	VAD     VADConfig     `yaml:"vad"`
	Record  RecordConfig  `yaml:"record"`
	Guard   GuardConfig   `yaml:"guard"`
	STT     STTConfig     `yaml:"stt"`
	LLM     LLMConfig     `yaml:"llm"`
	TTS     TTSConfig     `yaml:"tts"`
	Actions ActionsConfig `yaml:"actions"`
	Cue     CueConfig     `yaml:"cue"`
	Debug   DebugConfig   `yaml:"debug"`
}

// AudioConfig controls capture device selection and stream geometry.
type AudioConfig struct {
	Input      string `yaml:"input"`
	Fallback   string `yaml:"fallback"`
	SampleRate int    `yaml:"sample_rate"`
	FrameSize  int    `yaml:"frame_size"` // bytes per frame, s16le mono
}

// WakeConfig controls wake-phrase scoring and acceptance.
type WakeConfig struct {
	Model      string  `yaml:"model"`
	Threshold  float64 `yaml:"threshold"`
	WindowMS   int     `yaml:"window_ms"`
	CooldownMS int     `yaml:"cooldown_ms"`
	Command    string  `yaml:"command"` // external scorer invocation
	TimeoutMS  int     `yaml:"timeout_ms"`
}

// VADConfig controls per-frame speech classification.
type VADConfig struct {
	Threshold float64 `yaml:"threshold"`
}

// RecordConfig controls command capture termination.
type RecordConfig struct {
	SilenceTimeoutMS int `yaml:"silence_timeout_ms"`
	MaxDurationMS    int `yaml:"max_duration_ms"`
	NoSpeechGraceMS  int `yaml:"no_speech_grace_ms"`
}

// GuardConfig controls the anti-feedback drain and rearm delay.
type GuardConfig struct {
	StreamDrainMS int `yaml:"stream_drain_ms"`
	RearmDelayMS  int `yaml:"rearm_delay_ms"`
}

// STTConfig controls the whisper-server transcription client.
type STTConfig struct {
	URL       string `yaml:"url"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

// LLMConfig controls the intent reasoner backend.
type LLMConfig struct {
	Endpoint            string  `yaml:"endpoint"`
	Model               string  `yaml:"model"`
	MaxTokens           int     `yaml:"max_tokens"`
	Temperature         float64 `yaml:"temperature"`
	SystemPromptPath    string  `yaml:"system_prompt_path"`
	TimeoutMS           int     `yaml:"timeout_ms"`
	ContextTimeoutHours int     `yaml:"context_timeout_hours"`
}

// TTSConfig controls speech synthesis and playback.
type TTSConfig struct {
	Command    string `yaml:"command"`
	Voice      string `yaml:"voice"`
	SampleRate int    `yaml:"sample_rate"`
	TimeoutMS  int    `yaml:"timeout_ms"`
}

// ActionsConfig controls downstream intent execution.
type ActionsConfig struct {
	Enabled        bool   `yaml:"enabled"`
	BrowserCommand string `yaml:"browser_command"`
	PlayerCommand  string `yaml:"player_command"`
	MediaSearchURL string `yaml:"media_search_url"`
}

// CueConfig controls the wake acknowledgment chime.
type CueConfig struct {
	Enabled   bool   `yaml:"enabled"`
	SoundFile string `yaml:"sound_file"`
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	AudioDump bool `yaml:"audio_dump"`
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Message string
}

func (w WakeConfig) Window() time.Duration   { return time.Duration(w.WindowMS) * time.Millisecond }
func (w WakeConfig) Cooldown() time.Duration { return time.Duration(w.CooldownMS) * time.Millisecond }
func (w WakeConfig) Timeout() time.Duration  { return time.Duration(w.TimeoutMS) * time.Millisecond }

func (r RecordConfig) SilenceTimeout() time.Duration {
	return time.Duration(r.SilenceTimeoutMS) * time.Millisecond
}

func (r RecordConfig) MaxDuration() time.Duration {
	return time.Duration(r.MaxDurationMS) * time.Millisecond
}

func (r RecordConfig) NoSpeechGrace() time.Duration {
	return time.Duration(r.NoSpeechGraceMS) * time.Millisecond
}

func (g GuardConfig) StreamDrain() time.Duration {
	return time.Duration(g.StreamDrainMS) * time.Millisecond
}

func (g GuardConfig) RearmDelay() time.Duration {
	return time.Duration(g.RearmDelayMS) * time.Millisecond
}

func (s STTConfig) Timeout() time.Duration { return time.Duration(s.TimeoutMS) * time.Millisecond }
func (l LLMConfig) Timeout() time.Duration { return time.Duration(l.TimeoutMS) * time.Millisecond }
func (t TTSConfig) Timeout() time.Duration { return time.Duration(t.TimeoutMS) * time.Millisecond }

func (l LLMConfig) ContextTimeout() time.Duration {
	return time.Duration(l.ContextTimeoutHours) * time.Hour
}
