package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Audio: AudioConfig{
			Input:      "default",
			Fallback:   "default",
			SampleRate: 16000,
			FrameSize:  1024,
		},
		Wake: WakeConfig{
			Model:      "hey_mycroft",
			Threshold:  0.7,
			WindowMS:   1000,
			CooldownMS: 3000,
			Command:    "voxd-wake-scorer",
			TimeoutMS:  2000,
		},
		VAD: VADConfig{
			Threshold: 0.5,
		},
		Record: RecordConfig{
			SilenceTimeoutMS: 1500,
			MaxDurationMS:    30000,
			NoSpeechGraceMS:  5000,
		},
		Guard: GuardConfig{
			StreamDrainMS: 500,
			RearmDelayMS:  5000,
		},
		STT: STTConfig{
			URL:       "http://127.0.0.1:8080",
			TimeoutMS: 30000,
		},
		LLM: LLMConfig{
			Endpoint:            "http://127.0.0.1:11434",
			Model:               "llama3.2:latest",
			MaxTokens:           256,
			Temperature:         0.2,
			TimeoutMS:           60000,
			ContextTimeoutHours: 7,
		},
		TTS: TTSConfig{
			Command:    "piper --output-raw",
			SampleRate: 22050,
			TimeoutMS:  20000,
		},
		Actions: ActionsConfig{
			Enabled:        true,
			BrowserCommand: "xdg-open",
			PlayerCommand:  "playerctl",
			MediaSearchURL: "https://www.youtube.com/results?search_query={query}",
		},
		Cue: CueConfig{
			Enabled: true,
		},
		Debug: DebugConfig{},
	}
}
