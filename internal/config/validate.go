package config

import (
	"fmt"
	"strings"
)

// Validate rejects configurations the session core cannot run with.
func Validate(cfg Config) error {
	if cfg.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.FrameSize <= 0 || cfg.Audio.FrameSize%2 != 0 {
		return fmt.Errorf("audio.frame_size must be a positive even byte count, got %d", cfg.Audio.FrameSize)
	}

	if cfg.Wake.Threshold < 0 || cfg.Wake.Threshold > 1 {
		return fmt.Errorf("wake.threshold must be in [0,1], got %v", cfg.Wake.Threshold)
	}
	if cfg.Wake.WindowMS <= 0 {
		return fmt.Errorf("wake.window_ms must be positive, got %d", cfg.Wake.WindowMS)
	}
	if cfg.Wake.CooldownMS < 0 {
		return fmt.Errorf("wake.cooldown_ms must not be negative, got %d", cfg.Wake.CooldownMS)
	}
	if strings.TrimSpace(cfg.Wake.Command) == "" {
		return fmt.Errorf("wake.command must not be empty")
	}

	if cfg.VAD.Threshold < 0 || cfg.VAD.Threshold > 1 {
		return fmt.Errorf("vad.threshold must be in [0,1], got %v", cfg.VAD.Threshold)
	}

	if cfg.Record.SilenceTimeoutMS <= 0 {
		return fmt.Errorf("record.silence_timeout_ms must be positive, got %d", cfg.Record.SilenceTimeoutMS)
	}
	if cfg.Record.MaxDurationMS <= 0 {
		return fmt.Errorf("record.max_duration_ms must be positive, got %d", cfg.Record.MaxDurationMS)
	}
	if cfg.Record.NoSpeechGraceMS <= 0 {
		return fmt.Errorf("record.no_speech_grace_ms must be positive, got %d", cfg.Record.NoSpeechGraceMS)
	}

	if cfg.Guard.StreamDrainMS < 0 {
		return fmt.Errorf("guard.stream_drain_ms must not be negative, got %d", cfg.Guard.StreamDrainMS)
	}
	if cfg.Guard.RearmDelayMS < 0 {
		return fmt.Errorf("guard.rearm_delay_ms must not be negative, got %d", cfg.Guard.RearmDelayMS)
	}

	if strings.TrimSpace(cfg.STT.URL) == "" {
		return fmt.Errorf("stt.url must not be empty")
	}
	if strings.TrimSpace(cfg.LLM.Endpoint) == "" {
		return fmt.Errorf("llm.endpoint must not be empty")
	}
	if strings.TrimSpace(cfg.LLM.Model) == "" {
		return fmt.Errorf("llm.model must not be empty")
	}
	if strings.TrimSpace(cfg.TTS.Command) == "" {
		return fmt.Errorf("tts.command must not be empty")
	}
	if cfg.TTS.SampleRate <= 0 {
		return fmt.Errorf("tts.sample_rate must be positive, got %d", cfg.TTS.SampleRate)
	}

	if cfg.Actions.Enabled {
		if strings.TrimSpace(cfg.Actions.BrowserCommand) == "" {
			return fmt.Errorf("actions.browser_command must not be empty when actions are enabled")
		}
		if strings.TrimSpace(cfg.Actions.PlayerCommand) == "" {
			return fmt.Errorf("actions.player_command must not be empty when actions are enabled")
		}
	}

	return nil
}
