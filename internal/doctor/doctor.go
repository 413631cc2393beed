// Package doctor runs runtime readiness diagnostics for config, audio, and backends.
package doctor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/voxkit/voxd/internal/audio"
	"github.com/voxkit/voxd/internal/config"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	checks = append(checks, checkAudioSelection(cfg.Config))
	checks = append(checks, checkCommand(cfg.Config.Wake.Command, "wake.command"))
	checks = append(checks, checkCommand(cfg.Config.TTS.Command, "tts.command"))
	checks = append(checks, checkHTTP("stt.server", cfg.Config.STT.URL))
	checks = append(checks, checkHTTP("llm.endpoint", cfg.Config.LLM.Endpoint))

	if cfg.Config.Actions.Enabled {
		checks = append(checks, checkCommand(cfg.Config.Actions.BrowserCommand, "actions.browser_command"))
		checks = append(checks, checkCommand(cfg.Config.Actions.PlayerCommand, "actions.player_command"))
	}

	return Report{Checks: checks}
}

// checkCommand validates that a configured command line names a runnable binary.
func checkCommand(command, name string) Check {
	argv, err := shellwords.Parse(command)
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("unparsable command: %v", err)}
	}
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	selection, err := audio.SelectDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkHTTP probes a backend base URL and passes on any HTTP response.
func checkHTTP(name, base string) Check {
	base = strings.TrimSpace(base)
	if base == "" {
		return Check{Name: name, Pass: false, Message: "URL is empty"}
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	url := strings.TrimRight(base, "/") + "/"
	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 256))

	return Check{Name: name, Pass: true, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url)}
}
