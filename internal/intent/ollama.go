package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/voxkit/voxd/internal/transcript"
)

// Reasoner resolves one transcript to an intent. Implementations own the
// conversation context across calls.
type Reasoner interface {
	Resolve(ctx context.Context, text string) (Intent, error)
}

const defaultSystemPrompt = `You are a voice assistant. Reply with a single JSON object:
{"intent": "play_media" | "pause_media" | "resume_media" | "provide_info" | "unknown",
 "filter": "<search term for media intents, else empty>",
 "feedback": "<one short sentence to speak back>"}
Reply with JSON only, no prose.`

// Options configures the Ollama reasoner.
type Options struct {
	Endpoint         string
	Model            string
	MaxTokens        int
	Temperature      float64
	SystemPromptPath string
	Timeout          time.Duration
	ContextTimeout   time.Duration
}

// OllamaReasoner talks to an Ollama server's /api/generate endpoint and
// keeps a rolling conversation context. The context is cleared when the
// user asks for a reset or when it outlives the configured timeout.
type OllamaReasoner struct {
	opts         Options
	systemPrompt string
	client       *http.Client
	logger       *slog.Logger

	history string
	started time.Time
	now     func() time.Time
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaReasoner loads the system prompt and builds the client. A
// missing prompt file falls back to the built-in prompt with a warning.
func NewOllamaReasoner(opts Options, logger *slog.Logger) *OllamaReasoner {
	systemPrompt := defaultSystemPrompt
	if opts.SystemPromptPath != "" {
		data, err := os.ReadFile(opts.SystemPromptPath)
		if err != nil {
			if logger != nil {
				logger.Warn("system prompt not readable, using built-in", "path", opts.SystemPromptPath, "error", err)
			}
		} else {
			systemPrompt = string(data)
		}
	}

	return &OllamaReasoner{
		opts:         opts,
		systemPrompt: systemPrompt,
		client:       &http.Client{Timeout: opts.Timeout},
		logger:       logger,
		now:          time.Now,
	}
}

// Resolve runs one reasoning round trip. A flush phrase in the transcript
// discards the context before the request; the exchange is appended to the
// context afterwards so follow-up commands can refer back to it.
func (r *OllamaReasoner) Resolve(ctx context.Context, text string) (Intent, error) {
	if transcript.IsFlush(text) {
		if r.logger != nil {
			r.logger.Info("conversation context flushed by request")
		}
		r.ResetContext()
	}
	if r.history == "" {
		r.started = r.now()
	}

	resolved, err := r.generate(ctx, text)
	if err != nil {
		return Intent{}, err
	}

	r.appendExchange(text, resolved)
	r.expireContext()
	return resolved, nil
}

// ResetContext discards the conversation history.
func (r *OllamaReasoner) ResetContext() {
	r.history = ""
	r.started = time.Time{}
}

func (r *OllamaReasoner) generate(ctx context.Context, text string) (Intent, error) {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	prompt := "User: " + text
	if r.history != "" {
		prompt = "Previous context:\n" + r.history + "\n\nUser: " + text
	}

	payload := generateRequest{
		Model:  r.opts.Model,
		Prompt: prompt,
		System: r.systemPrompt,
		Stream: false,
		Options: generateOptions{
			Temperature: r.opts.Temperature,
			NumPredict:  r.opts.MaxTokens,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Intent{}, &ReasoningError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.opts.Endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return Intent{}, &ReasoningError{Err: fmt.Errorf("create ollama request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return Intent{}, &ReasoningError{Err: fmt.Errorf("ollama request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return Intent{}, &ReasoningError{Err: fmt.Errorf("ollama returned status %s", resp.Status)}
	}

	var generated generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&generated); err != nil {
		return Intent{}, &ReasoningError{Err: fmt.Errorf("decode ollama response: %w", err)}
	}

	resolved, err := Parse(generated.Response)
	if err != nil {
		return Intent{}, &ReasoningError{Err: err}
	}

	if r.logger != nil {
		r.logger.Info("intent resolved",
			"intent", string(resolved.Kind),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return resolved, nil
}

func (r *OllamaReasoner) appendExchange(text string, resolved Intent) {
	encoded, err := json.Marshal(resolved)
	if err != nil {
		return
	}
	exchange := "User: " + text + "\nAssistant: " + string(encoded)
	if r.history == "" {
		r.history = exchange
		return
	}
	r.history += "\n" + exchange
}

func (r *OllamaReasoner) expireContext() {
	if r.opts.ContextTimeout <= 0 || r.started.IsZero() {
		return
	}
	if r.now().Sub(r.started) > r.opts.ContextTimeout {
		if r.logger != nil {
			r.logger.Info("conversation context expired", "timeout", r.opts.ContextTimeout.String())
		}
		r.ResetContext()
	}
}
