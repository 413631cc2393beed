// Package stt turns recorded audio into text via a whisper-compatible server.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/voxkit/voxd/internal/audio"
	"github.com/voxkit/voxd/internal/transcript"
)

// Transcriber converts a complete recording to text. Implementations must
// return the normalized transcript, "" when nothing was recognized.
type Transcriber interface {
	Transcribe(ctx context.Context, recording audio.Buffer) (string, error)
}

// TranscriptionError marks a failed STT round trip. The session recovers
// from it by returning to the listening phase.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string { return fmt.Sprintf("transcription failed: %v", e.Err) }
func (e *TranscriptionError) Unwrap() error { return e.Err }

// WhisperClient posts recordings as multipart WAV to a whisper.cpp server's
// /inference endpoint and reads the transcript back as JSON.
type WhisperClient struct {
	url     string
	timeout time.Duration
	client  *http.Client
	logger  *slog.Logger
}

type whisperResponse struct {
	Text string `json:"text"`
}

func NewWhisperClient(url string, timeout time.Duration, logger *slog.Logger) *WhisperClient {
	return &WhisperClient{
		url:     url,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Transcribe sends one recording and returns the normalized transcript.
func (c *WhisperClient) Transcribe(ctx context.Context, recording audio.Buffer) (string, error) {
	start := time.Now()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, contentType, err := buildMultipartWAV(recording)
	if err != nil {
		return "", &TranscriptionError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/inference", body)
	if err != nil {
		return "", &TranscriptionError{Err: fmt.Errorf("create whisper request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &TranscriptionError{Err: fmt.Errorf("whisper request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &TranscriptionError{Err: fmt.Errorf("whisper status %d: %s", resp.StatusCode, string(respBody))}
	}

	var result whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &TranscriptionError{Err: fmt.Errorf("decode whisper response: %w", err)}
	}

	text := transcript.Normalize(result.Text)
	if c.logger != nil {
		c.logger.Info("transcription complete",
			"duration_ms", time.Since(start).Milliseconds(),
			"audio_ms", recording.Duration().Milliseconds(),
			"chars", len(text),
		)
	}
	return text, nil
}

func buildMultipartWAV(recording audio.Buffer) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(recording.WAV()); err != nil {
		return nil, "", fmt.Errorf("write wav data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return &body, writer.FormDataContentType(), nil
}
