package stt

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voxkit/voxd/internal/audio"
)

func testRecording() audio.Buffer {
	return audio.NewBuffer(make([]byte, 3200), 16000, 1)
}

func TestWhisperClientTranscribes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/inference", r.URL.Path)

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		require.Equal(t, "multipart/form-data", mediaType)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "audio.wav", header.Filename)

		payload, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, "RIFF", string(payload[:4]))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"text":"  play some jazz \n"}`)
	}))
	defer server.Close()

	client := NewWhisperClient(server.URL, time.Second, nil)
	text, err := client.Transcribe(context.Background(), testRecording())
	require.NoError(t, err)
	require.Equal(t, "play some jazz", text)
}

func TestWhisperClientNormalizesAnnotationOnlyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"text":"[BLANK_AUDIO]"}`)
	}))
	defer server.Close()

	client := NewWhisperClient(server.URL, time.Second, nil)
	text, err := client.Transcribe(context.Background(), testRecording())
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestWhisperClientServerErrorIsTranscriptionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewWhisperClient(server.URL, time.Second, nil)
	_, err := client.Transcribe(context.Background(), testRecording())

	var terr *TranscriptionError
	require.ErrorAs(t, err, &terr)
	require.Contains(t, err.Error(), "status 500")
	require.Contains(t, err.Error(), "model not loaded")
}

func TestWhisperClientUnreachableServer(t *testing.T) {
	client := NewWhisperClient("http://127.0.0.1:1", 200*time.Millisecond, nil)
	_, err := client.Transcribe(context.Background(), testRecording())

	var terr *TranscriptionError
	require.ErrorAs(t, err, &terr)
}

func TestWhisperClientMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "<html>not json</html>")
	}))
	defer server.Close()

	client := NewWhisperClient(server.URL, time.Second, nil)
	_, err := client.Transcribe(context.Background(), testRecording())

	var terr *TranscriptionError
	require.ErrorAs(t, err, &terr)
	require.Contains(t, err.Error(), "decode whisper response")
}

func TestWhisperClientTimesOut(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		server.Close()
	}()

	client := NewWhisperClient(server.URL, 100*time.Millisecond, nil)
	_, err := client.Transcribe(context.Background(), testRecording())

	var terr *TranscriptionError
	require.ErrorAs(t, err, &terr)
}

func TestTranscriptionErrorUnwraps(t *testing.T) {
	base := errors.New("boom")
	err := &TranscriptionError{Err: base}
	require.ErrorIs(t, err, base)
	require.True(t, strings.HasPrefix(err.Error(), "transcription failed"))
}
