package audio

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Buffer is an immutable, complete PCM segment with its format attached.
// It is produced once per session phase and never mutated afterwards.
type Buffer struct {
	pcm        []byte
	sampleRate int
	channels   int
}

// NewBuffer snapshots pcm into an immutable buffer.
func NewBuffer(pcm []byte, sampleRate, channels int) Buffer {
	copied := make([]byte, len(pcm))
	copy(copied, pcm)
	return Buffer{pcm: copied, sampleRate: sampleRate, channels: channels}
}

// PCM returns a copy of the raw little-endian s16 samples.
func (b Buffer) PCM() []byte {
	out := make([]byte, len(b.pcm))
	copy(out, b.pcm)
	return out
}

func (b Buffer) SampleRate() int { return b.sampleRate }
func (b Buffer) Channels() int   { return b.channels }
func (b Buffer) Len() int        { return len(b.pcm) }

// Empty reports whether the buffer holds no samples.
func (b Buffer) Empty() bool {
	return len(b.pcm) == 0
}

// Duration derives playback length from sample count and format.
func (b Buffer) Duration() time.Duration {
	if b.sampleRate <= 0 || b.channels <= 0 {
		return 0
	}
	samples := len(b.pcm) / 2 / b.channels
	return time.Duration(samples) * time.Second / time.Duration(b.sampleRate)
}

// WAV encodes the buffer as an in-memory PCM WAV payload.
func (b Buffer) WAV() []byte {
	channels := b.channels
	if channels <= 0 {
		channels = 1
	}
	const bitsPerSample = 16
	byteRate := b.sampleRate * channels * (bitsPerSample / 8)
	blockAlign := channels * (bitsPerSample / 8)

	out := make([]byte, 44+len(b.pcm))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(b.pcm)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(b.sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], bitsPerSample)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(b.pcm)))
	copy(out[44:], b.pcm)

	return out
}

// WriteWAV writes the buffer to a WAV file, used for debug audio dumps.
func (b Buffer) WriteWAV(file *os.File) error {
	if len(b.pcm)%2 != 0 {
		return fmt.Errorf("pcm payload not aligned")
	}

	channels := b.channels
	if channels <= 0 {
		channels = 1
	}

	intBuf := &goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: channels, SampleRate: b.sampleRate},
		Data:   make([]int, len(b.pcm)/2),
	}
	for i := range intBuf.Data {
		intBuf.Data[i] = int(int16(binary.LittleEndian.Uint16(b.pcm[i*2:])))
	}

	enc := wav.NewEncoder(file, b.sampleRate, 16, channels, 1)
	if err := enc.Write(intBuf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}
