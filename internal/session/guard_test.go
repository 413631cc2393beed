package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voxkit/voxd/internal/audio"
)

func TestGuardDrainReadsExpectedAudioTime(t *testing.T) {
	source := &fakeSource{}
	g := NewGuard(500*time.Millisecond, 0, nil)

	require.NoError(t, g.Drain(context.Background(), source))
	// 100ms frames, 500ms drain
	require.Equal(t, 5, source.readCount())
}

func TestGuardDrainZeroDurationIsNoop(t *testing.T) {
	source := &fakeSource{}
	g := NewGuard(0, 0, nil)

	require.NoError(t, g.Drain(context.Background(), source))
	require.Zero(t, source.readCount())
}

func TestGuardDrainPropagatesDeviceError(t *testing.T) {
	source := &fakeSource{failRead: 2}
	g := NewGuard(time.Second, 0, nil)

	err := g.Drain(context.Background(), source)
	require.Error(t, err)
	require.True(t, audio.IsDeviceError(err))
}

func TestGuardRearmDelayWaits(t *testing.T) {
	g := NewGuard(0, 30*time.Millisecond, nil)

	start := time.Now()
	require.NoError(t, g.RearmDelay(context.Background()))
	require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestGuardRearmDelayCancellable(t *testing.T) {
	g := NewGuard(0, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := g.RearmDelay(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
