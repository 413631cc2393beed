package wake

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voxkit/voxd/internal/audio"
)

func testWindow() audio.Buffer {
	return audio.NewBuffer(make([]byte, 320), 8000, 1)
}

func TestExecScorerParsesScore(t *testing.T) {
	scorer, err := NewExecScorer(`sh -c 'cat > /dev/null; printf "{\"score\": 0.92}"'`, "", time.Second)
	require.NoError(t, err)

	score, err := scorer.Score(context.Background(), testWindow())
	require.NoError(t, err)
	require.InDelta(t, 0.92, score, 0.0001)
}

func TestExecScorerAppendsModelArgument(t *testing.T) {
	scorer, err := NewExecScorer("echo", "hey_mycroft", time.Second)
	require.NoError(t, err)
	require.Equal(t, []string{"echo", "hey_mycroft"}, scorer.argv)
}

func TestExecScorerRejectsEmptyCommand(t *testing.T) {
	_, err := NewExecScorer("   ", "", time.Second)
	require.Error(t, err)
}

func TestExecScorerCommandFailureIncludesStderr(t *testing.T) {
	scorer, err := NewExecScorer(`sh -c 'echo "model not found" >&2; exit 3'`, "", time.Second)
	require.NoError(t, err)

	_, err = scorer.Score(context.Background(), testWindow())
	require.Error(t, err)
	require.Contains(t, err.Error(), "model not found")
}

func TestExecScorerRejectsMalformedOutput(t *testing.T) {
	scorer, err := NewExecScorer(`sh -c 'cat > /dev/null; echo not-json'`, "", time.Second)
	require.NoError(t, err)

	_, err = scorer.Score(context.Background(), testWindow())
	require.Error(t, err)
}

func TestExecScorerRejectsOutOfRangeScore(t *testing.T) {
	scorer, err := NewExecScorer(`sh -c 'cat > /dev/null; printf "{\"score\": 1.7}"'`, "", time.Second)
	require.NoError(t, err)

	_, err = scorer.Score(context.Background(), testWindow())
	require.Error(t, err)
	require.Contains(t, err.Error(), "out of range")
}

func TestExecScorerTimesOut(t *testing.T) {
	scorer, err := NewExecScorer("sleep 5", "", 50*time.Millisecond)
	require.NoError(t, err)

	start := time.Now()
	_, err = scorer.Score(context.Background(), testWindow())
	require.Error(t, err)
	require.Less(t, time.Since(start), 2*time.Second)
}
