package mocksttclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"ai-interviewer-backend/lib/audio"
)

func TestMockTranscribeCycles(t *testing.T) {
	provider := NewProvider()
	seen := make([]string, 0, len(cannedTranscripts)+1)
	for i := 0; i < len(cannedTranscripts)+1; i++ {
		transcript, err := provider.Transcribe(context.Background(), audio.Normalized{})
		require.Nil(t, err)
		require.NotEmpty(t, transcript.Text)
		require.True(t, transcript.Confidence > 0)
		seen = append(seen, transcript.Text)
	}
	// после прохода по всем заготовкам цикл начинается заново
	require.Equal(t, seen[0], seen[len(cannedTranscripts)])
}
