package dbmodels

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionStateValueScan(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	state := SessionState{
		Step:   StepAwaitingResponse,
		Cursor: 1,
		Questions: []InterviewQuestion{
			{ID: 0, Text: "Расскажите о себе", Category: "intro"},
			{ID: 1, Text: "Что такое goroutine?", Category: "concurrency", Hint: "планировщик"},
		},
		Responses: []ResponseRecord{
			{
				QuestionID: 0,
				Transcript: "ответ кандидата",
				Audio:      &AudioMeta{SourceFormat: "webm", DurationSeconds: 3.2, ByteSize: 1024},
				AnsweredAt: now,
				Evaluated:  true,
				Score:      8,
				Strengths:  []string{"уверенная подача"},
			},
		},
		TotalScore:   8,
		StartedAt:    now,
		AudioMetrics: AudioMetrics{NormalizeOk: 1},
	}

	value, err := state.Value()
	require.Nil(t, err)

	var restored SessionState
	require.Nil(t, restored.Scan([]byte(value.(string))))

	require.Equal(t, state.Step, restored.Step)
	require.Equal(t, state.Cursor, restored.Cursor)
	require.Equal(t, state.Questions, restored.Questions)
	require.Len(t, restored.Responses, 1)
	require.Equal(t, state.Responses[0].Transcript, restored.Responses[0].Transcript)
	require.Equal(t, state.Responses[0].Audio.ByteSize, restored.Responses[0].Audio.ByteSize)
	require.Equal(t, state.AudioMetrics, restored.AudioMetrics)
}

func TestSessionStateSanitizesInvalidUTF8(t *testing.T) {
	broken := string([]byte{0xFF, 0xFE, 0x41})
	state := SessionState{
		Step:      StepEvaluating,
		Questions: []InterviewQuestion{{ID: 0, Text: "вопрос"}},
		Responses: []ResponseRecord{
			{QuestionID: 0, Transcript: broken, Strengths: []string{broken}},
		},
		Pending: &PendingResponse{QuestionID: 1, Transcript: broken},
	}

	value, err := state.Value()
	require.Nil(t, err)

	var restored SessionState
	require.Nil(t, restored.Scan([]byte(value.(string))))

	require.Equal(t, "<encoded_string:3_chars>", restored.Responses[0].Transcript)
	require.Equal(t, "<encoded_string:3_chars>", restored.Responses[0].Strengths[0])
	require.Equal(t, "<encoded_string:3_chars>", restored.Pending.Transcript)
	// исходное состояние не мутирует
	require.Equal(t, broken, state.Responses[0].Transcript)
}
