package interview

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"ai-interviewer-backend/lib/audio"
	"ai-interviewer-backend/lib/stt"
	aimodels "ai-interviewer-backend/models/api/ai"
	dbmodels "ai-interviewer-backend/models/db"
)

type fakeNormalizer struct {
	err error
}

func (f fakeNormalizer) Normalize(_ context.Context, payload []byte) (audio.Normalized, error) {
	if f.err != nil {
		return audio.Normalized{}, f.err
	}
	return audio.Normalized{
		Bytes:           []byte("wav-data"),
		SampleRate:      audio.TargetSampleRate,
		Channels:        1,
		DurationSeconds: 2.5,
		SourceFormat:    audio.FormatWav,
	}, nil
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f fakeTranscriber) Transcribe(_ context.Context, _ audio.Normalized) (stt.Transcript, error) {
	if f.err != nil {
		return stt.Transcript{}, f.err
	}
	return stt.Transcript{Text: f.text, Confidence: 0.9}, nil
}

type fakeGenerator struct {
	count int
	err   error
}

func (f fakeGenerator) GenerateQuestions(_ context.Context, rec dbmodels.Interview) ([]dbmodels.InterviewQuestion, error) {
	if f.err != nil {
		return nil, f.err
	}
	count := f.count
	if count == 0 {
		count = rec.QuestionCount
	}
	questions := make([]dbmodels.InterviewQuestion, 0, count)
	for i := 0; i < count; i++ {
		questions = append(questions, dbmodels.InterviewQuestion{ID: i, Text: "вопрос"})
	}
	return questions, nil
}

type fakeEvaluator struct {
	scores []float64
	errOn  map[int]bool
	calls  int
}

func (f *fakeEvaluator) EvaluateResponse(_ context.Context, q dbmodels.InterviewQuestion, _ string) (aimodels.ResponseEvaluation, error) {
	call := f.calls
	f.calls++
	if f.errOn[call] {
		return aimodels.ResponseEvaluation{}, errors.New("llm недоступен")
	}
	score := 5.0
	if call < len(f.scores) {
		score = f.scores[call]
	}
	return aimodels.ResponseEvaluation{
		Score:     score,
		Strengths: []string{"структурный ответ"},
		Gaps:      []string{"нет примеров"},
	}, nil
}

func newTestMachine(rec dbmodels.Interview, state *dbmodels.SessionState, evaluator *fakeEvaluator) *Machine {
	return NewMachine(rec, state,
		fakeNormalizer{},
		fakeTranscriber{text: "ответ кандидата"},
		fakeGenerator{},
		evaluator,
	)
}

func testInterview(questionCount int) dbmodels.Interview {
	rec := dbmodels.Interview{
		Position:      "Go разработчик",
		InterviewType: dbmodels.InterviewTypeTechnical,
		Difficulty:    "medium",
		QuestionCount: questionCount,
	}
	rec.ID = "test-interview-id"
	return rec
}

// прогон одного ответа целиком: прием, оценка, решение
func answerOnce(t *testing.T, m *Machine, sub Submission) {
	t.Helper()
	_, err := m.IngestResponse(context.Background(), sub)
	require.Nil(t, err)
	_, err = m.Evaluate(context.Background())
	require.Nil(t, err)
	require.Nil(t, m.DecideNext())
}

func TestMachineFullFlow(t *testing.T) {
	rec := testInterview(3)
	state := dbmodels.SessionState{Step: dbmodels.StepCreated}
	evaluator := &fakeEvaluator{scores: []float64{8, 6, 7}}
	m := newTestMachine(rec, &state, evaluator)

	require.Nil(t, m.Initialize(context.Background()))
	require.Equal(t, dbmodels.StepQuestionsReady, state.Step)
	require.Len(t, state.Questions, 3)

	for i := 0; i < 3; i++ {
		q, err := m.PresentQuestion()
		require.Nil(t, err)
		require.Equal(t, i, q.ID)
		require.Equal(t, dbmodels.StepAwaitingResponse, state.Step)

		answerOnce(t, m, Submission{Text: "текстовый ответ"})
		// количество сохраненных ответов всегда равно курсору
		require.Equal(t, state.Cursor, len(state.Responses))
	}

	require.Equal(t, dbmodels.StepCompleting, state.Step)
	report, err := m.Complete()
	require.Nil(t, err)
	require.Equal(t, dbmodels.StepCompleted, state.Step)
	require.NotNil(t, state.CompletedAt)
	require.Equal(t, 3, report.QuestionsAnswered)
	require.InDelta(t, 7.0, report.TotalScore, 0.001)
}

func TestMachineCompletedIsTerminal(t *testing.T) {
	rec := testInterview(1)
	state := dbmodels.SessionState{Step: dbmodels.StepCreated}
	m := newTestMachine(rec, &state, &fakeEvaluator{})

	require.Nil(t, m.Initialize(context.Background()))
	_, err := m.PresentQuestion()
	require.Nil(t, err)
	answerOnce(t, m, Submission{Text: "ответ"})
	_, err = m.Complete()
	require.Nil(t, err)

	t.Run(`любая операция после завершения - ErrSessionClosed`, func(t *testing.T) {
		_, err := m.PresentQuestion()
		require.ErrorIs(t, err, ErrSessionClosed)
		_, err = m.IngestResponse(context.Background(), Submission{Text: "еще ответ"})
		require.ErrorIs(t, err, ErrSessionClosed)
		_, err = m.Evaluate(context.Background())
		require.ErrorIs(t, err, ErrSessionClosed)
		require.ErrorIs(t, m.DecideNext(), ErrSessionClosed)
		_, err = m.Complete()
		require.ErrorIs(t, err, ErrSessionClosed)
	})

	t.Run(`отчет читается и после завершения`, func(t *testing.T) {
		report := m.Report()
		require.Equal(t, 1, report.QuestionsAnswered)
	})
}

func TestMachineCompleteOnlyAfterLastQuestion(t *testing.T) {
	rec := testInterview(2)
	state := dbmodels.SessionState{Step: dbmodels.StepCreated}
	m := newTestMachine(rec, &state, &fakeEvaluator{})

	require.Nil(t, m.Initialize(context.Background()))
	_, err := m.PresentQuestion()
	require.Nil(t, err)
	answerOnce(t, m, Submission{Text: "ответ"})

	// после первого из двух вопросов завершение недопустимо
	require.Equal(t, dbmodels.StepAwaitingResponse, state.Step)
	_, err = m.Complete()
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMachineScoreSkipsUnevaluated(t *testing.T) {
	rec := testInterview(3)
	state := dbmodels.SessionState{Step: dbmodels.StepCreated}
	// вторая оценка падает, ответ сохраняется без оценки
	evaluator := &fakeEvaluator{scores: []float64{8, 0, 6}, errOn: map[int]bool{1: true}}
	m := newTestMachine(rec, &state, evaluator)

	require.Nil(t, m.Initialize(context.Background()))
	for i := 0; i < 3; i++ {
		_, err := m.PresentQuestion()
		require.Nil(t, err)
		answerOnce(t, m, Submission{Text: "ответ"})
	}

	require.Len(t, state.Responses, 3)
	require.False(t, state.Responses[1].Evaluated)
	require.Equal(t, "ответ", state.Responses[1].Transcript)
	// среднее только по оцененным: (8+6)/2
	require.InDelta(t, 7.0, state.TotalScore, 0.001)
}

func TestMachineShortQuestionList(t *testing.T) {
	rec := testInterview(5)
	state := dbmodels.SessionState{Step: dbmodels.StepCreated}
	m := NewMachine(rec, &state,
		fakeNormalizer{},
		fakeTranscriber{text: "ответ"},
		fakeGenerator{count: 3},
		&fakeEvaluator{},
	)

	require.Nil(t, m.Initialize(context.Background()))
	require.Len(t, state.Questions, 3)

	for i := 0; i < 3; i++ {
		_, err := m.PresentQuestion()
		require.Nil(t, err)
		answerOnce(t, m, Submission{Text: "ответ"})
	}

	// интервью завершается после третьего вопроса, а не пятого
	require.Equal(t, dbmodels.StepCompleting, state.Step)
	_, err := m.PresentQuestion()
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMachineIngestFailures(t *testing.T) {
	t.Run(`пустой ответ`, func(t *testing.T) {
		rec := testInterview(1)
		state := dbmodels.SessionState{Step: dbmodels.StepCreated}
		m := newTestMachine(rec, &state, &fakeEvaluator{})
		require.Nil(t, m.Initialize(context.Background()))
		_, err := m.PresentQuestion()
		require.Nil(t, err)

		_, err = m.IngestResponse(context.Background(), Submission{})
		require.ErrorIs(t, err, ErrNoUsableInput)
		require.Equal(t, dbmodels.StepAwaitingResponse, state.Step)
	})

	t.Run(`непригодное аудио без текста, затем повторная отправка`, func(t *testing.T) {
		rec := testInterview(1)
		state := dbmodels.SessionState{Step: dbmodels.StepCreated}
		badAudio := &UnsupportedNormalizer{}
		m := NewMachine(rec, &state, badAudio, fakeTranscriber{text: "ответ"}, fakeGenerator{}, &fakeEvaluator{})
		require.Nil(t, m.Initialize(context.Background()))
		_, err := m.PresentQuestion()
		require.Nil(t, err)

		_, err = m.IngestResponse(context.Background(), Submission{Audio: []byte("не-аудио-мусор")})
		require.ErrorIs(t, err, ErrNoUsableInput)
		require.Equal(t, dbmodels.StepAwaitingResponse, state.Step)
		require.Equal(t, 1, state.AudioMetrics.NormalizeFailed)

		// сессия осталась в awaiting_response, текстовый повтор проходит
		badAudio.ok = true
		answerOnce(t, m, Submission{Text: "текстовый повтор"})
		require.Len(t, state.Responses, 1)
	})

	t.Run(`непригодное аудио при наличии текста - ошибка для повторной отправки`, func(t *testing.T) {
		rec := testInterview(1)
		state := dbmodels.SessionState{Step: dbmodels.StepCreated}
		m := NewMachine(rec, &state,
			fakeNormalizer{err: audio.ErrUnsupportedFormat},
			fakeTranscriber{text: "ответ"},
			fakeGenerator{},
			&fakeEvaluator{},
		)
		require.Nil(t, m.Initialize(context.Background()))
		_, err := m.PresentQuestion()
		require.Nil(t, err)

		_, err = m.IngestResponse(context.Background(), Submission{Text: "текст", Audio: []byte("мусор")})
		require.ErrorIs(t, err, audio.ErrUnsupportedFormat)
		require.Equal(t, dbmodels.StepAwaitingResponse, state.Step)
	})

	t.Run(`сбой распознавания с текстом - откат на текст`, func(t *testing.T) {
		rec := testInterview(1)
		state := dbmodels.SessionState{Step: dbmodels.StepCreated}
		m := NewMachine(rec, &state,
			fakeNormalizer{},
			fakeTranscriber{err: stt.ErrTranscriptionFailed},
			fakeGenerator{},
			&fakeEvaluator{},
		)
		require.Nil(t, m.Initialize(context.Background()))
		_, err := m.PresentQuestion()
		require.Nil(t, err)

		result, err := m.IngestResponse(context.Background(), Submission{Text: "текстовый ответ", Audio: []byte("аудио")})
		require.Nil(t, err)
		require.Equal(t, "текстовый ответ", result.Transcript)
		require.Equal(t, dbmodels.StepEvaluating, state.Step)
	})

	t.Run(`сбой распознавания без текста`, func(t *testing.T) {
		rec := testInterview(1)
		state := dbmodels.SessionState{Step: dbmodels.StepCreated}
		m := NewMachine(rec, &state,
			fakeNormalizer{},
			fakeTranscriber{err: stt.ErrTranscriptionFailed},
			fakeGenerator{},
			&fakeEvaluator{},
		)
		require.Nil(t, m.Initialize(context.Background()))
		_, err := m.PresentQuestion()
		require.Nil(t, err)

		_, err = m.IngestResponse(context.Background(), Submission{Audio: []byte("аудио")})
		require.ErrorIs(t, err, ErrNoUsableInput)
	})
}

// UnsupportedNormalizer падает до первого успеха
type UnsupportedNormalizer struct {
	ok bool
}

func (f *UnsupportedNormalizer) Normalize(ctx context.Context, payload []byte) (audio.Normalized, error) {
	if !f.ok {
		return audio.Normalized{}, &audio.UnsupportedFormatError{Format: audio.FormatUnknown, ByteLen: len(payload)}
	}
	return fakeNormalizer{}.Normalize(ctx, payload)
}

func TestMachineInvalidTransitions(t *testing.T) {
	rec := testInterview(2)
	state := dbmodels.SessionState{Step: dbmodels.StepCreated}
	m := newTestMachine(rec, &state, &fakeEvaluator{})

	// до инициализации вопросов нет
	_, err := m.PresentQuestion()
	require.ErrorIs(t, err, ErrInvalidTransition)

	require.Nil(t, m.Initialize(context.Background()))
	// повторная инициализация недопустима
	require.ErrorIs(t, m.Initialize(context.Background()), ErrInvalidTransition)

	// оценивать нечего, ответ еще не принят
	_, err = m.Evaluate(context.Background())
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.ErrorIs(t, m.DecideNext(), ErrInvalidTransition)
}

func TestBuildReport(t *testing.T) {
	rec := testInterview(2)
	state := dbmodels.SessionState{Step: dbmodels.StepCreated}
	m := newTestMachine(rec, &state, &fakeEvaluator{scores: []float64{9, 5}})

	require.Nil(t, m.Initialize(context.Background()))
	for i := 0; i < 2; i++ {
		_, err := m.PresentQuestion()
		require.Nil(t, err)
		answerOnce(t, m, Submission{Text: "ответ"})
	}
	report, err := m.Complete()
	require.Nil(t, err)

	require.Equal(t, rec.Position, report.Position)
	require.Equal(t, 2, report.QuestionsTotal)
	require.Len(t, report.Breakdown, 2)
	require.Equal(t, "вопрос", report.Breakdown[0].Question)
	require.InDelta(t, 9.0, report.Breakdown[0].Score, 0.001)
	require.True(t, report.DurationSeconds >= 0)
}
