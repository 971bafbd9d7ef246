package interview

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"ai-interviewer-backend/lib/audio"
	gpthandler "ai-interviewer-backend/lib/gpt"
	"ai-interviewer-backend/lib/stt"
	interviewapimodels "ai-interviewer-backend/models/api/interview"
	dbmodels "ai-interviewer-backend/models/db"
)

type fakeAI struct {
	fakeGenerator
	*fakeEvaluator
}

type orderedSessionStore struct {
	session dbmodels.InterviewSession
	saveErr error
	callLog *[]string
}

func (f *orderedSessionStore) Create(_ dbmodels.InterviewSession) (string, error) { return "", nil }

func (f *orderedSessionStore) GetByToken(token string) (*dbmodels.InterviewSession, error) {
	if f.session.SessionToken != token {
		return nil, nil
	}
	rec := f.session
	return &rec, nil
}

func (f *orderedSessionStore) GetActiveByInterviewID(_ string) (*dbmodels.InterviewSession, error) {
	return nil, nil
}

func (f *orderedSessionStore) GetLatestByInterviewID(_ string) (*dbmodels.InterviewSession, error) {
	return nil, nil
}

func (f *orderedSessionStore) GetActive() ([]dbmodels.InterviewSession, error) {
	return []dbmodels.InterviewSession{}, nil
}

func (f *orderedSessionStore) GetWithUnevaluated() ([]dbmodels.InterviewSession, error) {
	return []dbmodels.InterviewSession{}, nil
}

func (f *orderedSessionStore) Save(rec dbmodels.InterviewSession) error {
	*f.callLog = append(*f.callLog, "session_save")
	if f.saveErr != nil {
		return f.saveErr
	}
	f.session = rec
	return nil
}

type orderedInterviewStore struct {
	rec     dbmodels.Interview
	callLog *[]string
}

func (f *orderedInterviewStore) Create(_ dbmodels.Interview) (string, error) { return "", nil }

func (f *orderedInterviewStore) GetByID(id string) (*dbmodels.Interview, error) {
	if f.rec.ID != id {
		return nil, nil
	}
	rec := f.rec
	return &rec, nil
}

func (f *orderedInterviewStore) List() ([]dbmodels.Interview, error) { return nil, nil }

func (f *orderedInterviewStore) SetStarted(_ string) error { return nil }

func (f *orderedInterviewStore) SetCompleted(_ string, _ float64) error {
	*f.callLog = append(*f.callLog, "interview_set_completed")
	return nil
}

func (f *orderedInterviewStore) SetScore(_ string, _ float64) error { return nil }

func (f *orderedInterviewStore) SetStatus(_ string, _ dbmodels.InterviewStatus) error { return nil }

// сессия на последнем вопросе: следующий принятый ответ завершает интервью
func newCompletionFixture(t *testing.T) (*impl, *orderedSessionStore, *orderedInterviewStore, *[]string) {
	t.Helper()

	prevAudio, prevStt, prevGPT := audio.Instance, stt.Instance, gpthandler.Instance
	t.Cleanup(func() {
		audio.Instance = prevAudio
		stt.Instance = prevStt
		gpthandler.Instance = prevGPT
	})
	audio.Instance = fakeNormalizer{}
	stt.Instance = fakeTranscriber{text: "ответ"}
	gpthandler.Instance = fakeAI{fakeGenerator{}, &fakeEvaluator{scores: []float64{8}}}

	rec := testInterview(1)
	state := dbmodels.SessionState{Step: dbmodels.StepCreated}
	m := newTestMachine(rec, &state, &fakeEvaluator{})
	require.Nil(t, m.Initialize(context.Background()))
	_, err := m.PresentQuestion()
	require.Nil(t, err)

	callLog := &[]string{}
	sessions := &orderedSessionStore{
		session: dbmodels.InterviewSession{
			InterviewID:  rec.ID,
			SessionToken: "test-token",
			IsActive:     true,
			State:        state,
		},
		callLog: callLog,
	}
	interviews := &orderedInterviewStore{rec: rec, callLog: callLog}
	return &impl{interviews: interviews, sessions: sessions}, sessions, interviews, callLog
}

func TestSubmitResponseSavesSessionBeforeCompletionEffects(t *testing.T) {
	handler, sessions, _, callLog := newCompletionFixture(t)

	result, err := handler.SubmitResponse(context.Background(), "test-token", interviewapimodels.SubmitResponseRequest{
		Text: "финальный ответ",
	})
	require.Nil(t, err)
	require.True(t, result.IsCompleted)

	// закрытая сессия сохраняется раньше перевода интервью в completed
	require.Equal(t, []string{"session_save", "interview_set_completed"}, *callLog)
	require.False(t, sessions.session.IsActive)
	require.Equal(t, dbmodels.StepCompleted, sessions.session.State.Step)
}

func TestSubmitResponseCompletionSaveFailure(t *testing.T) {
	handler, sessions, _, callLog := newCompletionFixture(t)
	sessions.saveErr = errors.New("диск недоступен")

	_, err := handler.SubmitResponse(context.Background(), "test-token", interviewapimodels.SubmitResponseRequest{
		Text: "финальный ответ",
	})
	require.ErrorIs(t, err, ErrPersistenceFailed)

	// интервью не переводится в completed при незаписанной сессии
	require.NotContains(t, *callLog, "interview_set_completed")
	require.True(t, sessions.session.IsActive)
}
