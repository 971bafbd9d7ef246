package interview

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ai-interviewer-backend/config"
	"ai-interviewer-backend/db"
	"ai-interviewer-backend/lib/audio"
	"ai-interviewer-backend/lib/events"
	filestorage "ai-interviewer-backend/lib/file-storage"
	gpthandler "ai-interviewer-backend/lib/gpt"
	sessionstore "ai-interviewer-backend/lib/interview/session-store"
	interviewstore "ai-interviewer-backend/lib/interview/store"
	"ai-interviewer-backend/lib/smtp"
	"ai-interviewer-backend/lib/stt"
	"ai-interviewer-backend/lib/tts"
	"ai-interviewer-backend/lib/utils/lock"
	interviewapimodels "ai-interviewer-backend/models/api/interview"
	dbmodels "ai-interviewer-backend/models/db"
)

// Сколько ждем освобождения сессии, если по ней уже идет запрос
const sessionLockWait = 5 * time.Second

var Instance Provider

type Provider interface {
	CreateInterview(req interviewapimodels.CreateInterviewRequest) (interviewapimodels.InterviewView, error)
	ListInterviews() ([]interviewapimodels.InterviewView, error)
	GetInterview(id string) (interviewapimodels.InterviewView, error)
	StartInterview(ctx context.Context, interviewID string) (interviewapimodels.StartInterviewResponse, error)
	SubmitResponse(ctx context.Context, sessionToken string, req interviewapimodels.SubmitResponseRequest) (interviewapimodels.SubmitResponseResult, error)
	GetSessionStatus(sessionToken string) (interviewapimodels.SessionStatusView, error)
	GetResults(interviewID string) (interviewapimodels.FinalReport, error)
}

func NewHandler() {
	Instance = &impl{
		interviews: interviewstore.NewInstance(db.DB),
		sessions:   sessionstore.NewInstance(db.DB),
	}
}

type impl struct {
	interviews interviewstore.Provider
	sessions   sessionstore.Provider
}

func (i *impl) CreateInterview(req interviewapimodels.CreateInterviewRequest) (interviewapimodels.InterviewView, error) {
	rec := dbmodels.Interview{
		Position:        req.Position,
		Company:         req.Company,
		InterviewType:   dbmodels.InterviewType(req.InterviewType),
		Difficulty:      req.Difficulty,
		QuestionCount:   req.QuestionCount,
		DurationMinutes: req.DurationMinutes,
		ContactEmail:    req.ContactEmail,
		Status:          dbmodels.InterviewStatusCreated,
	}
	if rec.Difficulty == "" {
		rec.Difficulty = "medium"
	}
	if rec.QuestionCount == 0 {
		rec.QuestionCount = config.Conf.Interview.DefaultQuestionCount
	}
	if rec.DurationMinutes == 0 {
		rec.DurationMinutes = config.Conf.Interview.DefaultDurationMinutes
	}

	id, err := i.interviews.Create(rec)
	if err != nil {
		return interviewapimodels.InterviewView{}, errors.Wrap(err, "не удалось создать интервью")
	}
	created, err := i.interviews.GetByID(id)
	if err != nil || created == nil {
		return interviewapimodels.InterviewView{}, errors.Wrap(err, "не удалось прочитать созданное интервью")
	}
	return interviewapimodels.InterviewToView(*created), nil
}

func (i *impl) ListInterviews() ([]interviewapimodels.InterviewView, error) {
	list, err := i.interviews.List()
	if err != nil {
		return nil, err
	}
	views := make([]interviewapimodels.InterviewView, 0, len(list))
	for _, rec := range list {
		views = append(views, interviewapimodels.InterviewToView(rec))
	}
	return views, nil
}

func (i *impl) GetInterview(id string) (interviewapimodels.InterviewView, error) {
	rec, err := i.interviews.GetByID(id)
	if err != nil {
		return interviewapimodels.InterviewView{}, err
	}
	if rec == nil {
		return interviewapimodels.InterviewView{}, ErrInterviewNotFound
	}
	return interviewapimodels.InterviewToView(*rec), nil
}

// StartInterview запускает новую сессию или возобновляет активную:
// повторный заход кандидата не плодит параллельные сессии
func (i *impl) StartInterview(ctx context.Context, interviewID string) (interviewapimodels.StartInterviewResponse, error) {
	rec, err := i.interviews.GetByID(interviewID)
	if err != nil {
		return interviewapimodels.StartInterviewResponse{}, err
	}
	if rec == nil {
		return interviewapimodels.StartInterviewResponse{}, ErrInterviewNotFound
	}
	if rec.Status == dbmodels.InterviewStatusCompleted || rec.Status == dbmodels.InterviewStatusCancelled {
		return interviewapimodels.StartInterviewResponse{}, errors.Wrapf(ErrSessionClosed, "интервью в статусе %q", rec.Status)
	}

	existing, err := i.sessions.GetActiveByInterviewID(interviewID)
	if err != nil {
		return interviewapimodels.StartInterviewResponse{}, err
	}
	if existing != nil {
		return i.resumeSession(ctx, *rec, *existing)
	}

	state := dbmodels.SessionState{Step: dbmodels.StepCreated}
	machine := NewMachine(*rec, &state, audio.Instance, stt.Instance, gpthandler.Instance, gpthandler.Instance)
	if err := machine.Initialize(ctx); err != nil {
		return interviewapimodels.StartInterviewResponse{}, errors.Wrap(err, "не удалось подготовить вопросы интервью")
	}
	question, err := machine.PresentQuestion()
	if err != nil {
		return interviewapimodels.StartInterviewResponse{}, err
	}

	session := dbmodels.InterviewSession{
		InterviewID:  interviewID,
		SessionToken: uuid.NewString(),
		IsActive:     true,
		State:        state,
	}
	if _, err := i.sessions.Create(session); err != nil {
		return interviewapimodels.StartInterviewResponse{}, errors.Wrap(ErrPersistenceFailed, err.Error())
	}
	if rec.Status == dbmodels.InterviewStatusCreated {
		if err := i.interviews.SetStarted(interviewID); err != nil {
			log.
				WithError(err).
				WithField("interview_id", interviewID).
				Error("не удалось перевести интервью в in_progress")
		}
	}
	i.publish(ctx, events.SessionEvent{
		Type:         events.EventSessionStarted,
		InterviewID:  interviewID,
		SessionToken: session.SessionToken,
	})

	return interviewapimodels.StartInterviewResponse{
		SessionToken: session.SessionToken,
		Question:     i.questionView(ctx, question),
	}, nil
}

func (i *impl) resumeSession(ctx context.Context, rec dbmodels.Interview, session dbmodels.InterviewSession) (interviewapimodels.StartInterviewResponse, error) {
	machine := NewMachine(rec, &session.State, audio.Instance, stt.Instance, gpthandler.Instance, gpthandler.Instance)
	question, err := machine.PresentQuestion()
	if err != nil {
		return interviewapimodels.StartInterviewResponse{}, errors.Wrap(err, "не удалось возобновить сессию")
	}
	if err := i.sessions.Save(session); err != nil {
		return interviewapimodels.StartInterviewResponse{}, errors.Wrap(ErrPersistenceFailed, err.Error())
	}
	return interviewapimodels.StartInterviewResponse{
		SessionToken: session.SessionToken,
		Question:     i.questionView(ctx, question),
		IsResumed:    true,
	}, nil
}

// SubmitResponse проводит ответ через полный цикл: прием, оценка, решение
// о следующем шаге. Мутации по одному токену сериализуются через лок
func (i *impl) SubmitResponse(ctx context.Context, sessionToken string, req interviewapimodels.SubmitResponseRequest) (interviewapimodels.SubmitResponseResult, error) {
	var result interviewapimodels.SubmitResponseResult
	locked, err := lock.WithDelay(ctx, "session:"+sessionToken, sessionLockWait, func() error {
		var submitErr error
		result, submitErr = i.submitResponse(ctx, sessionToken, req)
		return submitErr
	})
	if err != nil {
		return interviewapimodels.SubmitResponseResult{}, err
	}
	if !locked {
		return interviewapimodels.SubmitResponseResult{}, ErrSessionBusy
	}
	return result, nil
}

func (i *impl) submitResponse(ctx context.Context, sessionToken string, req interviewapimodels.SubmitResponseRequest) (interviewapimodels.SubmitResponseResult, error) {
	session, err := i.sessions.GetByToken(sessionToken)
	if err != nil {
		return interviewapimodels.SubmitResponseResult{}, err
	}
	if session == nil {
		return interviewapimodels.SubmitResponseResult{}, ErrSessionNotFound
	}
	if !session.IsActive {
		return interviewapimodels.SubmitResponseResult{}, ErrSessionClosed
	}
	rec, err := i.interviews.GetByID(session.InterviewID)
	if err != nil {
		return interviewapimodels.SubmitResponseResult{}, err
	}
	if rec == nil {
		return interviewapimodels.SubmitResponseResult{}, ErrInterviewNotFound
	}

	machine := NewMachine(*rec, &session.State, audio.Instance, stt.Instance, gpthandler.Instance, gpthandler.Instance)

	ingest, err := machine.IngestResponse(ctx, Submission{
		Text:  req.Text,
		Audio: []byte(req.Audio),
	})
	if err != nil {
		// счетчики обработки аудио меняются и на ошибочном пути,
		// поэтому состояние сохраняем в любом случае
		if saveErr := i.sessions.Save(*session); saveErr != nil {
			log.
				WithError(saveErr).
				WithField("session_token", sessionToken).
				Error("не удалось сохранить состояние после ошибки приема ответа")
		}
		return interviewapimodels.SubmitResponseResult{}, err
	}

	i.archiveAudio(ctx, *rec, *session, ingest)

	evaluated, err := machine.Evaluate(ctx)
	if err != nil {
		return interviewapimodels.SubmitResponseResult{}, err
	}
	questionID := evaluated.QuestionID
	event := events.SessionEvent{
		Type:         events.EventResponseEvaluated,
		InterviewID:  rec.ID,
		SessionToken: sessionToken,
		QuestionID:   &questionID,
	}
	if evaluated.Evaluated {
		score := evaluated.Score
		event.Score = &score
	}
	i.publish(ctx, event)

	if err := machine.DecideNext(); err != nil {
		return interviewapimodels.SubmitResponseResult{}, err
	}

	result := interviewapimodels.SubmitResponseResult{
		Evaluation: interviewapimodels.EvaluationView{
			Evaluated: evaluated.Evaluated,
			Score:     evaluated.Score,
			Strengths: evaluated.Strengths,
			Gaps:      evaluated.Gaps,
		},
	}

	if session.State.Step == dbmodels.StepAwaitingResponse {
		next, err := machine.PresentQuestion()
		if err != nil {
			return interviewapimodels.SubmitResponseResult{}, err
		}
		result.NextQuestion = i.questionView(ctx, next)
		session.HasUnevaluated = hasUnevaluated(session.State.Responses)
		if err := i.sessions.Save(*session); err != nil {
			return interviewapimodels.SubmitResponseResult{}, errors.Wrap(ErrPersistenceFailed, err.Error())
		}
		return result, nil
	}

	report, err := machine.Complete()
	if err != nil {
		return interviewapimodels.SubmitResponseResult{}, err
	}
	result.IsCompleted = true
	result.Report = &report
	session.IsActive = false
	session.HasUnevaluated = hasUnevaluated(session.State.Responses)
	// сначала фиксируем закрытую сессию, и только потом побочные эффекты
	// завершения: интервью не должно стать completed при живой сессии
	if err := i.sessions.Save(*session); err != nil {
		return interviewapimodels.SubmitResponseResult{}, errors.Wrap(ErrPersistenceFailed, err.Error())
	}
	i.finishInterview(ctx, *rec, sessionToken, report)
	return result, nil
}

func (i *impl) GetSessionStatus(sessionToken string) (interviewapimodels.SessionStatusView, error) {
	session, err := i.sessions.GetByToken(sessionToken)
	if err != nil {
		return interviewapimodels.SessionStatusView{}, err
	}
	if session == nil {
		return interviewapimodels.SessionStatusView{}, ErrSessionNotFound
	}
	return interviewapimodels.SessionStatusView{
		SessionToken:   session.SessionToken,
		IsActive:       session.IsActive,
		Step:           string(session.State.Step),
		QuestionsTotal: len(session.State.Questions),
		ResponsesCount: len(session.State.Responses),
		TotalScore:     session.State.TotalScore,
		StartedAt:      session.State.StartedAt,
	}, nil
}

// GetResults возвращает отчет по последней сессии интервью.
// Доступен и для незавершенной сессии - как промежуточный срез
func (i *impl) GetResults(interviewID string) (interviewapimodels.FinalReport, error) {
	rec, err := i.interviews.GetByID(interviewID)
	if err != nil {
		return interviewapimodels.FinalReport{}, err
	}
	if rec == nil {
		return interviewapimodels.FinalReport{}, ErrInterviewNotFound
	}
	session, err := i.sessions.GetLatestByInterviewID(interviewID)
	if err != nil {
		return interviewapimodels.FinalReport{}, err
	}
	if session == nil {
		return interviewapimodels.FinalReport{}, ErrSessionNotFound
	}
	return BuildReport(*rec, session.State), nil
}

// finishInterview - побочные эффекты завершения: статус интервью, событие,
// письмо с отчетом. Сбои здесь логируются и не откатывают завершение
func (i *impl) finishInterview(ctx context.Context, rec dbmodels.Interview, sessionToken string, report interviewapimodels.FinalReport) {
	if err := i.interviews.SetCompleted(rec.ID, report.TotalScore); err != nil {
		log.
			WithError(err).
			WithField("interview_id", rec.ID).
			Error("не удалось перевести интервью в completed")
	}
	score := report.TotalScore
	i.publish(ctx, events.SessionEvent{
		Type:         events.EventSessionCompleted,
		InterviewID:  rec.ID,
		SessionToken: sessionToken,
		Score:        &score,
	})
	if rec.ContactEmail == "" || smtp.Instance == nil {
		return
	}
	err := smtp.Instance.SendEMail(
		config.Conf.Interview.ReportSenderEmail,
		rec.ContactEmail,
		RenderReportText(report),
		"Результаты интервью: "+rec.Position,
	)
	if err != nil {
		log.
			WithError(err).
			WithField("interview_id", rec.ID).
			Error("не удалось отправить отчет на почту")
	}
}

// archiveAudio выгружает нормализованное аудио ответа в S3.
// Архив не участвует в протоколе сессии, сбой только логируется
func (i *impl) archiveAudio(ctx context.Context, rec dbmodels.Interview, session dbmodels.InterviewSession, ingest IngestResult) {
	if ingest.Normalized == nil || filestorage.Instance == nil {
		return
	}
	questionID := session.State.Pending.QuestionID
	err := filestorage.Instance.UploadAnswerAudio(ctx, rec.ID, session.SessionToken, questionID, ingest.Normalized.Bytes)
	if err != nil {
		log.
			WithError(err).
			WithField("session_token", session.SessionToken).
			WithField("question_id", questionID).
			Error("не удалось выгрузить аудио ответа в хранилище")
	}
}

func (i *impl) questionView(ctx context.Context, question dbmodels.InterviewQuestion) *interviewapimodels.QuestionView {
	view := &interviewapimodels.QuestionView{
		ID:       question.ID,
		Text:     question.Text,
		Category: question.Category,
	}
	if tts.Instance != nil {
		wavBytes, err := tts.Instance.Synthesize(ctx, question.Text)
		if err != nil {
			log.
				WithError(err).
				WithField("question_id", question.ID).
				Warn("озвучка вопроса не удалась, вопрос уйдет без аудио")
		} else {
			view.AudioBase64 = base64.StdEncoding.EncodeToString(wavBytes)
		}
	}
	return view
}

func (i *impl) publish(ctx context.Context, event events.SessionEvent) {
	if events.Instance == nil {
		return
	}
	if err := events.Instance.Publish(ctx, event); err != nil {
		log.
			WithError(err).
			WithField("event_type", event.Type).
			Error("не удалось опубликовать событие сессии")
	}
}

func hasUnevaluated(responses []dbmodels.ResponseRecord) bool {
	for _, r := range responses {
		if !r.Evaluated {
			return true
		}
	}
	return false
}
