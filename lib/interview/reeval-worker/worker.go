package reevalworker

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"ai-interviewer-backend/db"
	gpthandler "ai-interviewer-backend/lib/gpt"
	sessionstore "ai-interviewer-backend/lib/interview/session-store"
	interviewstore "ai-interviewer-backend/lib/interview/store"
	baseworker "ai-interviewer-backend/lib/utils/base-worker"
	"ai-interviewer-backend/metrics"
	dbmodels "ai-interviewer-backend/models/db"
)

// дооценка ответов, которые не удалось оценить в рамках сессии
func StartWorker(ctx context.Context) {
	i := &impl{
		sessionStore:   sessionstore.NewInstance(db.DB),
		interviewStore: interviewstore.NewInstance(db.DB),
		evaluator:      gpthandler.Instance,
	}
	worker := baseworker.NewInstance("InterviewReEvalWorker", 30*time.Second, 10*time.Minute)
	go worker.Run(ctx, i.handle)
}

type impl struct {
	sessionStore   sessionstore.Provider
	interviewStore interviewstore.Provider
	evaluator      gpthandler.Provider
}

func (i impl) getLogger() *log.Entry {
	logger := log.
		WithField("worker_name", "InterviewReEvalWorker")
	return logger
}

func (i impl) handle(ctx context.Context) {
	logger := i.getLogger()
	list, err := i.sessionStore.GetWithUnevaluated()
	if err != nil {
		logger.WithError(err).Error("ошибка получения списка сессий с неоцененными ответами")
		return
	}
	for _, session := range list {
		if err := i.handleSession(ctx, session); err != nil {
			logger.WithError(err).
				WithField("session_token", session.SessionToken).
				Error("ошибка дооценки ответов сессии")
		}
	}
}

func (i impl) handleSession(ctx context.Context, session dbmodels.InterviewSession) error {
	logger := i.getLogger().
		WithField("session_token", session.SessionToken)
	changed := false
	for idx := range session.State.Responses {
		rec := &session.State.Responses[idx]
		if rec.Evaluated {
			continue
		}
		if rec.QuestionID < 0 || rec.QuestionID >= len(session.State.Questions) {
			continue
		}
		question := session.State.Questions[rec.QuestionID]
		evaluation, err := i.evaluator.EvaluateResponse(ctx, question, rec.Transcript)
		if err != nil {
			// оценим в следующем проходе
			logger.WithError(err).
				WithField("question_id", rec.QuestionID).
				Warn("ответ снова не удалось оценить")
			metrics.Evaluation(false)
			continue
		}
		rec.Evaluated = true
		rec.Score = evaluation.Score
		rec.Strengths = evaluation.Strengths
		rec.Gaps = evaluation.Gaps
		metrics.Evaluation(true)
		changed = true
		logger.
			WithField("question_id", rec.QuestionID).
			Info("ответ дооценен")
	}
	if !changed {
		return nil
	}

	session.State.TotalScore = meanEvaluatedScore(session.State.Responses)
	session.HasUnevaluated = hasUnevaluated(session.State.Responses)
	if err := i.sessionStore.Save(session); err != nil {
		return err
	}
	return i.interviewStore.SetScore(session.InterviewID, session.State.TotalScore)
}

func meanEvaluatedScore(responses []dbmodels.ResponseRecord) float64 {
	sum := 0.0
	count := 0
	for _, r := range responses {
		if r.Evaluated {
			sum += r.Score
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func hasUnevaluated(responses []dbmodels.ResponseRecord) bool {
	for _, r := range responses {
		if !r.Evaluated {
			return true
		}
	}
	return false
}
