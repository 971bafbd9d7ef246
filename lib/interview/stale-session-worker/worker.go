package stalesessionworker

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"ai-interviewer-backend/db"
	"ai-interviewer-backend/lib/events"
	sessionstore "ai-interviewer-backend/lib/interview/session-store"
	interviewstore "ai-interviewer-backend/lib/interview/store"
	baseworker "ai-interviewer-backend/lib/utils/base-worker"
	"ai-interviewer-backend/lib/utils/lock"
	dbmodels "ai-interviewer-backend/models/db"
)

// Сколько ждем освобождения сессии перед принудительным закрытием
const closeLockWait = 5 * time.Second

// принудительное закрытие сессий, вышедших за бюджет времени интервью
func StartWorker(ctx context.Context) {
	i := &impl{
		sessionStore:   sessionstore.NewInstance(db.DB),
		interviewStore: interviewstore.NewInstance(db.DB),
	}
	worker := baseworker.NewInstance("StaleSessionWorker", 1*time.Minute, 5*time.Minute)
	go worker.Run(ctx, i.handle)
}

type impl struct {
	sessionStore   sessionstore.Provider
	interviewStore interviewstore.Provider
}

func (i impl) getLogger() *log.Entry {
	logger := log.
		WithField("worker_name", "StaleSessionWorker")
	return logger
}

func (i impl) handle(ctx context.Context) {
	logger := i.getLogger()
	list, err := i.sessionStore.GetActive()
	if err != nil {
		logger.WithError(err).Error("ошибка получения списка активных сессий")
		return
	}
	for _, session := range list {
		expired, err := i.isExpired(session)
		if err != nil {
			logger.WithError(err).
				WithField("session_token", session.SessionToken).
				Error("ошибка проверки бюджета времени сессии")
			continue
		}
		if !expired {
			continue
		}
		closed, err := i.closeSession(ctx, session.SessionToken)
		if err != nil {
			logger.WithError(err).
				WithField("session_token", session.SessionToken).
				Error("ошибка закрытия просроченной сессии")
			continue
		}
		if !closed {
			continue
		}
		logger.
			WithField("session_token", session.SessionToken).
			WithField("interview_id", session.InterviewID).
			Info("сессия закрыта по истечению бюджета времени")
	}
}

func (i impl) isExpired(session dbmodels.InterviewSession) (bool, error) {
	if session.State.StartedAt.IsZero() {
		return false, nil
	}
	rec, err := i.interviewStore.GetByID(session.InterviewID)
	if err != nil {
		return false, err
	}
	if rec == nil || rec.DurationMinutes <= 0 {
		return false, nil
	}
	budget := time.Duration(rec.DurationMinutes) * time.Minute
	return time.Since(session.State.StartedAt) > budget, nil
}

// closeSession закрывает сессию административно, минуя протокол переходов:
// кандидат не вернулся, ждать evaluating/completing бессмысленно.
// Закрытие идет под тем же локом по токену, что и прием ответов, с
// перечитыванием сессии: иначе запрос, успевший загрузить сессию до нас,
// сохранит ее последним и воскресит закрытую запись
func (i impl) closeSession(ctx context.Context, sessionToken string) (closed bool, err error) {
	locked, err := lock.WithDelay(ctx, "session:"+sessionToken, closeLockWait, func() error {
		session, err := i.sessionStore.GetByToken(sessionToken)
		if err != nil {
			return err
		}
		if session == nil || !session.IsActive {
			// сессия уже закрыта штатно, пока мы ждали лок
			return nil
		}
		now := time.Now()
		session.State.Step = dbmodels.StepCompleted
		session.State.CompletedAt = &now
		session.State.Pending = nil
		session.IsActive = false
		if err := i.sessionStore.Save(*session); err != nil {
			return err
		}
		if err := i.interviewStore.SetCompleted(session.InterviewID, session.State.TotalScore); err != nil {
			return err
		}
		closed = true
		i.publishClosed(ctx, *session)
		return nil
	})
	if err != nil {
		return false, err
	}
	if !locked {
		// по сессии идет запрос, вернемся на следующем цикле
		i.getLogger().
			WithField("session_token", sessionToken).
			Info("сессия занята, закрытие отложено")
		return false, nil
	}
	return closed, nil
}

func (i impl) publishClosed(ctx context.Context, session dbmodels.InterviewSession) {
	if events.Instance == nil {
		return
	}
	score := session.State.TotalScore
	err := events.Instance.Publish(ctx, events.SessionEvent{
		Type:         events.EventSessionCompleted,
		InterviewID:  session.InterviewID,
		SessionToken: session.SessionToken,
		Score:        &score,
	})
	if err != nil {
		i.getLogger().WithError(err).
			WithField("session_token", session.SessionToken).
			Error("не удалось опубликовать событие закрытия сессии")
	}
}
