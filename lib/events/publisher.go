package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// События жизненного цикла сессии для внешних потребителей (аналитика,
// нотификации). Публикация fire-and-forget: сбой Kafka не влияет на интервью

const (
	EventSessionStarted    = "session_started"
	EventResponseEvaluated = "response_evaluated"
	EventSessionCompleted  = "session_completed"
)

type SessionEvent struct {
	Type         string    `json:"type"`
	InterviewID  string    `json:"interview_id"`
	SessionToken string    `json:"session_token"`
	QuestionID   *int      `json:"question_id,omitempty"`
	Score        *float64  `json:"score,omitempty"`
	At           time.Time `json:"at"`
}

type Provider interface {
	Publish(ctx context.Context, event SessionEvent) error
}

var Instance Provider

func NewHandler(enabled bool, brokers, topic string) {
	if !enabled || brokers == "" {
		log.Info("публикация событий в Kafka выключена")
		Instance = disabledImpl{}
		return
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}
	log.Infof("публикация событий в Kafka включена, топик: %v", topic)
	Instance = &impl{writer: writer}
}

type impl struct {
	writer *kafka.Writer
}

func (i impl) Publish(ctx context.Context, event SessionEvent) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "ошибка сериализации события")
	}
	err = i.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.SessionToken),
		Value: payload,
	})
	if err != nil {
		return errors.Wrapf(err, "ошибка публикации события %v", event.Type)
	}
	return nil
}

// disabledImpl пишет события только в лог
type disabledImpl struct{}

func (disabledImpl) Publish(_ context.Context, event SessionEvent) error {
	log.
		WithField("event_type", event.Type).
		WithField("session_token", event.SessionToken).
		Debug("событие сессии (kafka выключен)")
	return nil
}
