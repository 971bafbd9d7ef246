package initializers

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"ai-interviewer-backend/config"
	"ai-interviewer-backend/fiberlog"
	"ai-interviewer-backend/lib/events"
	xlsexport "ai-interviewer-backend/lib/export/xls"
	filestorage "ai-interviewer-backend/lib/file-storage"
	gpthandler "ai-interviewer-backend/lib/gpt"
	"ai-interviewer-backend/lib/interview"
	reevalworker "ai-interviewer-backend/lib/interview/reeval-worker"
	stalesessionworker "ai-interviewer-backend/lib/interview/stale-session-worker"
	"ai-interviewer-backend/lib/utils/lock"
)

var LoggerConfig *fiberlog.Config

func InitAllServices(ctx context.Context) {
	LoggerConfig = InitLogger()
	config.InitConfig()
	InitDBConnection()
	InitSmtp()
	lock.InitResourceLock(ctx)
	if err := filestorage.NewHandler(ctx); err != nil {
		log.WithError(err).Error("хранилище аудио недоступно, ответы будут сохраняться без архива")
	}
	events.NewHandler(config.Conf.Kafka.Enabled != nil && *config.Conf.Kafka.Enabled,
		config.Conf.Kafka.Brokers, config.Conf.Kafka.Topic)
	InitSpeech(ctx)
	gpthandler.NewHandler()
	xlsexport.NewHandler()
	interview.NewHandler()
	go initWorkers(ctx)
}

// запускаем с промежутком в 10 сек чтоб размыть нагрузку
func initWorkers(ctx context.Context) {
	// Задача дооценки ответов, оставшихся без оценки
	reevalworker.StartWorker(ctx)

	if makeTimeGap(ctx) {
		// Задача закрытия сессий, вышедших за бюджет времени
		stalesessionworker.StartWorker(ctx)
	}
}

func makeTimeGap(ctx context.Context) (canRun bool) {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(time.Second * 10):
		return true
	}
}
