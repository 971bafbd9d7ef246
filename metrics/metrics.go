// Package metrics - прометеевские метрики сервиса.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ai_interviewer"

var (
	audioNormalizeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audio_normalize_total",
		Help:      "Количество нормализаций аудио по формату и результату",
	}, []string{"format", "result"})

	transcriptionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "transcription_duration_seconds",
		Help:      "Длительность запросов распознавания речи",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	transcriptionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transcription_errors_total",
		Help:      "Количество ошибок распознавания речи",
	})

	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evaluations_total",
		Help:      "Количество оценок ответов по результату",
	}, []string{"result"})

	sessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_completed_total",
		Help:      "Количество завершенных сессий интервью",
	})
)

func AudioNormalize(format string, ok bool) {
	audioNormalizeTotal.WithLabelValues(format, resultLabel(ok)).Inc()
}

func ObserveTranscription(d time.Duration, err error) {
	transcriptionDuration.Observe(d.Seconds())
	if err != nil {
		transcriptionErrors.Inc()
	}
}

func Evaluation(ok bool) {
	evaluationsTotal.WithLabelValues(resultLabel(ok)).Inc()
}

func SessionCompleted() {
	sessionsCompleted.Inc()
}

func resultLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
