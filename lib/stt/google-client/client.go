package googlesttclient

import (
	"context"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ai-interviewer-backend/lib/audio"
	"ai-interviewer-backend/lib/stt"
	"ai-interviewer-backend/metrics"
)

type impl struct {
	client       *speech.Client
	languageCode string
	timeout      time.Duration
}

// NewProvider создает клиент Google Cloud Speech-to-Text.
// Требует настроенного GOOGLE_APPLICATION_CREDENTIALS.
func NewProvider(ctx context.Context, languageCode string, timeout time.Duration) (stt.Provider, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка создания клиента Google Speech")
	}
	return &impl{
		client:       client,
		languageCode: languageCode,
		timeout:      timeout,
	}, nil
}

func (i impl) Transcribe(ctx context.Context, aud audio.Normalized) (stt.Transcript, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	start := time.Now()
	resp, err := i.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: int32(aud.SampleRate),
			LanguageCode:    i.languageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: aud.Bytes},
		},
	})
	metrics.ObserveTranscription(time.Since(start), err)
	if err != nil {
		log.WithError(err).Error("ошибка запроса к Google Speech")
		return stt.Transcript{}, errors.Wrapf(stt.ErrTranscriptionFailed, "google speech: %v", err)
	}

	var (
		parts      []string
		confidence float64
	)
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		best := result.Alternatives[0]
		parts = append(parts, best.Transcript)
		if confidence == 0 {
			confidence = float64(best.Confidence)
		}
	}
	if len(parts) == 0 {
		return stt.Transcript{}, errors.Wrap(stt.ErrTranscriptionFailed, "пустой результат распознавания")
	}
	return stt.Transcript{
		Text:       strings.Join(parts, " "),
		Confidence: confidence,
	}, nil
}
