package initializers

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"ai-interviewer-backend/config"
	"ai-interviewer-backend/lib/audio"
	"ai-interviewer-backend/lib/stt"
	googlesttclient "ai-interviewer-backend/lib/stt/google-client"
	mocksttclient "ai-interviewer-backend/lib/stt/mock-client"
	"ai-interviewer-backend/lib/tts"
	googlettsclient "ai-interviewer-backend/lib/tts/google-client"
)

func InitSpeech(ctx context.Context) {
	audio.NewHandler(config.Conf.Audio.FfmpegPath)

	switch config.Conf.STT.Provider {
	case "google":
		timeout := time.Duration(config.Conf.STT.TimeoutSec) * time.Second
		provider, err := googlesttclient.NewProvider(ctx, config.Conf.STT.LanguageCode, timeout)
		if err != nil {
			panic(err.Error())
		}
		stt.Instance = provider
		log.Info("распознавание речи: Google Cloud Speech")
	default:
		stt.Instance = mocksttclient.NewProvider()
		log.Info("распознавание речи: mock провайдер")
	}

	if config.Conf.TTS.Enabled != nil && *config.Conf.TTS.Enabled {
		provider, err := googlettsclient.NewProvider(ctx, config.Conf.TTS.LanguageCode, config.Conf.TTS.VoiceName)
		if err != nil {
			panic(err.Error())
		}
		tts.Instance = provider
		log.Info("озвучка вопросов: Google Cloud Text-to-Speech")
	} else {
		log.Info("озвучка вопросов выключена")
	}
}
