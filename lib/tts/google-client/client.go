package googlettsclient

import (
	"context"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/pkg/errors"

	"ai-interviewer-backend/lib/tts"
)

type impl struct {
	client       *texttospeech.Client
	languageCode string
	voiceName    string
}

// NewProvider создает клиент Google Cloud Text-to-Speech.
// Требует настроенного GOOGLE_APPLICATION_CREDENTIALS.
func NewProvider(ctx context.Context, languageCode, voiceName string) (tts.Provider, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка создания клиента Google TTS")
	}
	return &impl{
		client:       client,
		languageCode: languageCode,
		voiceName:    voiceName,
	}, nil
}

func (i impl) Synthesize(ctx context.Context, text string) ([]byte, error) {
	voice := &texttospeechpb.VoiceSelectionParams{
		LanguageCode: i.languageCode,
	}
	if i.voiceName != "" {
		voice.Name = i.voiceName
	}
	resp, err := i.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: voice,
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
			SampleRateHertz: 16000,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "ошибка синтеза речи через Google TTS")
	}
	return resp.AudioContent, nil
}
