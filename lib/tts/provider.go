package tts

import "context"

// Provider - внешний сервис синтеза речи для озвучки вопросов.
// Недоступность озвучки не должна блокировать интервью
type Provider interface {
	Synthesize(ctx context.Context, text string) (wavBytes []byte, err error)
}

var Instance Provider
