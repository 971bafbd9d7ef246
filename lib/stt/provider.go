package stt

import (
	"context"

	"github.com/pkg/errors"

	"ai-interviewer-backend/lib/audio"
)

var ErrTranscriptionFailed = errors.New("ошибка распознавания речи")

type Transcript struct {
	Text       string
	Confidence float64
}

// Provider - внешний сервис распознавания речи. Одна попытка на вызов,
// таймауты и их преобразование в ErrTranscriptionFailed - забота реализации.
type Provider interface {
	Transcribe(ctx context.Context, aud audio.Normalized) (Transcript, error)
}

var Instance Provider
