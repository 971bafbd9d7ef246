package audio

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

const (
	// Канонический формат для распознавания речи: 16kHz, моно, 16-bit PCM
	TargetSampleRate = 16000
	TargetChannels   = 1

	FormatWav     = "wav"
	FormatWebm    = "webm"
	FormatMp3     = "mp3"
	FormatOgg     = "ogg"
	FormatUnknown = "unknown"
)

var ErrUnsupportedFormat = errors.New("неподдерживаемый формат аудио")

// UnsupportedFormatError несет детали для сообщения пользователю и метрик
type UnsupportedFormatError struct {
	Format  string
	ByteLen int
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("неподдерживаемый формат аудио: формат %q, размер %v байт", e.Format, e.ByteLen)
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// Normalized - аудио, приведенное к каноническому виду (WAV, 16kHz, моно)
type Normalized struct {
	Bytes           []byte
	SampleRate      int
	Channels        int
	DurationSeconds float64
	SourceFormat    string
}

type Provider interface {
	// Normalize принимает сырые байты либо base64-строку в байтах,
	// определяет контейнер по сигнатуре и приводит аудио к каноническому виду.
	// На непригодных данных возвращает типизированную ошибку, не панику.
	Normalize(ctx context.Context, payload []byte) (Normalized, error)
}

var Instance Provider

func NewHandler(ffmpegPath string) {
	Instance = &impl{ffmpegPath: ffmpegPath}
}
