package audio

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ai-interviewer-backend/metrics"
)

type impl struct {
	ffmpegPath string
}

func (i impl) Normalize(ctx context.Context, payload []byte) (Normalized, error) {
	data, format := decodePayload(payload)
	if format == FormatUnknown {
		metrics.AudioNormalize(FormatUnknown, false)
		return Normalized{}, &UnsupportedFormatError{Format: FormatUnknown, ByteLen: len(data)}
	}

	var (
		result Normalized
		err    error
	)
	if format == FormatWav {
		result, err = normalizeWav(data)
	} else {
		// контейнеры кроме WAV перекодируем через ffmpeg
		result, err = i.transcode(ctx, data, format)
	}
	if err != nil {
		metrics.AudioNormalize(format, false)
		return Normalized{}, err
	}
	result.SourceFormat = format
	metrics.AudioNormalize(format, true)
	return result, nil
}

// normalizeWav декодирует WAV нативно и приводит к 16kHz моно
func normalizeWav(data []byte) (Normalized, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return Normalized{}, errors.Wrap(err, "ошибка декодирования WAV")
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 || buf.Format.NumChannels <= 0 {
		return Normalized{}, errors.New("WAV не содержит корректного заголовка формата")
	}

	samples := downmix(buf.Data, buf.Format.NumChannels)
	samples = scaleTo16Bit(samples, int(decoder.BitDepth))
	samples = resample(samples, buf.Format.SampleRate, TargetSampleRate)

	out, err := encodeWav(samples)
	if err != nil {
		return Normalized{}, err
	}
	return Normalized{
		Bytes:           out,
		SampleRate:      TargetSampleRate,
		Channels:        TargetChannels,
		DurationSeconds: float64(len(samples)) / float64(TargetSampleRate),
	}, nil
}

// downmix сводит многоканальный interleaved-сигнал к моно усреднением каналов
func downmix(data []int, channels int) []int {
	if channels <= 1 {
		return data
	}
	frames := len(data) / channels
	out := make([]int, frames)
	for f := 0; f < frames; f++ {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += data[f*channels+c]
		}
		out[f] = sum / channels
	}
	return out
}

func scaleTo16Bit(data []int, bitDepth int) []int {
	if bitDepth == 16 || bitDepth == 0 {
		return data
	}
	shift := bitDepth - 16
	out := make([]int, len(data))
	for i, v := range data {
		if shift > 0 {
			out[i] = v >> uint(shift)
		} else {
			out[i] = v << uint(-shift)
		}
	}
	return out
}

// resample - линейная интерполяция, для речи под распознавание этого достаточно
func resample(data []int, from, to int) []int {
	if from == to || len(data) == 0 {
		return data
	}
	outLen := int(int64(len(data)) * int64(to) / int64(from))
	if outLen == 0 {
		return []int{}
	}
	out := make([]int, outLen)
	ratio := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(data)-1 {
			out[i] = data[len(data)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = int(float64(data[idx])*(1-frac) + float64(data[idx+1])*frac)
	}
	return out
}

func encodeWav(samples []int) ([]byte, error) {
	clamped := make([]int, len(samples))
	for i, v := range samples {
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		clamped[i] = v
	}
	w := newWriteSeekBuffer()
	encoder := wav.NewEncoder(w, TargetSampleRate, 16, TargetChannels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: TargetChannels, SampleRate: TargetSampleRate},
		Data:           clamped,
		SourceBitDepth: 16,
	}
	if err := encoder.Write(buf); err != nil {
		return nil, errors.Wrap(err, "ошибка записи WAV")
	}
	if err := encoder.Close(); err != nil {
		return nil, errors.Wrap(err, "ошибка закрытия WAV")
	}
	return w.Bytes(), nil
}

// transcode перекодирует webm/ogg/mp3 в канонический WAV через ffmpeg
func (i impl) transcode(ctx context.Context, data []byte, format string) (Normalized, error) {
	tmpDir, err := os.MkdirTemp("", "audio-normalize-*")
	if err != nil {
		return Normalized{}, errors.Wrap(err, "ошибка создания временной директории")
	}
	defer os.RemoveAll(tmpDir)

	inputFile := filepath.Join(tmpDir, "input."+format)
	outputFile := filepath.Join(tmpDir, "output.wav")
	if err = os.WriteFile(inputFile, data, 0o600); err != nil {
		return Normalized{}, errors.Wrap(err, "ошибка записи временного файла")
	}

	cmd := exec.CommandContext(ctx, i.ffmpegPath,
		"-i", inputFile,
		"-ac", "1", // моно
		"-ar", "16000", // частота дискретизации
		"-acodec", "pcm_s16le",
		"-f", "wav",
		"-y",
		outputFile,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.WithError(err).
			WithField("ffmpeg_output", string(output)).
			WithField("source_format", format).
			Error("ошибка выполнения ffmpeg")
		return Normalized{}, errors.Wrapf(err, "ошибка перекодирования аудио: %s", string(output))
	}

	converted, err := os.ReadFile(outputFile)
	if err != nil {
		return Normalized{}, errors.Wrap(err, "ошибка чтения перекодированного файла")
	}
	return Normalized{
		Bytes:           converted,
		SampleRate:      TargetSampleRate,
		Channels:        TargetChannels,
		DurationSeconds: wavDuration(converted),
	}, nil
}

func wavDuration(data []byte) float64 {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	d, err := decoder.Duration()
	if err != nil {
		return 0
	}
	return d.Seconds()
}

// writeSeekBuffer - io.WriteSeeker в памяти, wav.Encoder дописывает заголовок через Seek
type writeSeekBuffer struct {
	buf []byte
	pos int
}

func newWriteSeekBuffer() *writeSeekBuffer {
	return &writeSeekBuffer{buf: make([]byte, 0, 1024)}
}

func (w *writeSeekBuffer) Write(p []byte) (int, error) {
	if need := w.pos + len(p); need > len(w.buf) {
		grown := make([]byte, need)
		copy(grown, w.buf)
		w.buf = grown
	}
	copy(w.buf[w.pos:], p)
	w.pos += len(p)
	return len(p), nil
}

func (w *writeSeekBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int
	switch whence {
	case io.SeekStart:
		next = int(offset)
	case io.SeekCurrent:
		next = w.pos + int(offset)
	case io.SeekEnd:
		next = len(w.buf) + int(offset)
	default:
		return 0, errors.New("неизвестный whence")
	}
	if next < 0 {
		return 0, errors.New("отрицательная позиция")
	}
	w.pos = next
	return int64(next), nil
}

func (w *writeSeekBuffer) Bytes() []byte {
	return w.buf
}
