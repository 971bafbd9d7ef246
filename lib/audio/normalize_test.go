package audio

import (
	"bytes"
	"context"
	"encoding/base64"
	"math"
	"math/rand"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

func makeWav(t *testing.T, sampleRate, channels, frames int) []byte {
	t.Helper()
	w := newWriteSeekBuffer()
	enc := wav.NewEncoder(w, sampleRate, 16, channels, 1)
	data := make([]int, frames*channels)
	for i := range data {
		data[i] = int(5000 * math.Sin(float64(i)/20))
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	require.Nil(t, enc.Write(buf))
	require.Nil(t, enc.Close())
	return w.Bytes()
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name     string
		data     []byte
		expected string
	}{
		{"wav", makeWav(t, 16000, 1, 100), FormatWav},
		{"webm", append([]byte{0x1A, 0x45, 0xDF, 0xA3}, make([]byte, 20)...), FormatWebm},
		{"ogg", append([]byte("OggS"), make([]byte, 20)...), FormatOgg},
		{"mp3 id3", append([]byte("ID3"), make([]byte, 20)...), FormatMp3},
		{"mp3 frame", append([]byte{0xFF, 0xFB}, make([]byte, 20)...), FormatMp3},
		{"мусор", []byte("совсем не аудио, просто текст"), FormatUnknown},
		{"слишком короткий", []byte("RIFF"), FormatUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, DetectFormat(tc.data))
		})
	}
}

func TestDecodePayload(t *testing.T) {
	wavData := makeWav(t, 16000, 1, 100)

	t.Run(`сырые байты`, func(t *testing.T) {
		data, format := decodePayload(wavData)
		require.Equal(t, FormatWav, format)
		require.Equal(t, wavData, data)
	})

	t.Run(`base64`, func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString(wavData)
		data, format := decodePayload([]byte(encoded))
		require.Equal(t, FormatWav, format)
		require.Equal(t, wavData, data)
	})

	t.Run(`data url от браузера`, func(t *testing.T) {
		encoded := "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(wavData)
		data, format := decodePayload([]byte(encoded))
		require.Equal(t, FormatWav, format)
		require.Equal(t, wavData, data)
	})

	t.Run(`base64 без аудио внутри`, func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString([]byte("обычный текст"))
		_, format := decodePayload([]byte(encoded))
		require.Equal(t, FormatUnknown, format)
	})
}

func TestNormalizeUnsupported(t *testing.T) {
	i := impl{ffmpegPath: "ffmpeg"}

	t.Run(`случайные байты`, func(t *testing.T) {
		rnd := rand.New(rand.NewSource(42))
		payload := make([]byte, 50)
		rnd.Read(payload)
		// случайность не должна дать валидную сигнатуру
		payload[0] = 0x00

		_, err := i.Normalize(context.Background(), payload)
		require.ErrorIs(t, err, ErrUnsupportedFormat)

		var typed *UnsupportedFormatError
		require.ErrorAs(t, err, &typed)
		require.Equal(t, FormatUnknown, typed.Format)
		require.Equal(t, 50, typed.ByteLen)
	})

	t.Run(`пустой ввод`, func(t *testing.T) {
		_, err := i.Normalize(context.Background(), nil)
		require.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

func TestNormalizeWav(t *testing.T) {
	i := impl{ffmpegPath: "ffmpeg"}

	t.Run(`уже канонический`, func(t *testing.T) {
		payload := makeWav(t, 16000, 1, 16000)
		result, err := i.Normalize(context.Background(), payload)
		require.Nil(t, err)
		require.Equal(t, TargetSampleRate, result.SampleRate)
		require.Equal(t, TargetChannels, result.Channels)
		require.Equal(t, FormatWav, result.SourceFormat)
		require.InDelta(t, 1.0, result.DurationSeconds, 0.01)
	})

	t.Run(`стерео 8kHz приводится к моно 16kHz`, func(t *testing.T) {
		payload := makeWav(t, 8000, 2, 8000)
		result, err := i.Normalize(context.Background(), payload)
		require.Nil(t, err)
		require.Equal(t, TargetSampleRate, result.SampleRate)
		require.Equal(t, TargetChannels, result.Channels)
		require.InDelta(t, 1.0, result.DurationSeconds, 0.01)

		decoder := wav.NewDecoder(bytes.NewReader(result.Bytes))
		buf, err := decoder.FullPCMBuffer()
		require.Nil(t, err)
		require.Equal(t, 1, buf.Format.NumChannels)
		require.Equal(t, TargetSampleRate, buf.Format.SampleRate)
	})

	t.Run(`base64 wav`, func(t *testing.T) {
		payload := base64.StdEncoding.EncodeToString(makeWav(t, 16000, 1, 1600))
		result, err := i.Normalize(context.Background(), []byte(payload))
		require.Nil(t, err)
		require.Equal(t, FormatWav, result.SourceFormat)
	})
}

func TestResample(t *testing.T) {
	t.Run(`без изменения частоты`, func(t *testing.T) {
		data := []int{1, 2, 3, 4}
		require.Equal(t, data, resample(data, 16000, 16000))
	})

	t.Run(`даунсэмплинг вдвое`, func(t *testing.T) {
		data := make([]int, 100)
		for i := range data {
			data[i] = i
		}
		out := resample(data, 32000, 16000)
		require.Len(t, out, 50)
	})

	t.Run(`апсэмплинг вдвое`, func(t *testing.T) {
		out := resample([]int{0, 100}, 8000, 16000)
		require.Len(t, out, 4)
		// линейная интерполяция между соседними отсчетами
		require.Equal(t, 0, out[0])
		require.Equal(t, 50, out[1])
	})
}

func TestDownmix(t *testing.T) {
	out := downmix([]int{10, 20, 30, 50}, 2)
	require.Equal(t, []int{15, 40}, out)
}

func TestWriteSeekBuffer(t *testing.T) {
	w := newWriteSeekBuffer()
	_, err := w.Write([]byte("hello world"))
	require.Nil(t, err)

	// перезапись начала, как делает wav.Encoder с заголовком
	pos, err := w.Seek(0, 0)
	require.Nil(t, err)
	require.Equal(t, int64(0), pos)
	_, err = w.Write([]byte("HELLO"))
	require.Nil(t, err)

	require.Equal(t, []byte("HELLO world"), w.Bytes())
}
