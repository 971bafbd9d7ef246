package audio

import (
	"bytes"
	"encoding/base64"
	"strings"
)

var ebmlSignature = []byte{0x1A, 0x45, 0xDF, 0xA3}

// DetectFormat определяет контейнер по сигнатуре первых байт
func DetectFormat(data []byte) string {
	if len(data) < 12 {
		return FormatUnknown
	}
	switch {
	case bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWav
	case bytes.HasPrefix(data, ebmlSignature):
		return FormatWebm
	case bytes.Equal(data[:4], []byte("OggS")):
		return FormatOgg
	case bytes.HasPrefix(data, []byte("ID3")),
		data[0] == 0xFF && (data[1] == 0xFB || data[1] == 0xF3 || data[1] == 0xF2):
		return FormatMp3
	}
	return FormatUnknown
}

// decodePayload различает сырые байты и base64-строку в байтах.
// Сначала пробуем строгий base64 (включая data URL от браузера), и только если
// декодированные байты содержат известную сигнатуру - считаем вход base64.
// Иначе интерпретируем вход как сырые байты.
func decodePayload(payload []byte) (data []byte, format string) {
	if decoded, ok := tryBase64(payload); ok {
		if f := DetectFormat(decoded); f != FormatUnknown {
			return decoded, f
		}
	}
	return payload, DetectFormat(payload)
}

func tryBase64(payload []byte) ([]byte, bool) {
	s := strings.TrimSpace(string(payload))
	// data:audio/webm;base64,....
	if strings.HasPrefix(s, "data:") {
		idx := strings.Index(s, "base64,")
		if idx < 0 {
			return nil, false
		}
		s = s[idx+len("base64,"):]
	}
	if s == "" || !isBase64Alphabet(s) {
		return nil, false
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, false
	}
	return decoded, true
}

func isBase64Alphabet(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z',
			r >= 'a' && r <= 'z',
			r >= '0' && r <= '9',
			r == '+', r == '/', r == '=':
		default:
			return false
		}
	}
	return true
}
