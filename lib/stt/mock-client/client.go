package mocksttclient

import (
	"context"
	"sync"

	"ai-interviewer-backend/lib/audio"
	"ai-interviewer-backend/lib/stt"
)

// Заготовленные ответы для локальной разработки без облачных кредов
var cannedTranscripts = []stt.Transcript{
	{Text: "У меня пять лет опыта разработки на Go, в основном бэкенд для высоконагруженных сервисов", Confidence: 0.94},
	{Text: "Самой сложной задачей была миграция монолита на микросервисы без остановки продакшена", Confidence: 0.91},
	{Text: "Качество кода обеспечиваю через код-ревью, линтеры и покрытие тестами критичных путей", Confidence: 0.93},
	{Text: "Для межсервисного взаимодействия использовал gRPC и Kafka в зависимости от требований", Confidence: 0.89},
	{Text: "Я бы начал с выяснения требований к нагрузке и консистентности данных", Confidence: 0.95},
}

type impl struct {
	mu  sync.Mutex
	idx int
}

func NewProvider() stt.Provider {
	return &impl{}
}

func (i *impl) Transcribe(ctx context.Context, aud audio.Normalized) (stt.Transcript, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	t := cannedTranscripts[i.idx%len(cannedTranscripts)]
	i.idx++
	return t, nil
}
