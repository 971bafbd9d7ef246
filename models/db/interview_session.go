package dbmodels

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"
)

type SessionStep string

const (
	StepCreated          SessionStep = "created"
	StepQuestionsReady   SessionStep = "questions_ready"
	StepAwaitingResponse SessionStep = "awaiting_response"
	StepEvaluating       SessionStep = "evaluating"
	StepCompleting       SessionStep = "completing"
	StepCompleted        SessionStep = "completed"
)

type InterviewSession struct {
	BaseModel
	InterviewID  string `gorm:"type:varchar(36);index"`
	SessionToken string `gorm:"type:varchar(36);uniqueIndex"`
	IsActive     bool   `gorm:"index"`
	// Есть ответы без оценки - кандидат на фоновую дооценку
	HasUnevaluated bool         `gorm:"index"`
	State          SessionState `gorm:"type:jsonb"`
}

// SessionState - состояние сессии интервью, хранится в jsonb.
// Бинарные данные (аудио) в состоянии отсутствуют по построению:
// в структуре нет ни одного поля с сырыми байтами.
type SessionState struct {
	Step        SessionStep         `json:"step"`
	Cursor      int                 `json:"cursor"` // Индекс следующего неотвеченного вопроса
	Questions   []InterviewQuestion `json:"questions"`
	Responses   []ResponseRecord    `json:"responses"`
	TotalScore  float64             `json:"total_score"` // Среднее по оцененным ответам
	StartedAt   time.Time           `json:"started_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	// Транскрипт принятого, но еще не оцененного ответа
	Pending      *PendingResponse `json:"pending,omitempty"`
	AudioMetrics AudioMetrics     `json:"audio_metrics"`
}

type InterviewQuestion struct {
	ID       int    `json:"id"` // Порядковый номер в списке вопросов
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
	Hint     string `json:"hint,omitempty"` // Ожидаемые тезисы ответа
}

type ResponseRecord struct {
	QuestionID int        `json:"question_id"`
	Transcript string     `json:"transcript"`
	Audio      *AudioMeta `json:"audio,omitempty"` // Метаданные исходного аудио, без самих байт
	AnsweredAt time.Time  `json:"answered_at"`
	Evaluated  bool       `json:"evaluated"` // false - оценка не удалась, ответ сохранен без оценки
	Score      float64    `json:"score"`
	Strengths  []string   `json:"strengths,omitempty"`
	Gaps       []string   `json:"gaps,omitempty"`
}

type PendingResponse struct {
	QuestionID int        `json:"question_id"`
	Transcript string     `json:"transcript"`
	Audio      *AudioMeta `json:"audio,omitempty"`
	ReceivedAt time.Time  `json:"received_at"`
}

type AudioMeta struct {
	SourceFormat    string  `json:"source_format"`
	DurationSeconds float64 `json:"duration_seconds"`
	ByteSize        int     `json:"byte_size"`
}

// AudioMetrics - счетчики обработки аудио по сессии, только для наблюдаемости
type AudioMetrics struct {
	NormalizeOk     int `json:"normalize_ok"`
	NormalizeFailed int `json:"normalize_failed"`
}

func (s SessionState) Value() (driver.Value, error) {
	valueString, err := json.Marshal(s.sanitized())
	return string(valueString), err
}

func (s *SessionState) Scan(value interface{}) error {
	if err := json.Unmarshal(value.([]byte), &s); err != nil {
		return err
	}
	return nil
}

// sanitized возвращает копию состояния, в которой строки с невалидным UTF-8
// заменены плейсхолдером с длиной - такие строки нельзя класть в jsonb
func (s SessionState) sanitized() SessionState {
	out := s
	out.Questions = make([]InterviewQuestion, len(s.Questions))
	for i, q := range s.Questions {
		q.Text = safeText(q.Text)
		q.Hint = safeText(q.Hint)
		out.Questions[i] = q
	}
	out.Responses = make([]ResponseRecord, len(s.Responses))
	for i, r := range s.Responses {
		r.Transcript = safeText(r.Transcript)
		r.Strengths = safeTexts(r.Strengths)
		r.Gaps = safeTexts(r.Gaps)
		out.Responses[i] = r
	}
	if s.Pending != nil {
		pending := *s.Pending
		pending.Transcript = safeText(pending.Transcript)
		out.Pending = &pending
	}
	return out
}

func safeText(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return fmt.Sprintf("<encoded_string:%v_chars>", len(s))
}

func safeTexts(list []string) []string {
	if list == nil {
		return nil
	}
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = safeText(s)
	}
	return out
}
