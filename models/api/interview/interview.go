package interviewapimodels

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	dbmodels "ai-interviewer-backend/models/db"
)

type CreateInterviewRequest struct {
	Position        string `json:"position"`         // Должность
	Company         string `json:"company"`          // Компания
	InterviewType   string `json:"interview_type"`   // technical/behavioral/system_design/coding/hr
	Difficulty      string `json:"difficulty"`       // easy/medium/hard
	QuestionCount   int    `json:"question_count"`   // Количество вопросов
	DurationMinutes int    `json:"duration_minutes"` // Бюджет времени
	ContactEmail    string `json:"contact_email"`    // Почта для отчета (опционально)
}

func (r CreateInterviewRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Position, validation.Required, validation.Length(2, 255)),
		validation.Field(&r.Company, validation.Length(0, 255)),
		validation.Field(&r.InterviewType, validation.Required, validation.In(
			string(dbmodels.InterviewTypeTechnical),
			string(dbmodels.InterviewTypeBehavioral),
			string(dbmodels.InterviewTypeSystemDesign),
			string(dbmodels.InterviewTypeCoding),
			string(dbmodels.InterviewTypeHR),
		)),
		validation.Field(&r.Difficulty, validation.In("easy", "medium", "hard")),
		validation.Field(&r.QuestionCount, validation.Min(0), validation.Max(20)),
		validation.Field(&r.DurationMinutes, validation.Min(0), validation.Max(240)),
		validation.Field(&r.ContactEmail, is.Email),
	)
}

type InterviewView struct {
	ID              string     `json:"id"`
	Position        string     `json:"position"`
	Company         string     `json:"company,omitempty"`
	InterviewType   string     `json:"interview_type"`
	Difficulty      string     `json:"difficulty"`
	QuestionCount   int        `json:"question_count"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          string     `json:"status"`
	Score           float64    `json:"score"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

func InterviewToView(rec dbmodels.Interview) InterviewView {
	return InterviewView{
		ID:              rec.ID,
		Position:        rec.Position,
		Company:         rec.Company,
		InterviewType:   string(rec.InterviewType),
		Difficulty:      rec.Difficulty,
		QuestionCount:   rec.QuestionCount,
		DurationMinutes: rec.DurationMinutes,
		Status:          string(rec.Status),
		Score:           rec.Score,
		CreatedAt:       rec.CreatedAt,
		StartedAt:       rec.StartedAt,
		CompletedAt:     rec.CompletedAt,
	}
}

type QuestionView struct {
	ID       int    `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
	// Озвучка вопроса в base64 (WAV), если включен TTS
	AudioBase64 string `json:"audio_base64,omitempty"`
}

type StartInterviewResponse struct {
	SessionToken string        `json:"session_token"`
	Question     *QuestionView `json:"question,omitempty"`
	IsResumed    bool          `json:"is_resumed,omitempty"` // Возобновлена существующая сессия
}

type SubmitResponseRequest struct {
	Text  string `json:"text"`  // Текстовый ответ (опционально)
	Audio string `json:"audio"` // Аудио ответа в base64 (опционально)
}

func (r SubmitResponseRequest) Validate() error {
	if r.Text == "" && r.Audio == "" {
		return validation.NewError("validation_empty_submission", "ответ должен содержать текст или аудио")
	}
	return nil
}

type EvaluationView struct {
	Evaluated bool     `json:"evaluated"`
	Score     float64  `json:"score"`
	Strengths []string `json:"strengths,omitempty"`
	Gaps      []string `json:"gaps,omitempty"`
}

type SubmitResponseResult struct {
	Evaluation   EvaluationView `json:"evaluation"`
	NextQuestion *QuestionView  `json:"next_question,omitempty"`
	IsCompleted  bool           `json:"is_completed"`
	Report       *FinalReport   `json:"report,omitempty"`
}

type SessionStatusView struct {
	SessionToken   string    `json:"session_token"`
	IsActive       bool      `json:"is_active"`
	Step           string    `json:"step"`
	QuestionsTotal int       `json:"questions_total"`
	ResponsesCount int       `json:"responses_count"`
	TotalScore     float64   `json:"total_score"`
	StartedAt      time.Time `json:"started_at"`
}

type FinalReport struct {
	Position          string           `json:"position"`
	Company           string           `json:"company,omitempty"`
	InterviewType     string           `json:"interview_type"`
	TotalScore        float64          `json:"total_score"`
	QuestionsTotal    int              `json:"questions_total"`
	QuestionsAnswered int              `json:"questions_answered"`
	DurationSeconds   float64          `json:"duration_seconds"`
	Breakdown         []QuestionResult `json:"breakdown"`
}

type QuestionResult struct {
	QuestionID int      `json:"question_id"`
	Question   string   `json:"question"`
	Transcript string   `json:"transcript"`
	Evaluated  bool     `json:"evaluated"`
	Score      float64  `json:"score"`
	Strengths  []string `json:"strengths,omitempty"`
	Gaps       []string `json:"gaps,omitempty"`
}
