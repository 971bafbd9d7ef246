package dbmodels

import "time"

type InterviewType string

const (
	InterviewTypeTechnical    InterviewType = "technical"
	InterviewTypeBehavioral   InterviewType = "behavioral"
	InterviewTypeSystemDesign InterviewType = "system_design"
	InterviewTypeCoding       InterviewType = "coding"
	InterviewTypeHR           InterviewType = "hr"
)

type InterviewStatus string

const (
	InterviewStatusCreated    InterviewStatus = "created"
	InterviewStatusInProgress InterviewStatus = "in_progress"
	InterviewStatusCompleted  InterviewStatus = "completed"
	InterviewStatusCancelled  InterviewStatus = "cancelled"
)

type Interview struct {
	BaseModel
	Position        string          `gorm:"type:varchar(255)"` // Должность
	Company         string          `gorm:"type:varchar(255)"` // Компания
	InterviewType   InterviewType   `gorm:"type:varchar(50)"`  // Тип интервью
	Difficulty      string          `gorm:"type:varchar(20)"`  // Сложность (easy/medium/hard)
	QuestionCount   int             // Запрошенное количество вопросов
	DurationMinutes int             // Бюджет времени интервью в минутах
	ContactEmail    string          `gorm:"type:varchar(255)"` // Почта для отправки отчета (опционально)
	Status          InterviewStatus `gorm:"type:varchar(20);index"`
	Score           float64         // Итоговая оценка завершенного интервью
	StartedAt       *time.Time
	CompletedAt     *time.Time
}
