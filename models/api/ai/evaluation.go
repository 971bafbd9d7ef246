package aimodels

// GeneratedQuestion - вопрос в том виде, в котором его возвращает LLM
type GeneratedQuestion struct {
	Question string `json:"question"` // Текст вопроса
	Category string `json:"category"` // Категория (experience/problem_solving/...)
	Hint     string `json:"hint"`     // Ожидаемые тезисы ответа
}

// ResponseEvaluation - структурированная оценка ответа кандидата
type ResponseEvaluation struct {
	Score     float64  `json:"score"` // 0..10
	Strengths []string `json:"strengths"`
	Gaps      []string `json:"gaps"` // Зоны роста
}
