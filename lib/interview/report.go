package interview

import (
	"fmt"
	"strings"

	interviewapimodels "ai-interviewer-backend/models/api/interview"
	dbmodels "ai-interviewer-backend/models/db"
)

// BuildReport собирает итоговый отчет по интервью из состояния сессии
func BuildReport(rec dbmodels.Interview, state dbmodels.SessionState) interviewapimodels.FinalReport {
	report := interviewapimodels.FinalReport{
		Position:          rec.Position,
		Company:           rec.Company,
		InterviewType:     string(rec.InterviewType),
		TotalScore:        state.TotalScore,
		QuestionsTotal:    len(state.Questions),
		QuestionsAnswered: len(state.Responses),
	}
	if state.CompletedAt != nil {
		report.DurationSeconds = state.CompletedAt.Sub(state.StartedAt).Seconds()
	}
	for _, resp := range state.Responses {
		item := interviewapimodels.QuestionResult{
			QuestionID: resp.QuestionID,
			Transcript: resp.Transcript,
			Evaluated:  resp.Evaluated,
			Score:      resp.Score,
			Strengths:  resp.Strengths,
			Gaps:       resp.Gaps,
		}
		if resp.QuestionID >= 0 && resp.QuestionID < len(state.Questions) {
			item.Question = state.Questions[resp.QuestionID].Text
		}
		report.Breakdown = append(report.Breakdown, item)
	}
	return report
}

// RenderReportText - текстовое представление отчета для письма кандидату
func RenderReportText(report interviewapimodels.FinalReport) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Результаты интервью на позицию: %s\n", report.Position))
	if report.Company != "" {
		sb.WriteString(fmt.Sprintf("Компания: %s\n", report.Company))
	}
	sb.WriteString(fmt.Sprintf("Тип интервью: %s\n", report.InterviewType))
	sb.WriteString(fmt.Sprintf("Итоговая оценка: %.1f из 10\n", report.TotalScore))
	sb.WriteString(fmt.Sprintf("Отвечено вопросов: %d из %d\n", report.QuestionsAnswered, report.QuestionsTotal))
	if report.DurationSeconds > 0 {
		sb.WriteString(fmt.Sprintf("Длительность: %.0f мин\n", report.DurationSeconds/60))
	}
	sb.WriteString("\n")

	for i, item := range report.Breakdown {
		sb.WriteString(fmt.Sprintf("Вопрос %d: %s\n", i+1, item.Question))
		if !item.Evaluated {
			sb.WriteString("Оценка: ответ не оценен\n\n")
			continue
		}
		sb.WriteString(fmt.Sprintf("Оценка: %.1f\n", item.Score))
		if len(item.Strengths) > 0 {
			sb.WriteString(fmt.Sprintf("Сильные стороны: %s\n", strings.Join(item.Strengths, "; ")))
		}
		if len(item.Gaps) > 0 {
			sb.WriteString(fmt.Sprintf("Зоны роста: %s\n", strings.Join(item.Gaps, "; ")))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
