package xlsexport

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	interviewapimodels "ai-interviewer-backend/models/api/interview"
)

type Provider interface {
	ExportInterviewReport(report interviewapimodels.FinalReport) (*bytes.Buffer, error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{}
}

type impl struct{}

var reportHeaders = []string{"№", "Вопрос", "Ответ кандидата", "Оценка", "Сильные стороны", "Зоны роста"}

func (i impl) ExportInterviewReport(report interviewapimodels.FinalReport) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Error("ошибка закрытия файла")
		}
	}()
	sheet := "Sheet1"
	row, err := writeSummary(f, sheet, report)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка формирования сводки в xlsx")
	}
	row, err = writeHeader(f, sheet, row, reportHeaders)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка формирования заголовка в xlsx")
	}
	if len(report.Breakdown) != 0 {
		if _, err = writeBreakdown(f, sheet, report.Breakdown, row); err != nil {
			return nil, errors.Wrap(err, "ошибка формирования таблицы с данными в xlsx")
		}
	}
	f.SetSheetName(sheet, "Отчет по интервью")
	return f.WriteToBuffer()
}

func writeSummary(f *excelize.File, sheet string, report interviewapimodels.FinalReport) (int, error) {
	summary := [][2]interface{}{
		{"Должность", report.Position},
		{"Компания", report.Company},
		{"Тип интервью", report.InterviewType},
		{"Итоговая оценка", fmt.Sprintf("%.1f из 10", report.TotalScore)},
		{"Отвечено вопросов", fmt.Sprintf("%d из %d", report.QuestionsAnswered, report.QuestionsTotal)},
	}
	if report.DurationSeconds > 0 {
		summary = append(summary, [2]interface{}{"Длительность, мин", fmt.Sprintf("%.0f", report.DurationSeconds/60)})
	}
	row := 0
	for _, pair := range summary {
		row++
		if err := writeColumn(f, sheet, 1, row, pair[0]); err != nil {
			return row, err
		}
		if err := writeColumn(f, sheet, 2, row, pair[1]); err != nil {
			return row, err
		}
	}
	// пустая строка между сводкой и таблицей ответов
	row++
	return row, nil
}

func writeBreakdown(f *excelize.File, sheet string, breakdown []interviewapimodels.QuestionResult, row int) (int, error) {
	if err := applyDataCellStyle(f, sheet, 1, row+1, len(reportHeaders), row+len(breakdown)); err != nil {
		return row, err
	}
	for idx, item := range breakdown {
		row++
		// "№"
		col := 1
		if err := writeColumn(f, sheet, col, row, idx+1); err != nil {
			return row, err
		}

		// "Вопрос"
		col++
		if err := writeColumn(f, sheet, col, row, item.Question); err != nil {
			return row, err
		}

		// "Ответ кандидата"
		col++
		if err := writeColumn(f, sheet, col, row, item.Transcript); err != nil {
			return row, err
		}

		// "Оценка"
		col++
		scoreValue := "без оценки"
		if item.Evaluated {
			scoreValue = fmt.Sprintf("%.1f", item.Score)
		}
		if err := writeColumn(f, sheet, col, row, scoreValue); err != nil {
			return row, err
		}

		// "Сильные стороны"
		col++
		if err := writeColumn(f, sheet, col, row, strings.Join(item.Strengths, "\r")); err != nil {
			return row, err
		}

		// "Зоны роста"
		col++
		if err := writeColumn(f, sheet, col, row, strings.Join(item.Gaps, "\r")); err != nil {
			return row, err
		}
	}
	return row, nil
}
