package gpthandler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ai-interviewer-backend/config"
	yagptclient "ai-interviewer-backend/lib/gpt/yagpt-client"
	"ai-interviewer-backend/lib/utils/lock"
	aimodels "ai-interviewer-backend/models/api/ai"
	dbmodels "ai-interviewer-backend/models/db"
)

var (
	ErrGenerationFailed = errors.New("не удалось сгенерировать вопросы интервью")
	ErrEvaluationFailed = errors.New("не удалось оценить ответ кандидата")
)

type Provider interface {
	// GenerateQuestions генерирует список вопросов под конфигурацию интервью.
	// Список может оказаться короче запрошенного - это допустимо
	GenerateQuestions(ctx context.Context, rec dbmodels.Interview) ([]dbmodels.InterviewQuestion, error)
	// EvaluateResponse оценивает расшифрованный ответ на заданный вопрос
	EvaluateResponse(ctx context.Context, question dbmodels.InterviewQuestion, transcript string) (aimodels.ResponseEvaluation, error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{
		client: yagptclient.NewClient(config.Conf.YandexGPT.IAMToken, config.Conf.YandexGPT.CatalogID),
	}
}

type impl struct {
	client yagptclient.Provider
}

const questionsPromt = "Ты - опытный интервьюер. Отвечай строго JSON-массивом без пояснений, " +
	"каждый элемент вида {\"question\": \"...\", \"category\": \"...\", \"hint\": \"...\"}. " +
	"hint - краткие тезисы хорошего ответа."

const evaluationPromt = "Ты - опытный интервьюер, оцениваешь ответ кандидата. " +
	"Отвечай строго JSON-объектом без пояснений вида " +
	"{\"score\": 0-10, \"strengths\": [\"...\"], \"gaps\": [\"...\"]}."

func (i impl) GenerateQuestions(ctx context.Context, rec dbmodels.Interview) ([]dbmodels.InterviewQuestion, error) {
	count := rec.QuestionCount
	if count <= 0 {
		count = config.Conf.Interview.DefaultQuestionCount
	}
	logger := log.
		WithField("interview_id", rec.ID).
		WithField("position", rec.Position)

	generated := i.queryQuestions(ctx, rec, count)
	if len(generated) == 0 {
		// LLM недоступен или вернул мусор - используем встроенный банк вопросов
		logger.Warn("генерация вопросов через LLM не удалась, используем резервный банк вопросов")
		generated = fallbackQuestions(rec, count)
	}
	if len(generated) == 0 {
		return nil, ErrGenerationFailed
	}
	if len(generated) > count {
		generated = generated[:count]
	}

	questions := make([]dbmodels.InterviewQuestion, 0, len(generated))
	for idx, q := range generated {
		questions = append(questions, dbmodels.InterviewQuestion{
			ID:       idx,
			Text:     q.Question,
			Category: q.Category,
			Hint:     q.Hint,
		})
	}
	logger.Infof("сгенерировано вопросов: %v из %v запрошенных", len(questions), count)
	return questions, nil
}

func (i impl) queryQuestions(ctx context.Context, rec dbmodels.Interview, count int) []aimodels.GeneratedQuestion {
	if !lock.Resource.Acquire(ctx, "GenerateQuestions") {
		return nil
	}
	defer lock.Resource.Release("GenerateQuestions")

	companyContext := ""
	if rec.Company != "" {
		companyContext = fmt.Sprintf(" в компанию %s", rec.Company)
	}
	text := fmt.Sprintf(
		"Составь %v вопросов для интервью типа %q на позицию %q%s, сложность %q.",
		count, rec.InterviewType, rec.Position, companyContext, rec.Difficulty,
	)
	answer, err := i.client.GenerateByPromtAndText(ctx, questionsPromt, text)
	if err != nil {
		log.WithError(err).Error("ошибка генерации вопросов через YandexGPT")
		return nil
	}
	questions, err := parseQuestions(answer)
	if err != nil {
		log.WithError(err).
			WithField("answer", answer).
			Warn("ответ LLM не распознан как список вопросов")
		return nil
	}
	return questions
}

func (i impl) EvaluateResponse(ctx context.Context, question dbmodels.InterviewQuestion, transcript string) (aimodels.ResponseEvaluation, error) {
	if !lock.Resource.Acquire(ctx, "EvaluateResponse") {
		return aimodels.ResponseEvaluation{}, errors.Wrap(ErrEvaluationFailed, "контекст завершен")
	}
	defer lock.Resource.Release("EvaluateResponse")

	text := fmt.Sprintf("Вопрос: %s\nОжидаемые тезисы: %s\nОтвет кандидата: %s",
		question.Text, question.Hint, transcript)
	answer, err := i.client.GenerateByPromtAndText(ctx, evaluationPromt, text)
	if err != nil {
		log.WithError(err).Error("ошибка оценки ответа через YandexGPT")
		return aimodels.ResponseEvaluation{}, errors.Wrapf(ErrEvaluationFailed, "yandexgpt: %v", err)
	}
	evaluation, err := parseEvaluation(answer)
	if err != nil {
		log.WithError(err).
			WithField("answer", answer).
			Error("ответ LLM не распознан как оценка")
		return aimodels.ResponseEvaluation{}, errors.Wrapf(ErrEvaluationFailed, "разбор ответа: %v", err)
	}
	return evaluation, nil
}

// parseQuestions извлекает JSON-массив вопросов из ответа модели,
// терпимо к обрамляющему тексту вокруг JSON
func parseQuestions(answer string) ([]aimodels.GeneratedQuestion, error) {
	jsonPart, err := extractJSON(answer, '[', ']')
	if err != nil {
		return nil, err
	}
	var questions []aimodels.GeneratedQuestion
	if err = json.Unmarshal([]byte(jsonPart), &questions); err != nil {
		return nil, errors.Wrap(err, "ошибка разбора JSON с вопросами")
	}
	valid := questions[:0]
	for _, q := range questions {
		if strings.TrimSpace(q.Question) != "" {
			valid = append(valid, q)
		}
	}
	if len(valid) == 0 {
		return nil, errors.New("список вопросов пуст")
	}
	return valid, nil
}

func parseEvaluation(answer string) (aimodels.ResponseEvaluation, error) {
	jsonPart, err := extractJSON(answer, '{', '}')
	if err != nil {
		return aimodels.ResponseEvaluation{}, err
	}
	var evaluation aimodels.ResponseEvaluation
	if err = json.Unmarshal([]byte(jsonPart), &evaluation); err != nil {
		return aimodels.ResponseEvaluation{}, errors.Wrap(err, "ошибка разбора JSON с оценкой")
	}
	evaluation.Score = clampScore(evaluation.Score)
	return evaluation, nil
}

func extractJSON(answer string, open, close byte) (string, error) {
	from := strings.IndexByte(answer, open)
	to := strings.LastIndexByte(answer, close)
	if from < 0 || to <= from {
		return "", errors.New("в ответе модели нет JSON")
	}
	return answer[from : to+1], nil
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}
