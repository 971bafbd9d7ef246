package interview

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ai-interviewer-backend/lib/audio"
	"ai-interviewer-backend/lib/stt"
	"ai-interviewer-backend/metrics"
	aimodels "ai-interviewer-backend/models/api/ai"
	interviewapimodels "ai-interviewer-backend/models/api/interview"
	dbmodels "ai-interviewer-backend/models/db"
)

// Коллабораторы машины передаются явно, без пакетных синглтонов -
// в тестах подменяются фейками
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, rec dbmodels.Interview) ([]dbmodels.InterviewQuestion, error)
}

type ResponseEvaluator interface {
	EvaluateResponse(ctx context.Context, question dbmodels.InterviewQuestion, transcript string) (aimodels.ResponseEvaluation, error)
}

// Machine - конечный автомат одной сессии интервью.
// Владеет состоянием эксклюзивно на время одного запроса; сериализацию
// конкурентных запросов по одному токену обеспечивает вызывающий слой.
// Каждый переход либо применяется целиком, либо не меняет состояние
// (кроме счетчиков обработки аудио - они только для наблюдаемости).
type Machine struct {
	interview   dbmodels.Interview
	state       *dbmodels.SessionState
	normalizer  audio.Provider
	transcriber stt.Provider
	generator   QuestionGenerator
	evaluator   ResponseEvaluator
}

func NewMachine(
	rec dbmodels.Interview,
	state *dbmodels.SessionState,
	normalizer audio.Provider,
	transcriber stt.Provider,
	generator QuestionGenerator,
	evaluator ResponseEvaluator,
) *Machine {
	return &Machine{
		interview:   rec,
		state:       state,
		normalizer:  normalizer,
		transcriber: transcriber,
		generator:   generator,
		evaluator:   evaluator,
	}
}

// Submission - ответ кандидата: аудио (сырые байты или base64), текст или оба
type Submission struct {
	Text  string
	Audio []byte
}

// IngestResult - результат приема ответа. Normalized живет только в рамках
// текущего запроса (например, для выгрузки в архив) и не попадает в состояние
type IngestResult struct {
	Transcript string
	Confidence float64
	Normalized *audio.Normalized
}

// Initialize генерирует вопросы и переводит сессию в questions_ready.
// При ошибке состояние не меняется, повторный вызов безопасен
func (m *Machine) Initialize(ctx context.Context) error {
	if err := m.ensureStep(dbmodels.StepCreated); err != nil {
		return err
	}
	questions, err := m.generator.GenerateQuestions(ctx, m.interview)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return errors.New("генератор вернул пустой список вопросов")
	}
	if len(questions) < m.interview.QuestionCount {
		log.
			WithField("interview_id", m.interview.ID).
			Warnf("сгенерировано %v вопросов вместо %v, интервью будет короче", len(questions), m.interview.QuestionCount)
	}
	m.state.Questions = questions
	m.state.Cursor = 0
	m.state.StartedAt = time.Now()
	m.state.Step = dbmodels.StepQuestionsReady
	return nil
}

// PresentQuestion возвращает текущий вопрос, не сдвигая курсор.
// Повторный вызов из awaiting_response - повтор вопроса кандидату
func (m *Machine) PresentQuestion() (dbmodels.InterviewQuestion, error) {
	if m.state.Step == dbmodels.StepCompleted {
		return dbmodels.InterviewQuestion{}, ErrSessionClosed
	}
	if m.state.Step != dbmodels.StepQuestionsReady && m.state.Step != dbmodels.StepAwaitingResponse {
		return dbmodels.InterviewQuestion{}, errors.Wrapf(ErrInvalidTransition, "present_question из шага %q", m.state.Step)
	}
	if m.state.Cursor >= len(m.state.Questions) {
		return dbmodels.InterviewQuestion{}, ErrNoMoreQuestions
	}
	if m.state.Step == dbmodels.StepQuestionsReady {
		m.state.Step = dbmodels.StepAwaitingResponse
	}
	return m.state.Questions[m.state.Cursor], nil
}

// IngestResponse принимает ответ кандидата: нормализует аудио, расшифровывает,
// при сбое распознавания откатывается на текст, если он был передан.
// Любая ошибка оставляет сессию в awaiting_response для повторной отправки
func (m *Machine) IngestResponse(ctx context.Context, sub Submission) (IngestResult, error) {
	if m.state.Step == dbmodels.StepCompleted {
		return IngestResult{}, ErrSessionClosed
	}
	if m.state.Step != dbmodels.StepAwaitingResponse {
		return IngestResult{}, errors.Wrapf(ErrInvalidTransition, "ingest_response из шага %q", m.state.Step)
	}

	hasText := strings.TrimSpace(sub.Text) != ""
	if len(sub.Audio) == 0 && !hasText {
		return IngestResult{}, ErrNoUsableInput
	}

	result := IngestResult{Transcript: strings.TrimSpace(sub.Text)}
	var meta *dbmodels.AudioMeta
	if len(sub.Audio) > 0 {
		normalized, err := m.normalizer.Normalize(ctx, sub.Audio)
		if err != nil {
			m.state.AudioMetrics.NormalizeFailed++
			if !hasText {
				return IngestResult{}, errors.Wrapf(ErrNoUsableInput, "аудио не обработано: %v", err)
			}
			// аудио непригодно - просим прислать заново
			return IngestResult{}, err
		}
		m.state.AudioMetrics.NormalizeOk++
		meta = &dbmodels.AudioMeta{
			SourceFormat:    normalized.SourceFormat,
			DurationSeconds: normalized.DurationSeconds,
			ByteSize:        len(normalized.Bytes),
		}
		result.Normalized = &normalized

		transcript, err := m.transcriber.Transcribe(ctx, normalized)
		if err != nil {
			if !hasText {
				return IngestResult{}, errors.Wrapf(ErrNoUsableInput, "распознавание не удалось, текст не передан: %v", err)
			}
			log.
				WithError(err).
				WithField("question_id", m.state.Cursor).
				Warn("распознавание речи не удалось, используем текстовый ответ")
		} else {
			result.Transcript = transcript.Text
			result.Confidence = transcript.Confidence
		}
	}

	if strings.TrimSpace(result.Transcript) == "" {
		return IngestResult{}, ErrNoUsableInput
	}

	m.state.Pending = &dbmodels.PendingResponse{
		QuestionID: m.state.Cursor,
		Transcript: result.Transcript,
		Audio:      meta,
		ReceivedAt: time.Now(),
	}
	m.state.Step = dbmodels.StepEvaluating
	return result, nil
}

// Evaluate оценивает принятый ответ. Сбой оценки не теряет расшифровку:
// ответ сохраняется с флагом Evaluated=false и не участвует в среднем
func (m *Machine) Evaluate(ctx context.Context) (dbmodels.ResponseRecord, error) {
	if m.state.Step == dbmodels.StepCompleted {
		return dbmodels.ResponseRecord{}, ErrSessionClosed
	}
	if m.state.Step != dbmodels.StepEvaluating || m.state.Pending == nil {
		return dbmodels.ResponseRecord{}, errors.Wrapf(ErrInvalidTransition, "evaluate из шага %q", m.state.Step)
	}

	pending := m.state.Pending
	question := m.state.Questions[m.state.Cursor]
	rec := dbmodels.ResponseRecord{
		QuestionID: pending.QuestionID,
		Transcript: pending.Transcript,
		Audio:      pending.Audio,
		AnsweredAt: pending.ReceivedAt,
	}

	evaluation, err := m.evaluator.EvaluateResponse(ctx, question, pending.Transcript)
	if err != nil {
		log.
			WithError(err).
			WithField("question_id", question.ID).
			Error("оценка ответа не удалась, сохраняем ответ без оценки")
		metrics.Evaluation(false)
	} else {
		rec.Evaluated = true
		rec.Score = evaluation.Score
		rec.Strengths = evaluation.Strengths
		rec.Gaps = evaluation.Gaps
		metrics.Evaluation(true)
	}

	m.state.Responses = append(m.state.Responses, rec)
	m.state.Cursor++
	m.state.Pending = nil
	m.state.TotalScore = aggregateScore(m.state.Responses)
	return rec, nil
}

// DecideNext - чистое решение без I/O: следующий вопрос или завершение
func (m *Machine) DecideNext() error {
	if m.state.Step == dbmodels.StepCompleted {
		return ErrSessionClosed
	}
	if m.state.Step != dbmodels.StepEvaluating || m.state.Pending != nil {
		return errors.Wrapf(ErrInvalidTransition, "decide_next из шага %q", m.state.Step)
	}
	if m.state.Cursor < len(m.state.Questions) {
		m.state.Step = dbmodels.StepAwaitingResponse
	} else {
		m.state.Step = dbmodels.StepCompleting
	}
	return nil
}

// Complete формирует финальный отчет и закрывает сессию
func (m *Machine) Complete() (interviewapimodels.FinalReport, error) {
	if m.state.Step == dbmodels.StepCompleted {
		return interviewapimodels.FinalReport{}, ErrSessionClosed
	}
	if m.state.Step != dbmodels.StepCompleting {
		return interviewapimodels.FinalReport{}, errors.Wrapf(ErrInvalidTransition, "complete из шага %q", m.state.Step)
	}
	now := time.Now()
	m.state.CompletedAt = &now
	m.state.Step = dbmodels.StepCompleted
	metrics.SessionCompleted()
	return m.Report(), nil
}

// Report - идемпотентное чтение отчета, допустимо и после завершения
func (m *Machine) Report() interviewapimodels.FinalReport {
	return BuildReport(m.interview, *m.state)
}

func (m *Machine) ensureStep(expected dbmodels.SessionStep) error {
	if m.state.Step == dbmodels.StepCompleted {
		return ErrSessionClosed
	}
	if m.state.Step != expected {
		return errors.Wrapf(ErrInvalidTransition, "ожидался шаг %q, текущий %q", expected, m.state.Step)
	}
	return nil
}

// aggregateScore - среднее арифметическое только по оцененным ответам
func aggregateScore(responses []dbmodels.ResponseRecord) float64 {
	sum := 0.0
	count := 0
	for _, r := range responses {
		if r.Evaluated {
			sum += r.Score
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
