package interview

import "github.com/pkg/errors"

// Ошибки протокола сессии. Сравниваются через errors.Is,
// в обертках сохраняется контекст места возникновения.
var (
	ErrSessionClosed     = errors.New("сессия интервью завершена, изменения недопустимы")
	ErrNoMoreQuestions   = errors.New("вопросы интервью закончились")
	ErrNoUsableInput     = errors.New("в ответе нет ни пригодного аудио, ни текста")
	ErrInvalidTransition = errors.New("недопустимый переход состояния сессии")
	ErrSessionNotFound   = errors.New("сессия интервью не найдена")
	ErrPersistenceFailed = errors.New("ошибка сохранения состояния сессии")
	ErrInterviewNotFound = errors.New("интервью не найдено")
	ErrSessionBusy       = errors.New("сессия обрабатывает другой запрос, повторите позже")
)
