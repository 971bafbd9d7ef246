package gpthandler

import (
	"fmt"

	aimodels "ai-interviewer-backend/models/api/ai"
	dbmodels "ai-interviewer-backend/models/db"
)

// Резервный банк вопросов на случай недоступности LLM.
// Вопросы параметризуются позицией, чтобы не выглядеть совсем шаблонно.

func fallbackQuestions(rec dbmodels.Interview, count int) []aimodels.GeneratedQuestion {
	var bank []aimodels.GeneratedQuestion
	switch rec.InterviewType {
	case dbmodels.InterviewTypeBehavioral, dbmodels.InterviewTypeHR:
		bank = behavioralBank(rec.Position)
	case dbmodels.InterviewTypeSystemDesign:
		bank = systemDesignBank(rec.Position)
	default:
		bank = technicalBank(rec.Position)
	}
	if count < len(bank) {
		bank = bank[:count]
	}
	return bank
}

func technicalBank(position string) []aimodels.GeneratedQuestion {
	return []aimodels.GeneratedQuestion{
		{
			Question: fmt.Sprintf("Расскажите о вашем опыте работы на позиции %s и технологиях, с которыми вы работали.", position),
			Category: "experience",
			Hint:     "опыт, стек технологий, проекты, решенные проблемы",
		},
		{
			Question: "Опишите самую сложную техническую задачу, которую вы решали. Как вы подошли к решению?",
			Category: "problem_solving",
			Hint:     "постановка задачи, варианты решения, реализация, результат",
		},
		{
			Question: "Как вы обеспечиваете качество и поддерживаемость кода в своих проектах?",
			Category: "best_practices",
			Hint:     "код-ревью, тестирование, документация, стандарты",
		},
		{
			Question: "Расскажите про случай, когда вам пришлось оптимизировать производительность системы.",
			Category: "performance",
			Hint:     "профилирование, поиск узкого места, метрики до и после",
		},
		{
			Question: "Как вы подходите к выбору между готовой библиотекой и собственной реализацией?",
			Category: "engineering_judgement",
			Hint:     "критерии выбора, сопровождение, риски зависимостей",
		},
	}
}

func behavioralBank(position string) []aimodels.GeneratedQuestion {
	return []aimodels.GeneratedQuestion{
		{
			Question: "Расскажите о ситуации, когда вы не согласились с решением команды. Что вы сделали?",
			Category: "teamwork",
			Hint:     "аргументация, умение слушать, результат конфликта",
		},
		{
			Question: fmt.Sprintf("Почему вы выбрали направление %s и что вас в нем мотивирует?", position),
			Category: "motivation",
			Hint:     "осознанность выбора, долгосрочные цели",
		},
		{
			Question: "Опишите случай, когда вы допустили серьезную ошибку. Как вы ее исправляли?",
			Category: "accountability",
			Hint:     "ответственность, выводы, предотвращение повторения",
		},
		{
			Question: "Как вы расставляете приоритеты, когда задач больше, чем времени?",
			Category: "prioritization",
			Hint:     "критерии приоритизации, коммуникация со стейкхолдерами",
		},
		{
			Question: "Расскажите о самом значимом проекте в вашей карьере и вашей роли в нем.",
			Category: "impact",
			Hint:     "вклад лично кандидата, измеримый результат",
		},
	}
}

func systemDesignBank(position string) []aimodels.GeneratedQuestion {
	return []aimodels.GeneratedQuestion{
		{
			Question: "Спроектируйте сервис сокращения ссылок. С чего начнете?",
			Category: "system_design",
			Hint:     "требования, оценка нагрузки, хранение, выдача идентификаторов",
		},
		{
			Question: "Как бы вы организовали хранение и доставку пользовательских уведомлений в системе с миллионами пользователей?",
			Category: "system_design",
			Hint:     "очереди, ретраи, дедупликация, деградация",
		},
		{
			Question: fmt.Sprintf("Какие метрики и алерты вы бы заложили в продакшен-сервис уровня %s?", position),
			Category: "operations",
			Hint:     "SLI/SLO, латентность, ошибки, насыщение",
		},
		{
			Question: "Как обеспечить консистентность данных между несколькими сервисами?",
			Category: "consistency",
			Hint:     "транзакции, саги, идемпотентность, eventual consistency",
		},
		{
			Question: "Расскажите, как вы подходите к шардированию базы данных.",
			Category: "storage",
			Hint:     "ключ шардирования, ребалансировка, горячие шарды",
		},
	}
}
