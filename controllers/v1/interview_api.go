package apiv1

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"ai-interviewer-backend/controllers"
	"ai-interviewer-backend/lib/audio"
	xlsexport "ai-interviewer-backend/lib/export/xls"
	"ai-interviewer-backend/lib/interview"
	apimodels "ai-interviewer-backend/models/api"
	interviewapimodels "ai-interviewer-backend/models/api/interview"
)

type interviewApiController struct {
	controllers.BaseAPIController
}

func InitInterviewApiRouters(app *fiber.App) {
	controller := interviewApiController{}
	app.Route("interviews", func(router fiber.Router) {
		router.Post("", controller.create)
		router.Get("", controller.list)
		router.Get(":id", controller.getByID)
		router.Post(":id/start", controller.start)
		router.Get(":id/results", controller.results)
		router.Get(":id/results/export", controller.resultsExport)
	})
	app.Route("sessions", func(router fiber.Router) {
		router.Post(":token/response", controller.submitResponse)
		router.Get(":token/status", controller.sessionStatus)
	})
}

// @Summary Создать интервью
// @Tags Интервью
// @Description Создать интервью
// @Param	body	body	interviewapimodels.CreateInterviewRequest	true	"request body"
// @Success 201 {object} apimodels.Response{data=interviewapimodels.InterviewView}
// @Failure 400 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/interviews [post]
func (c *interviewApiController) create(ctx *fiber.Ctx) error {
	var payload interviewapimodels.CreateInterviewRequest
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := interview.Instance.CreateInterview(payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка создания интервью")
	}
	return ctx.Status(fiber.StatusCreated).JSON(apimodels.NewResponse(resp))
}

// @Summary Список интервью
// @Tags Интервью
// @Description Список интервью
// @Success 200 {object} apimodels.Response{data=[]interviewapimodels.InterviewView}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/interviews [get]
func (c *interviewApiController) list(ctx *fiber.Ctx) error {
	resp, err := interview.Instance.ListInterviews()
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения списка интервью")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Получить интервью
// @Tags Интервью
// @Description Получить интервью
// @Param	id	path	string	true	"interview id"
// @Success 200 {object} apimodels.Response{data=interviewapimodels.InterviewView}
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/interviews/{id} [get]
func (c *interviewApiController) getByID(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	resp, err := interview.Instance.GetInterview(id)
	if err != nil {
		return c.sendDomainError(ctx, err, "Ошибка получения интервью")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Начать интервью
// @Tags Интервью
// @Description Начать или возобновить сессию интервью
// @Param	id	path	string	true	"interview id"
// @Success 200 {object} apimodels.Response{data=interviewapimodels.StartInterviewResponse}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/interviews/{id}/start [post]
func (c *interviewApiController) start(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	resp, err := interview.Instance.StartInterview(ctx.UserContext(), id)
	if err != nil {
		return c.sendDomainError(ctx, err, "Ошибка запуска интервью")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Результаты интервью
// @Tags Интервью
// @Description Отчет по последней сессии интервью
// @Param	id	path	string	true	"interview id"
// @Success 200 {object} apimodels.Response{data=interviewapimodels.FinalReport}
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/interviews/{id}/results [get]
func (c *interviewApiController) results(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	resp, err := interview.Instance.GetResults(id)
	if err != nil {
		return c.sendDomainError(ctx, err, "Ошибка получения результатов интервью")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Результаты интервью. Выгрузить в Excel
// @Tags Интервью
// @Description Результаты интервью. Выгрузить в Excel
// @Param	id	path	string	true	"interview id"
// @Success 200
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/interviews/{id}/results/export [get]
func (c *interviewApiController) resultsExport(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	report, err := interview.Instance.GetResults(id)
	if err != nil {
		return c.sendDomainError(ctx, err, "Ошибка получения результатов интервью для выгрузки в Excel")
	}
	data, err := xlsexport.Instance.ExportInterviewReport(report)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка формирования выгрузки в Excel")
	}
	fileName := fmt.Sprintf("interview-report-%v.xlsx", time.Now().Format("20060102-150405"))
	ctx.Set("Content-Type", "application/vnd.ms-excel")
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="`+fileName+`"`)
	return ctx.SendStream(data)
}

// @Summary Отправить ответ
// @Tags Сессия интервью
// @Description Отправить ответ кандидата на текущий вопрос (текст и/или аудио в base64)
// @Param	token	path	string	true	"session token"
// @Param	body	body	interviewapimodels.SubmitResponseRequest	true	"request body"
// @Success 200 {object} apimodels.Response{data=interviewapimodels.SubmitResponseResult}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/sessions/{token}/response [post]
func (c *interviewApiController) submitResponse(ctx *fiber.Ctx) error {
	token := ctx.Params("token")
	var payload interviewapimodels.SubmitResponseRequest
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := interview.Instance.SubmitResponse(ctx.UserContext(), token, payload)
	if err != nil {
		return c.sendDomainError(ctx, err, "Ошибка обработки ответа кандидата")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Статус сессии
// @Tags Сессия интервью
// @Description Текущий статус сессии интервью
// @Param	token	path	string	true	"session token"
// @Success 200 {object} apimodels.Response{data=interviewapimodels.SessionStatusView}
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/sessions/{token}/status [get]
func (c *interviewApiController) sessionStatus(ctx *fiber.Ctx) error {
	token := ctx.Params("token")
	resp, err := interview.Instance.GetSessionStatus(token)
	if err != nil {
		return c.sendDomainError(ctx, err, "Ошибка получения статуса сессии")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// sendDomainError - отображение ошибок протокола сессии в коды http
func (c *interviewApiController) sendDomainError(ctx *fiber.Ctx, err error, message string) error {
	logger := c.GetLogger(ctx)
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, interview.ErrInterviewNotFound),
		errors.Is(err, interview.ErrSessionNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, interview.ErrSessionBusy):
		status = fiber.StatusConflict
	case errors.Is(err, interview.ErrSessionClosed),
		errors.Is(err, interview.ErrInvalidTransition),
		errors.Is(err, interview.ErrNoUsableInput),
		errors.Is(err, interview.ErrNoMoreQuestions),
		errors.Is(err, audio.ErrUnsupportedFormat):
		status = fiber.StatusBadRequest
	}
	if status == fiber.StatusInternalServerError {
		logger.WithError(err).Error(message)
		return ctx.Status(status).JSON(apimodels.NewError(message))
	}
	logger.WithError(err).Warn(message)
	return ctx.Status(status).JSON(apimodels.NewError(err.Error()))
}
