package interviewapimodels

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateInterviewRequestValidate(t *testing.T) {
	valid := CreateInterviewRequest{
		Position:      "Go разработчик",
		InterviewType: "technical",
		Difficulty:    "medium",
		QuestionCount: 5,
	}

	t.Run(`валидный запрос`, func(t *testing.T) {
		require.Nil(t, valid.Validate())
	})

	t.Run(`пустая позиция`, func(t *testing.T) {
		req := valid
		req.Position = ""
		require.NotNil(t, req.Validate())
	})

	t.Run(`неизвестный тип интервью`, func(t *testing.T) {
		req := valid
		req.InterviewType = "astrology"
		require.NotNil(t, req.Validate())
	})

	t.Run(`слишком много вопросов`, func(t *testing.T) {
		req := valid
		req.QuestionCount = 50
		require.NotNil(t, req.Validate())
	})

	t.Run(`кривая почта`, func(t *testing.T) {
		req := valid
		req.ContactEmail = "not-an-email"
		require.NotNil(t, req.Validate())
	})
}

func TestSubmitResponseRequestValidate(t *testing.T) {
	require.NotNil(t, SubmitResponseRequest{}.Validate())
	require.Nil(t, SubmitResponseRequest{Text: "ответ"}.Validate())
	require.Nil(t, SubmitResponseRequest{Audio: "UklGRg=="}.Validate())
}
