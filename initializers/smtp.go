package initializers

import (
	log "github.com/sirupsen/logrus"

	"ai-interviewer-backend/config"
	"ai-interviewer-backend/lib/smtp"
)

func InitSmtp() {
	if config.Conf.Smtp.Host == "" {
		log.Info("SMTP не настроен, отчеты по почте отправляться не будут")
		return
	}
	err := smtp.Connect(config.Conf.Smtp.User, config.Conf.Smtp.Password,
		config.Conf.Smtp.Host, config.Conf.Smtp.Port, *config.Conf.Smtp.TLSEnabled)
	if err != nil {
		panic(err.Error())
	}
}
