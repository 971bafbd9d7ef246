package config

import (
	"github.com/gotify/configor"
)

var Conf *Configuration

type Configuration struct {
	App struct {
		ListenAddr  string `default:"" env:"APP_HOST"`
		Port        int    `default:"8080"  env:"APP_PORT"`
		MetricsPort int    `default:"9090" env:"APP_METRICS_PORT"`
	}
	Database struct {
		Host           string `default:"127.0.0.1" env:"DB_HOST"`
		Port           string `default:"5432" env:"DB_PORT"`
		Name           string `default:"ai-interviewer" env:"DB_NAME"`
		User           string `default:"postgres" env:"DB_USER"`
		Password       string `default:"postgres" env:"DB_PASSWORD"`
		MigrateOnStart *bool  `default:"true" env:"DB_MIGRATE_ON_START"`
		DebugMode      *bool  `default:"false" env:"DB_DEBUG_MODE"`
	}
	S3 struct {
		Endpoint   string `default:"127.0.0.1:9000" env:"S3_ENDPOINT"`
		AccessKey  string `default:"" env:"S3_ACCESS_KEY"`
		SecretKey  string `default:"" env:"S3_SECRET_KEY"`
		UseSSL     *bool  `default:"false" env:"S3_USE_SSL"`
		BucketName string `default:"interview-audio" env:"S3_BUCKET_NAME"`
	}
	Smtp struct {
		User       string `default:"" env:"SMTP_USER"`
		Password   string `default:"" env:"SMTP_PASSWORD"`
		Host       string `default:"" env:"SMTP_HOST"`
		Port       string `default:"" env:"SMTP_PORT"`
		TLSEnabled *bool  `default:"true" env:"SMTP_TLS_ENABLED"`
	}
	Kafka struct {
		Enabled *bool  `default:"false" env:"KAFKA_ENABLED"`
		Brokers string `default:"127.0.0.1:9092" env:"KAFKA_BROKERS"`
		Topic   string `default:"interview-events" env:"KAFKA_TOPIC"`
	}
	YandexGPT struct {
		IAMToken  string `default:"" env:"YANDEX_GPT_IAM_TOKEN"`
		CatalogID string `default:"" env:"YANDEX_GPT_CATALOG_ID"`
	}
	STT struct {
		Provider     string `default:"mock" env:"STT_PROVIDER"` // mock/google
		LanguageCode string `default:"ru-RU" env:"STT_LANGUAGE_CODE"`
		TimeoutSec   int    `default:"30" env:"STT_TIMEOUT_SEC"`
	}
	TTS struct {
		Enabled      *bool  `default:"false" env:"TTS_ENABLED"`
		LanguageCode string `default:"ru-RU" env:"TTS_LANGUAGE_CODE"`
		VoiceName    string `default:"" env:"TTS_VOICE_NAME"`
	}
	Interview struct {
		DefaultQuestionCount   int    `default:"5" env:"INTERVIEW_DEFAULT_QUESTION_COUNT"`
		DefaultDurationMinutes int    `default:"60" env:"INTERVIEW_DEFAULT_DURATION_MINUTES"`
		ReportSenderEmail      string `default:"" env:"INTERVIEW_REPORT_SENDER_EMAIL"`
	}
	Audio struct {
		FfmpegPath   string `default:"ffmpeg" env:"AUDIO_FFMPEG_PATH"`
		MaxPayloadMb int    `default:"25" env:"AUDIO_MAX_PAYLOAD_MB"`
	}
}

func configFiles() []string {
	return []string{"config.yml"}
}

func InitConfig() {
	if Conf != nil {
		return
	}
	conf := new(Configuration)
	err := configor.New(&configor.Config{}).Load(conf, configFiles()...)
	if err != nil {
		panic(err)
	}
	Conf = conf
}
