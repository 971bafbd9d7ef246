package filestorage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ai-interviewer-backend/config"
)

// Архив нормализованных аудиоответов в S3. Живет отдельно от состояния
// сессии: в jsonb байты аудио не попадают никогда

type Provider interface {
	UploadAnswerAudio(ctx context.Context, interviewID, sessionToken string, questionID int, data []byte) error
	GetAnswerAudio(ctx context.Context, interviewID, sessionToken string, questionID int) ([]byte, error)
}

var Instance Provider

func NewHandler(ctx context.Context) error {
	cfg := config.Conf.S3
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: *cfg.UseSSL,
	})
	if err != nil {
		return errors.Wrap(err, "ошибка создания S3 клиента")
	}
	i := &impl{
		s3client: client,
		bucket:   cfg.BucketName,
	}
	if err = i.ensureBucket(ctx); err != nil {
		return err
	}
	Instance = i
	log.Infof("S3 хранилище аудио инициализировано, бакет: %v", cfg.BucketName)
	return nil
}

type impl struct {
	s3client *minio.Client
	bucket   string
}

func (i impl) ensureBucket(ctx context.Context) error {
	exists, err := i.s3client.BucketExists(ctx, i.bucket)
	if err != nil {
		return errors.Wrap(err, "ошибка проверки бакета")
	}
	if exists {
		return nil
	}
	err = i.s3client.MakeBucket(ctx, i.bucket, minio.MakeBucketOptions{})
	if err != nil {
		return errors.Wrap(err, "ошибка создания бакета")
	}
	return nil
}

func (i impl) UploadAnswerAudio(ctx context.Context, interviewID, sessionToken string, questionID int, data []byte) error {
	objectName := answerObjectName(interviewID, sessionToken, questionID)
	_, err := i.s3client.PutObject(ctx, i.bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "audio/wav"})
	if err != nil {
		return errors.Wrapf(err, "ошибка выгрузки аудио %v в S3", objectName)
	}
	return nil
}

func (i impl) GetAnswerAudio(ctx context.Context, interviewID, sessionToken string, questionID int) ([]byte, error) {
	objectName := answerObjectName(interviewID, sessionToken, questionID)
	object, err := i.s3client.GetObject(ctx, i.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "ошибка получения аудио %v из S3", objectName)
	}
	defer object.Close()
	data, err := io.ReadAll(object)
	if err != nil {
		return nil, errors.Wrapf(err, "ошибка чтения аудио %v из S3", objectName)
	}
	return data, nil
}

func answerObjectName(interviewID, sessionToken string, questionID int) string {
	return fmt.Sprintf("%s/%s/answer_%03d.wav", interviewID, sessionToken, questionID)
}
