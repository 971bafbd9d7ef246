package sessionstore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	dbmodels "ai-interviewer-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.InterviewSession) (id string, err error)
	GetByToken(token string) (rec *dbmodels.InterviewSession, err error)
	GetActiveByInterviewID(interviewID string) (rec *dbmodels.InterviewSession, err error)
	GetLatestByInterviewID(interviewID string) (rec *dbmodels.InterviewSession, err error)
	GetActive() (list []dbmodels.InterviewSession, err error)
	GetWithUnevaluated() (list []dbmodels.InterviewSession, err error)
	Save(rec dbmodels.InterviewSession) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.InterviewSession) (string, error) {
	err := i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByToken(token string) (*dbmodels.InterviewSession, error) {
	rec := dbmodels.InterviewSession{}
	err := i.db.
		Where("session_token = ?", token).
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) GetActiveByInterviewID(interviewID string) (*dbmodels.InterviewSession, error) {
	rec := dbmodels.InterviewSession{}
	err := i.db.
		Where("interview_id = ?", interviewID).
		Where("is_active = true").
		Order("created_at desc").
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) GetLatestByInterviewID(interviewID string) (*dbmodels.InterviewSession, error) {
	rec := dbmodels.InterviewSession{}
	err := i.db.
		Where("interview_id = ?", interviewID).
		Order("created_at desc").
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) GetActive() (list []dbmodels.InterviewSession, err error) {
	list = []dbmodels.InterviewSession{}
	err = i.db.
		Model(dbmodels.InterviewSession{}).
		Where("is_active = true").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) GetWithUnevaluated() (list []dbmodels.InterviewSession, err error) {
	list = []dbmodels.InterviewSession{}
	err = i.db.
		Model(dbmodels.InterviewSession{}).
		Where("has_unevaluated = true").
		Where("is_active = false").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) Save(rec dbmodels.InterviewSession) error {
	err := i.db.
		Save(&rec).
		Error
	if err != nil {
		return err
	}
	return nil
}
