package interviewstore

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	dbmodels "ai-interviewer-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.Interview) (id string, err error)
	GetByID(id string) (rec *dbmodels.Interview, err error)
	List() (list []dbmodels.Interview, err error)
	SetStarted(id string) error
	SetCompleted(id string, score float64) error
	SetScore(id string, score float64) error
	SetStatus(id string, status dbmodels.InterviewStatus) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.Interview) (string, error) {
	err := i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.Interview, error) {
	rec := dbmodels.Interview{}
	err := i.db.
		Where("id = ?", id).
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

func (i impl) List() (list []dbmodels.Interview, err error) {
	list = []dbmodels.Interview{}
	err = i.db.
		Model(dbmodels.Interview{}).
		Order("created_at desc").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) SetStarted(id string) error {
	updMap := map[string]interface{}{
		"status":     dbmodels.InterviewStatusInProgress,
		"started_at": time.Now(),
	}
	return i.updateByID(id, updMap)
}

func (i impl) SetCompleted(id string, score float64) error {
	updMap := map[string]interface{}{
		"status":       dbmodels.InterviewStatusCompleted,
		"score":        score,
		"completed_at": time.Now(),
	}
	return i.updateByID(id, updMap)
}

func (i impl) SetScore(id string, score float64) error {
	updMap := map[string]interface{}{
		"score": score,
	}
	return i.updateByID(id, updMap)
}

func (i impl) SetStatus(id string, status dbmodels.InterviewStatus) error {
	updMap := map[string]interface{}{
		"status": status,
	}
	return i.updateByID(id, updMap)
}

func (i impl) updateByID(id string, updMap map[string]interface{}) error {
	err := i.db.
		Model(&dbmodels.Interview{}).
		Where("id = ?", id).
		Updates(updMap).
		Error
	if err != nil {
		return err
	}
	return nil
}
