package repository

import (
	"learning_path_backend/internal/model"

	"gorm.io/gorm"
)

type StudyDataRepository struct {
	DB *gorm.DB
}

func NewStudyDataRepository(db *gorm.DB) *StudyDataRepository {
	return &StudyDataRepository{DB: db}
}

func (r *StudyDataRepository) FindByUserAndModule(userID uint, moduleTitle string) (*model.StudyData, error) {
	var data model.StudyData
	err := r.DB.Where("user_id = ? AND module_title = ?", userID, moduleTitle).First(&data).Error
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// Upsert 按 (userId, moduleTitle) 覆盖保存
func (r *StudyDataRepository) Upsert(data *model.StudyData) error {
	var existing model.StudyData
	err := r.DB.Where("user_id = ? AND module_title = ?", data.UserID, data.ModuleTitle).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.DB.Create(data).Error
	}
	if err != nil {
		return err
	}

	data.ID = existing.ID
	data.CreatedAt = existing.CreatedAt
	return r.DB.Save(data).Error
}

func (r *StudyDataRepository) FindByUserID(userID uint) ([]model.StudyData, error) {
	var list []model.StudyData
	err := r.DB.Where("user_id = ?", userID).Find(&list).Error
	return list, err
}
