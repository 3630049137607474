package repository

import (
	"resume_optimizer_backend/internal/model"

	"gorm.io/gorm"
)

type ProjectStepRepository struct {
	DB *gorm.DB
}

func NewProjectStepRepository(db *gorm.DB) *ProjectStepRepository {
	return &ProjectStepRepository{DB: db}
}

// Upsert (user, project_title, week) 幂等。已存在时仅补全生成内容
// （描述/代码为空才写入），不动状态。
func (r *ProjectStepRepository) Upsert(step *model.ProjectStep) (*model.ProjectStep, bool, error) {
	var result *model.ProjectStep
	created := false

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.ProjectStep
		err := tx.Where("user_id = ? AND project_title = ? AND week = ?",
			step.UserID, step.ProjectTitle, step.Week).First(&existing).Error
		if err == nil {
			changed := false
			if existing.StepDescription == "" && step.StepDescription != "" {
				existing.StepDescription = step.StepDescription
				changed = true
			}
			if existing.CodeOutput == "" && step.CodeOutput != "" {
				existing.CodeOutput = step.CodeOutput
				existing.CodeExplanation = step.CodeExplanation
				changed = true
			}
			if changed {
				if err := tx.Save(&existing).Error; err != nil {
					return err
				}
			}
			result = &existing
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		if err := tx.Create(step).Error; err != nil {
			if isUniqueViolation(err) {
				var race model.ProjectStep
				if ferr := tx.Where("user_id = ? AND project_title = ? AND week = ?",
					step.UserID, step.ProjectTitle, step.Week).First(&race).Error; ferr == nil {
					result = &race
					return nil
				}
			}
			return err
		}
		result = step
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

func (r *ProjectStepRepository) FindByUser(userID uint) ([]model.ProjectStep, error) {
	var steps []model.ProjectStep
	err := r.DB.Where("user_id = ?", userID).
		Order("project_title ASC, week ASC").
		Find(&steps).Error
	return steps, err
}

func (r *ProjectStepRepository) FindByIDAndUser(id, userID uint) (*model.ProjectStep, error) {
	var step model.ProjectStep
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&step).Error
	if err != nil {
		return nil, err
	}
	return &step, nil
}

func (r *ProjectStepRepository) Update(step *model.ProjectStep) error {
	return r.DB.Save(step).Error
}

func (r *ProjectStepRepository) UpdateStatus(id uint, status model.StepStatus) error {
	return r.DB.Model(&model.ProjectStep{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}

func (r *ProjectStepRepository) CountActiveProjects(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ProjectStep{}).
		Where("user_id = ? AND status = ?", userID, model.StepPending).
		Distinct("project_title").
		Count(&count).Error
	return count, err
}

func (r *ProjectStepRepository) CountStepsMentioning(userID uint, keyword string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ProjectStep{}).
		Where("user_id = ? AND step_description LIKE ?", userID, "%"+keyword+"%").
		Count(&count).Error
	return count, err
}
