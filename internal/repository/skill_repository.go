package repository

import (
	"resume_optimizer_backend/internal/model"
	"strings"

	"gorm.io/gorm"
)

type SkillRepository struct {
	DB *gorm.DB
}

func NewSkillRepository(db *gorm.DB) *SkillRepository {
	return &SkillRepository{DB: db}
}

// GetOrCreate 按规范名取技能词条，不存在则创建。
// 并发下唯一索引可能让插入撞车，撞车按已存在处理，回查返回。
func (r *SkillRepository) GetOrCreate(name string) (*model.Skill, error) {
	canonical := model.CanonicalSkillName(name)

	var skill model.Skill
	err := r.DB.Where("name = ?", canonical).First(&skill).Error
	if err == nil {
		return &skill, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	skill = model.Skill{Name: canonical}
	if err := r.DB.Create(&skill).Error; err != nil {
		if isUniqueViolation(err) {
			var existing model.Skill
			if ferr := r.DB.Where("name = ?", canonical).First(&existing).Error; ferr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}
	return &skill, nil
}

// ListNames 全部技能词条的规范名，按主键序，保证分析顺序可复现
func (r *SkillRepository) ListNames() ([]string, error) {
	var skills []model.Skill
	if err := r.DB.Order("id ASC").Find(&skills).Error; err != nil {
		return nil, err
	}
	names := make([]string, len(skills))
	for i, s := range skills {
		names[i] = s.Name
	}
	return names, nil
}

// isUniqueViolation MySQL 与 sqlite（测试库）的唯一键冲突判断
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
