package repository

import (
	"encoding/json"
	"resume_optimizer_backend/internal/model"

	"gorm.io/gorm"
)

type ChallengeRepository struct {
	DB *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{DB: db}
}

// Upsert 幂等创建：(user, skill, 归一化描述) 已有记录时原样返回，
// 不覆盖已存在挑战的题目和状态。created 表示本次是否真的新建。
// 事务内先查后插，插入撞上唯一索引时回查并按已存在处理，
// 避免并发请求双双通过查重后重复入库。
func (r *ChallengeRepository) Upsert(userID, skillID uint, description, reason string, questions json.RawMessage) (*model.Challenge, bool, error) {
	hash := model.HashDescription(description)

	var result *model.Challenge
	created := false

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.Challenge
		err := tx.Where("user_id = ? AND skill_id = ? AND description_hash = ?",
			userID, skillID, hash).First(&existing).Error
		if err == nil {
			result = &existing
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		challenge := model.Challenge{
			UserID:          userID,
			SkillID:         skillID,
			Description:     model.NormalizeDescription(description),
			DescriptionHash: hash,
			Reason:          reason,
			Questions:       questions,
			Status:          model.ChallengePending,
		}
		if err := tx.Create(&challenge).Error; err != nil {
			if isUniqueViolation(err) {
				var race model.Challenge
				if ferr := tx.Where("user_id = ? AND skill_id = ? AND description_hash = ?",
					userID, skillID, hash).First(&race).Error; ferr == nil {
					result = &race
					return nil
				}
			}
			return err
		}
		result = &challenge
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

func (r *ChallengeRepository) FindByUser(userID uint) ([]model.Challenge, error) {
	var challenges []model.Challenge
	err := r.DB.Preload("Skill").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&challenges).Error
	return challenges, err
}

func (r *ChallengeRepository) FindByIDAndUser(id, userID uint) (*model.Challenge, error) {
	var challenge model.Challenge
	err := r.DB.Preload("Skill").
		Where("id = ? AND user_id = ?", id, userID).
		First(&challenge).Error
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

// UpdateStatus 判分是创建之后唯一允许的状态变更
func (r *ChallengeRepository) UpdateStatus(id uint, status model.ChallengeStatus) error {
	return r.DB.Model(&model.Challenge{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}

func (r *ChallengeRepository) CountByUserAndStatus(userID uint, status model.ChallengeStatus) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Challenge{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&count).Error
	return count, err
}
