package repository

import (
	"resume_optimizer_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type ActivityRepository struct {
	DB *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

func (r *ActivityRepository) Log(userID uint, typ model.ActivityType, title, details string) error {
	activity := model.Activity{
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Details:   details,
		Timestamp: time.Now(),
	}
	return r.DB.Create(&activity).Error
}

func (r *ActivityRepository) Recent(userID uint, limit int) ([]model.Activity, error) {
	var activities []model.Activity
	err := r.DB.Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&activities).Error
	return activities, err
}
