package model

import "time"

type ActivityType string

const (
	ActivityResumeUpload      ActivityType = "RESUME_UPLOAD"
	ActivityResumeUploadError ActivityType = "RESUME_UPLOAD_ERROR"
	ActivityResumeAnalysis    ActivityType = "RESUME_ANALYSIS"
	ActivityChallengesCreated ActivityType = "CHALLENGES_GENERATED"
	ActivityNoChallenges      ActivityType = "NO_CHALLENGES"
	ActivityChallengeError    ActivityType = "CHALLENGE_GENERATION_ERROR"
	ActivityChallengeComplete ActivityType = "CHALLENGE_COMPLETE"
	ActivityProjectStart      ActivityType = "PROJECT_START"
	ActivityProjectUpdate     ActivityType = "PROJECT_UPDATE"
)

// Activity 用户操作流水，用于首页动态
type Activity struct {
	BaseModel
	UserID    uint         `gorm:"index;not null" json:"userId"`
	Type      ActivityType `gorm:"size:50;not null" json:"type"`
	Title     string       `gorm:"size:100" json:"title"`
	Details   string       `gorm:"type:text" json:"details"`
	Timestamp time.Time    `gorm:"index" json:"timestamp"`
}

func (Activity) TableName() string {
	return "activities"
}
