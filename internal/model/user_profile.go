package model

// UserProfile 每个用户一份，保存最近上传的简历与分析结论。
// ResumeText 在入库边界按配置截断，提取阶段不丢信息。
type UserProfile struct {
	BaseModel
	UserID     uint   `gorm:"uniqueIndex;not null" json:"userId"`
	ResumeKey  string `gorm:"size:255" json:"resumeKey"` // 存储服务中的对象键
	ResumeName string `gorm:"size:255" json:"resumeName"`
	ResumeText string `gorm:"type:mediumtext" json:"-"`
	ATSScore   int    `gorm:"default:0" json:"atsScore"`
	TopSkills  string `gorm:"size:500" json:"topSkills"` // 逗号分隔，最多5个
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
