package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

type ChallengeStatus string

const (
	ChallengePending ChallengeStatus = "PENDING"
	ChallengePassed  ChallengeStatus = "PASSED"
	ChallengeFailed  ChallengeStatus = "FAILED"
)

// Challenge 针对某个缺口技能生成的练习挑战。
// 去重口径：(user_id, skill_id, description_hash) 唯一，描述先归一化再哈希。
// 创建后只有判分可以改 status，题目内容不会被重新生成覆盖。
type Challenge struct {
	BaseModel
	UserID          uint            `gorm:"index;not null;uniqueIndex:uniq_user_skill_desc" json:"userId"`
	SkillID         uint            `gorm:"not null;uniqueIndex:uniq_user_skill_desc" json:"skillId"`
	Skill           Skill           `gorm:"foreignKey:SkillID" json:"skill"`
	Description     string          `gorm:"type:text;not null" json:"description"`
	DescriptionHash string          `gorm:"size:64;not null;uniqueIndex:uniq_user_skill_desc" json:"-"`
	Reason          string          `gorm:"type:text" json:"reason"`
	Questions       json.RawMessage `gorm:"type:json" json:"questions"` // QuestionSet
	Status          ChallengeStatus `gorm:"size:20;default:'PENDING'" json:"status"`
}

func (Challenge) TableName() string {
	return "challenges"
}

// NormalizeDescription 去重前的描述归一化：压缩空白
func NormalizeDescription(desc string) string {
	return strings.Join(strings.Fields(desc), " ")
}

// HashDescription 归一化描述的 sha256，MySQL 的 text 列不能直接做唯一索引
func HashDescription(desc string) string {
	sum := sha256.Sum256([]byte(NormalizeDescription(desc)))
	return hex.EncodeToString(sum[:])
}
