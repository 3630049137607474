package model

type StepStatus string

const (
	StepPending StepStatus = "PENDING"
	StepDone    StepStatus = "DONE"
	StepFailed  StepStatus = "FAILED"
)

// ProjectStep 项目周计划中的一步，(user_id, project_title, week) 幂等键。
// week 为正整数，项目内单调递增但允许跳号。
type ProjectStep struct {
	BaseModel
	UserID          uint       `gorm:"index;not null;uniqueIndex:uniq_user_project_week" json:"userId"`
	ProjectTitle    string     `gorm:"size:200;not null;uniqueIndex:uniq_user_project_week" json:"projectTitle"`
	Week            int        `gorm:"not null;uniqueIndex:uniq_user_project_week" json:"week"`
	StepDescription string     `gorm:"type:text" json:"stepDescription"`
	CodeOutput      string     `gorm:"type:text" json:"codeOutput"`
	CodeExplanation string     `gorm:"type:text" json:"codeExplanation"`
	Status          StepStatus `gorm:"size:10;default:'PENDING'" json:"status"`
}

func (ProjectStep) TableName() string {
	return "project_steps"
}

// ProjectIdea 模型生成的项目点子，仅在会话内流转，不单独落库
type ProjectIdea struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
}

// PlanStep 周计划中的一条任务，落库前的临时形态
type PlanStep struct {
	Week int    `json:"week"`
	Task string `json:"task"`
}
