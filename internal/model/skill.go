package model

import "strings"

// Skill 全局共享的技能词条，名称大小写不敏感，入库统一为 Title Case。
// 首次被引用时创建，本流水线从不删除。
type Skill struct {
	BaseModel
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
}

func (Skill) TableName() string {
	return "skills"
}

// CanonicalSkillName 技能名的规范形式（Title Case），作为唯一性口径
func CanonicalSkillName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	words := strings.Fields(name)
	for i, w := range words {
		r := []rune(w)
		head := strings.ToUpper(string(r[0]))
		tail := ""
		if len(r) > 1 {
			tail = strings.ToLower(string(r[1:]))
		}
		words[i] = head + tail
	}
	return strings.Join(words, " ")
}
