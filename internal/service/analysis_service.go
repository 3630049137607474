package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"resume_optimizer_backend/internal/config"
	"resume_optimizer_backend/internal/util"
	"resume_optimizer_backend/pkg/logger"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Evidence 一次分析中定位到的证据，只在本轮流转，不落库
type Evidence struct {
	Skills      []string `json:"skills"`
	Projects    []string `json:"projects"`
	Experiences []string `json:"experiences"`
}

// GapFinding 一个有疑点的技能：列了但没有项目/经历佐证
type GapFinding struct {
	Skill  string `json:"skill"`
	Reason string `json:"reason"`
}

// AnalysisService 证据定位与技能缺口分析。
// 依赖的是轻量词法线索而非 NLP，漏报在预期内；误报只会
// 让某个技能少生成一个挑战，两个方向的精度都不做保证。
type AnalysisService struct {
	oracle Oracle
	cfg    *config.Config
}

func NewAnalysisService(oracle Oracle, cfg *config.Config) *AnalysisService {
	return &AnalysisService{oracle: oracle, cfg: cfg}
}

var (
	projectRe    = regexp.MustCompile(`(?i)(?:Project\s*[:\-]?\s*)(.+)`)
	builtRe      = regexp.MustCompile(`(?im)^\s*((?:Developed|Built)\b.+)$`)
	experienceRe = regexp.MustCompile(`(?i)(?:Experience\s*[:\-]?\s*)(.+)`)
	workedAtRe   = regexp.MustCompile(`(?i)(?:Worked at\s*)(.+)`)
)

// wordMatchPattern 整词不区分大小写的技能匹配模式。\b 只存在于
// 单词字符和非单词字符之间，"C++"、"C#" 这类以符号收尾的词条
// 对应一侧没有边界可用，该侧直接省略 \b。
func wordMatchPattern(skill string) string {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return ""
	}
	pattern := regexp.QuoteMeta(skill)
	first, _ := utf8.DecodeRuneInString(skill)
	last, _ := utf8.DecodeLastRuneInString(skill)
	if isWordRune(first) {
		pattern = `\b` + pattern
	}
	if isWordRune(last) {
		pattern += `\b`
	}
	return `(?i)` + pattern
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// LocateEvidence 在简历文本里找出现过的技能词条（整词、不区分大小写）
// 以及有限数量的项目/经历句子
func (s *AnalysisService) LocateEvidence(text string, vocabulary []string) Evidence {
	ev := Evidence{}

	for _, skill := range vocabulary {
		pattern := wordMatchPattern(skill)
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		if re.MatchString(text) {
			ev.Skills = append(ev.Skills, skill)
		}
	}

	maxProjects := s.cfg.Pipeline.MaxProjectSnippets
	maxExperiences := s.cfg.Pipeline.MaxExperienceSnippets

	for _, m := range projectRe.FindAllStringSubmatch(text, -1) {
		ev.Projects = append(ev.Projects, strings.TrimSpace(m[1]))
	}
	for _, m := range builtRe.FindAllStringSubmatch(text, -1) {
		ev.Projects = append(ev.Projects, strings.TrimSpace(m[1]))
	}
	if len(ev.Projects) > maxProjects {
		ev.Projects = ev.Projects[:maxProjects]
	}

	for _, m := range experienceRe.FindAllStringSubmatch(text, -1) {
		ev.Experiences = append(ev.Experiences, strings.TrimSpace(m[1]))
	}
	for _, m := range workedAtRe.FindAllStringSubmatch(text, -1) {
		ev.Experiences = append(ev.Experiences, strings.TrimSpace(m[1]))
	}
	if len(ev.Experiences) > maxExperiences {
		ev.Experiences = ev.Experiences[:maxExperiences]
	}

	return ev
}

// AnalyzeGaps 技能与证据交叉比对。技能小写形式是任一证据片段
// 小写形式的子串即视为已佐证；固定输入必得固定输出，顺序跟随
// 传入的技能顺序。最多考虑 MaxGapSkills 个技能，约束下游模型调用量。
func (s *AnalysisService) AnalyzeGaps(skills, projects, experiences []string) []GapFinding {
	maxSkills := s.cfg.Pipeline.MaxGapSkills
	if len(skills) > maxSkills {
		skills = skills[:maxSkills]
	}

	findings := make([]GapFinding, 0, len(skills))
	for _, skill := range skills {
		if isDemonstrated(skill, projects) || isDemonstrated(skill, experiences) {
			continue
		}
		findings = append(findings, GapFinding{
			Skill:  skill,
			Reason: fmt.Sprintf("%s is listed but not demonstrated through projects or work experience.", skill),
		})
	}
	return findings
}

func isDemonstrated(skill string, snippets []string) bool {
	lower := strings.ToLower(skill)
	for _, snippet := range snippets {
		if strings.Contains(strings.ToLower(snippet), lower) {
			return true
		}
	}
	return false
}

// DiscoverSkills 动态技能发现：让模型从文本里抽技能表。
// 输出解析或校验失败一律退回配置的兜底词表，缺口分析
// 不能因为技能发现挂了就整体失败。
func (s *AnalysisService) DiscoverSkills(ctx context.Context, text string) []string {
	fallback := s.cfg.Pipeline.FallbackSkills

	if s.oracle == nil {
		return fallback
	}

	prompt := fmt.Sprintf(`Extract the technical skills mentioned in the resume below.
Return ONLY a JSON array of skill name strings, nothing else.

Resume:
%s`, truncate(text, 3000))

	raw, err := s.oracle.Generate(ctx, "skills", prompt)
	if err != nil {
		logger.Log.Warn("skill discovery failed, using fallback list", zap.Error(err))
		return fallback
	}

	payload := util.ExtractJSONPayload(raw)
	if payload == "" {
		logger.Log.Warn("skill discovery returned no JSON payload, using fallback list")
		return fallback
	}

	var skills []string
	if err := json.Unmarshal([]byte(payload), &skills); err != nil {
		logger.Log.Warn("skill discovery output failed validation, using fallback list", zap.Error(err))
		return fallback
	}

	out := make([]string, 0, len(skills))
	for _, sk := range skills {
		sk = strings.TrimSpace(sk)
		if sk != "" {
			out = append(out, sk)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
