package service

import (
	"context"
	"encoding/json"
	"fmt"
	"resume_optimizer_backend/internal/config"
	"resume_optimizer_backend/internal/model"
	"resume_optimizer_backend/internal/repository"
	"resume_optimizer_backend/internal/util"
	"resume_optimizer_backend/pkg/logger"
	"strings"

	"go.uber.org/zap"
)

// 代码产出入库的截断长度
const maxCodeOutputLen = 10000

// ProjectService 技能 -> 项目点子 -> 周计划 -> 分步代码的生成链路。
// 与挑战合成共用同一套"清洗+校验+兜底"模式，只是 prompt 和
// 输出结构不同；代码生成是自由文本，只做围栏清洗不做结构校验。
type ProjectService struct {
	stepRepo     *repository.ProjectStepRepository
	activityRepo *repository.ActivityRepository
	oracle       Oracle
	cfg          *config.Config
}

func NewProjectService(
	oracle Oracle,
	stepRepo *repository.ProjectStepRepository,
	activityRepo *repository.ActivityRepository,
	cfg *config.Config,
) *ProjectService {
	return &ProjectService{
		stepRepo:     stepRepo,
		activityRepo: activityRepo,
		oracle:       oracle,
		cfg:          cfg,
	}
}

// GenerateIdeas 基于技能表生成项目点子。模型输出不可用时
// 退回按技能模板化的确定性点子，永不失败。
func (s *ProjectService) GenerateIdeas(ctx context.Context, skills []string) []model.ProjectIdea {
	prompt := fmt.Sprintf(`Suggest 3 portfolio project ideas for a developer with these skills: %s.

Generate a JSON response ONLY, without explanations.

Required format:
[
  {"title": "Project title", "description": "One paragraph description", "technologies": ["Tech A", "Tech B"]}
]`, strings.Join(skills, ", "))

	raw, err := s.oracle.Generate(ctx, "ideas", prompt)
	if err != nil {
		logger.Log.Warn("project idea generation failed, using fallback", zap.Error(err))
		return fallbackIdeas(skills)
	}

	payload := util.ExtractJSONPayload(raw)
	if payload == "" {
		return fallbackIdeas(skills)
	}

	var ideas []model.ProjectIdea
	if err := json.Unmarshal([]byte(payload), &ideas); err != nil {
		logger.Log.Warn("project idea output failed validation", zap.Error(err))
		return fallbackIdeas(skills)
	}

	out := make([]model.ProjectIdea, 0, len(ideas))
	for _, idea := range ideas {
		if strings.TrimSpace(idea.Title) == "" {
			continue
		}
		out = append(out, idea)
	}
	if len(out) == 0 {
		return fallbackIdeas(skills)
	}
	return out
}

func fallbackIdeas(skills []string) []model.ProjectIdea {
	primary := "your strongest skill"
	if len(skills) > 0 {
		primary = skills[0]
	}
	return []model.ProjectIdea{
		{
			Title:        fmt.Sprintf("Personal Portfolio with %s", primary),
			Description:  fmt.Sprintf("Build and deploy a portfolio site that showcases %s through small interactive demos.", primary),
			Technologies: skills,
		},
		{
			Title:        "Task Tracker API",
			Description:  "A CRUD API with authentication, persistence and tests, sized so it can be finished in a few weekends.",
			Technologies: skills,
		},
	}
}

// GenerateWeeklyPlan 为选定项目生成周计划。week 必须为正整数，
// 非法条目丢弃；全部非法时退回确定性四周计划。
func (s *ProjectService) GenerateWeeklyPlan(ctx context.Context, title, description string, skills []string) []model.PlanStep {
	prompt := fmt.Sprintf(`Create a weekly build plan for this project.

Project: %s
Description: %s
Developer skills: %s

Generate a JSON response ONLY, without explanations.

Required format:
[
  {"week": 1, "task": "What to build in week 1"},
  {"week": 2, "task": "What to build in week 2"}
]`, title, description, strings.Join(skills, ", "))

	raw, err := s.oracle.Generate(ctx, "plan", prompt)
	if err != nil {
		logger.Log.Warn("plan generation failed, using fallback",
			zap.String("project", title), zap.Error(err))
		return fallbackPlan(title)
	}

	payload := util.ExtractJSONPayload(raw)
	if payload == "" {
		return fallbackPlan(title)
	}

	var plan []model.PlanStep
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		logger.Log.Warn("plan output failed validation",
			zap.String("project", title), zap.Error(err))
		return fallbackPlan(title)
	}

	out := make([]model.PlanStep, 0, len(plan))
	for _, step := range plan {
		if step.Week <= 0 || strings.TrimSpace(step.Task) == "" {
			continue
		}
		out = append(out, step)
	}
	if len(out) == 0 {
		return fallbackPlan(title)
	}
	return out
}

func fallbackPlan(title string) []model.PlanStep {
	return []model.PlanStep{
		{Week: 1, Task: fmt.Sprintf("Set up the repository and scaffolding for %s.", title)},
		{Week: 2, Task: "Implement the core feature end to end."},
		{Week: 3, Task: "Add persistence and error handling."},
		{Week: 4, Task: "Write tests, polish and deploy."},
	}
}

// GenerateStepCode 为一周的任务生成代码与讲解。自由文本输出，
// 只清洗代码围栏，不做结构校验；失败时返回确定性的提示文本。
func (s *ProjectService) GenerateStepCode(ctx context.Context, title, stepDescription string, skills []string) (code, explanation string) {
	prompt := fmt.Sprintf(`Project: %s
This week's task: %s
Developer skills: %s

Write the code for this task in a single fenced code block, followed by a short explanation of how it works.`,
		title, stepDescription, strings.Join(skills, ", "))

	raw, err := s.oracle.Generate(ctx, "code", prompt)
	if err != nil {
		logger.Log.Warn("code generation failed, using fallback",
			zap.String("project", title), zap.Error(err))
		return "", fallbackCodeExplanation()
	}

	code, explanation = splitCodeAndExplanation(raw)
	if len(code) > maxCodeOutputLen {
		code = code[:maxCodeOutputLen]
	}
	return code, explanation
}

func fallbackCodeExplanation() string {
	return "The code generation service is currently unavailable. General tips: " +
		"break the task into small functions, write one test per behavior, " +
		"and commit after each working increment."
}

// splitCodeAndExplanation 取第一个代码围栏里的内容作为代码，
// 围栏之后的文本作为讲解；没有围栏时整段算代码
func splitCodeAndExplanation(raw string) (string, string) {
	raw = strings.TrimSpace(raw)
	start := strings.Index(raw, "```")
	if start == -1 {
		return raw, ""
	}

	rest := raw[start+3:]
	// 跳过围栏行上的语言标记
	if nl := strings.Index(rest, "\n"); nl != -1 {
		rest = rest[nl+1:]
	}

	end := strings.Index(rest, "```")
	if end == -1 {
		return strings.TrimSpace(rest), ""
	}

	code := strings.TrimSpace(rest[:end])
	explanation := strings.TrimSpace(rest[end+3:])
	return code, explanation
}

// BuildSteps 将周计划逐条幂等入库，返回实际新建数量
func (s *ProjectService) BuildSteps(userID uint, title string, plan []model.PlanStep) (int, error) {
	createdCount := 0
	for _, p := range plan {
		step := &model.ProjectStep{
			UserID:          userID,
			ProjectTitle:    title,
			Week:            p.Week,
			StepDescription: p.Task,
			Status:          model.StepPending,
		}
		_, created, err := s.stepRepo.Upsert(step)
		if err != nil {
			return createdCount, err
		}
		if created {
			createdCount++
		}
	}

	if createdCount > 0 && s.activityRepo != nil {
		s.activityRepo.Log(userID, model.ActivityProjectStart,
			"Project started", fmt.Sprintf("%s: %d steps planned", title, createdCount))
	}
	return createdCount, nil
}

// SaveStepCode 为某一周的步骤生成并保存代码，(user, title, week) 幂等
func (s *ProjectService) SaveStepCode(ctx context.Context, userID uint, title string, week int, stepDescription string, skills []string) (*model.ProjectStep, error) {
	code, explanation := s.GenerateStepCode(ctx, title, stepDescription, skills)

	step := &model.ProjectStep{
		UserID:          userID,
		ProjectTitle:    title,
		Week:            week,
		StepDescription: stepDescription,
		CodeOutput:      code,
		CodeExplanation: explanation,
		Status:          model.StepPending,
	}
	result, _, err := s.stepRepo.Upsert(step)
	return result, err
}

// RegenerateStepCode 重新生成已有步骤的代码，状态回到 PENDING
func (s *ProjectService) RegenerateStepCode(ctx context.Context, userID, stepID uint, skills []string) (*model.ProjectStep, error) {
	step, err := s.stepRepo.FindByIDAndUser(stepID, userID)
	if err != nil {
		return nil, util.ErrStepNotFound
	}

	code, explanation := s.GenerateStepCode(ctx, step.ProjectTitle, step.StepDescription, skills)
	if code != "" {
		step.CodeOutput = code
		step.CodeExplanation = explanation
		step.Status = model.StepPending
		if err := s.stepRepo.Update(step); err != nil {
			return nil, err
		}
		if s.activityRepo != nil {
			s.activityRepo.Log(userID, model.ActivityProjectUpdate,
				"Step code regenerated",
				fmt.Sprintf("%s week %d", step.ProjectTitle, step.Week))
		}
	}
	return step, nil
}

func (s *ProjectService) MarkStepStatus(userID, stepID uint, status model.StepStatus) error {
	step, err := s.stepRepo.FindByIDAndUser(stepID, userID)
	if err != nil {
		return util.ErrStepNotFound
	}
	return s.stepRepo.UpdateStatus(step.ID, status)
}

func (s *ProjectService) Timeline(userID uint) ([]model.ProjectStep, error) {
	return s.stepRepo.FindByUser(userID)
}
