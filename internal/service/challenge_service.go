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

	"go.uber.org/zap"
)

// ChallengeService 挑战合成与判分。
// 合成的全部价值在于把"大概率是 JSON、偶尔是垃圾"的模型输出
// 变成"永远合法"的题目集：任何失败都转成确定性的兜底内容，
// 不向上抛模型/网络异常。
type ChallengeService struct {
	oracle        Oracle
	challengeRepo *repository.ChallengeRepository
	skillRepo     *repository.SkillRepository
	activityRepo  *repository.ActivityRepository
	cfg           *config.Config
}

func NewChallengeService(
	oracle Oracle,
	challengeRepo *repository.ChallengeRepository,
	skillRepo *repository.SkillRepository,
	activityRepo *repository.ActivityRepository,
	cfg *config.Config,
) *ChallengeService {
	return &ChallengeService{
		oracle:        oracle,
		challengeRepo: challengeRepo,
		skillRepo:     skillRepo,
		activityRepo:  activityRepo,
		cfg:           cfg,
	}
}

// 模型输出的期望结构；字段缺失或越界的题目会被丢弃
type challengeWire struct {
	MCQ []struct {
		Question string   `json:"question"`
		Options  []string `json:"options"`
		Answer   string   `json:"answer"`
	} `json:"mcq"`
	FillInBlanks []struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	} `json:"fill_in_blanks"`
}

// Synthesize 为一个缺口技能合成题目集。保证返回非空且通过
// QuestionSet 校验的内容，永不返回错误。
func (s *ChallengeService) Synthesize(ctx context.Context, finding GapFinding) *model.QuestionSet {
	prompt := fmt.Sprintf(`The user listed "%s" in their resume but has not demonstrated it in projects or work experience.
Reason: %s

Generate a JSON response ONLY, without explanations.

Required format:
{
  "mcq": [
    {
      "question": "MCQ question about %s",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "answer": "Correct option text (must exactly match one of the options)"
    }
  ],
  "fill_in_blanks": [
    {
      "question": "Statement about %s with a blank: ____",
      "answer": "exact answer"
    }
  ]
}`, finding.Skill, finding.Reason, finding.Skill, finding.Skill)

	raw, err := s.oracle.Generate(ctx, "challenge", prompt)
	if err != nil {
		logger.Log.Warn("challenge synthesis: oracle call failed, using fallback",
			zap.String("skill", finding.Skill), zap.Error(err))
		return FallbackQuestionSet(finding.Skill)
	}

	set, err := s.parseQuestionSet(raw, finding.Skill)
	if err != nil {
		logger.Log.Warn("challenge synthesis: rejecting model output, using fallback",
			zap.String("skill", finding.Skill), zap.Error(err))
		return FallbackQuestionSet(finding.Skill)
	}
	return set
}

// parseQuestionSet 清洗、解析并逐题校验，全军覆没时返回 ErrSchemaValidation
func (s *ChallengeService) parseQuestionSet(raw, skill string) (*model.QuestionSet, error) {
	payload := util.ExtractJSONPayload(raw)
	if payload == "" {
		return nil, fmt.Errorf("%w: no JSON payload in model output", util.ErrSchemaValidation)
	}

	var wire challengeWire
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrSchemaValidation, err)
	}

	set := &model.QuestionSet{}
	for _, m := range wire.MCQ {
		item := model.QuestionItem{
			Type:     model.QuestionMCQ,
			Question: m.Question,
			Options:  m.Options,
			Answer:   m.Answer,
		}
		if err := item.Validate(); err != nil {
			logger.Log.Warn("challenge synthesis: dropping invalid mcq",
				zap.String("skill", skill), zap.Error(err))
			continue
		}
		set.Items = append(set.Items, item)
	}
	for _, f := range wire.FillInBlanks {
		item := model.QuestionItem{
			Type:     model.QuestionFillBlank,
			Question: f.Question,
			Answer:   f.Answer,
		}
		if err := item.Validate(); err != nil {
			logger.Log.Warn("challenge synthesis: dropping invalid fill-blank",
				zap.String("skill", skill), zap.Error(err))
			continue
		}
		set.Items = append(set.Items, item)
	}

	if len(set.Items) == 0 {
		return nil, fmt.Errorf("%w: no valid questions in model output", util.ErrSchemaValidation)
	}
	return set, nil
}

// FallbackQuestionSet 确定性的兜底题目集，按技能名模板化生成
func FallbackQuestionSet(skill string) *model.QuestionSet {
	return &model.QuestionSet{
		Items: []model.QuestionItem{
			{
				Type:     model.QuestionMCQ,
				Question: fmt.Sprintf("What matters most when working with %s?", skill),
				Options: []string{
					"Understanding the fundamentals",
					"Regular hands-on practice",
					"Reading real-world code",
					"All of the above",
				},
				Answer: "All of the above",
			},
			{
				Type:     model.QuestionMCQ,
				Question: fmt.Sprintf("What is the best way to demonstrate %s on a resume?", skill),
				Options: []string{
					"Listing it without context",
					"A project or work experience that uses it",
				},
				Answer: "A project or work experience that uses it",
			},
			{
				Type:     model.QuestionFillBlank,
				Question: "The skill this challenge is helping you practice is ____.",
				Answer:   skill,
			},
		},
	}
}

// Persist 为一个合成结果做幂等入库。重复记录原样返回，created=false。
func (s *ChallengeService) Persist(userID uint, finding GapFinding, set *model.QuestionSet) (*model.Challenge, bool, error) {
	skill, err := s.skillRepo.GetOrCreate(finding.Skill)
	if err != nil {
		return nil, false, err
	}

	description := fmt.Sprintf("Create a project demonstrating your %s skills. Reason: %s", skill.Name, finding.Reason)

	raw, err := set.Marshal()
	if err != nil {
		return nil, false, err
	}

	return s.challengeRepo.Upsert(userID, skill.ID, description, finding.Reason, raw)
}

func (s *ChallengeService) List(userID uint) ([]model.Challenge, error) {
	return s.challengeRepo.FindByUser(userID)
}

func (s *ChallengeService) Get(id, userID uint) (*model.Challenge, error) {
	challenge, err := s.challengeRepo.FindByIDAndUser(id, userID)
	if err != nil {
		return nil, util.ErrChallengeNotFound
	}
	return challenge, nil
}

// GradeResult 一次判分的结果
type GradeResult struct {
	Status     model.ChallengeStatus `json:"status"`
	Score      int                   `json:"score"`
	Total      int                   `json:"total"`
	Percentage float64               `json:"percentage"`
}

// Grade 判分：按题目下标取提交答案，与存储的正确答案做
// 区分大小写的精确匹配。通过线取配置的百分比；零题挑战
// 得分率按 0 处理，判 FAILED。
// 判分是创建后唯一允许的状态变更。
func (s *ChallengeService) Grade(userID, challengeID uint, answers map[int]string) (*GradeResult, error) {
	challenge, err := s.challengeRepo.FindByIDAndUser(challengeID, userID)
	if err != nil {
		return nil, util.ErrChallengeNotFound
	}

	set, err := model.UnmarshalQuestionSet(challenge.Questions)
	if err != nil {
		return nil, fmt.Errorf("stored question set is unreadable: %w", err)
	}

	score := 0
	for i, item := range set.Items {
		if submitted, ok := answers[i]; ok && submitted == item.Answer {
			score++
		}
	}

	percentage := 0.0
	if len(set.Items) > 0 {
		percentage = float64(score) / float64(len(set.Items)) * 100
	}

	status := model.ChallengeFailed
	if percentage >= float64(s.cfg.Pipeline.PassThresholdPercent) {
		status = model.ChallengePassed
	}

	if err := s.challengeRepo.UpdateStatus(challenge.ID, status); err != nil {
		return nil, err
	}

	if status == model.ChallengePassed && s.activityRepo != nil {
		s.activityRepo.Log(userID, model.ActivityChallengeComplete,
			"Challenge completed",
			fmt.Sprintf("Skill: %s, Score: %d/%d", challenge.Skill.Name, score, len(set.Items)))
	}

	return &GradeResult{
		Status:     status,
		Score:      score,
		Total:      len(set.Items),
		Percentage: percentage,
	}, nil
}
