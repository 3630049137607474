package service

import (
	"context"
	"fmt"
	"regexp"
	"resume_optimizer_backend/internal/config"
	"resume_optimizer_backend/internal/model"
	"resume_optimizer_backend/internal/repository"
	"resume_optimizer_backend/pkg/logger"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// 模型不可用时的 ATS 兜底分
const fallbackATSScore = 50

// AnalysisReport 一次简历分析的汇总结果，直接回给前端
type AnalysisReport struct {
	ResumeName        string           `json:"resumeName"`
	ATSScore          int              `json:"atsScore"`
	TopSkills         []string         `json:"topSkills"`
	Skills            []string         `json:"skills"`
	Findings          []GapFinding     `json:"findings"`
	Challenges        []ChallengeBrief `json:"challenges"`
	CreatedCount      int              `json:"createdCount"`
	SynthesisFailures int              `json:"synthesisFailures"`
}

// ChallengeBrief 分析响应里的挑战摘要
type ChallengeBrief struct {
	ID          uint   `json:"id"`
	Skill       string `json:"skill"`
	Description string `json:"description"`
	Created     bool   `json:"created"`
}

// ResumeService 串起提取 -> 证据定位 -> 缺口分析 -> 挑战合成的主流程。
// 只有提取失败是致命的；之后每一步失败都降级继续，保证上传总有结果。
type ResumeService struct {
	extract      *ExtractService
	analysis     *AnalysisService
	challenges   *ChallengeService
	profileRepo  *repository.ProfileRepository
	skillRepo    *repository.SkillRepository
	activityRepo *repository.ActivityRepository
	oracle       Oracle
	cfg          *config.Config
}

func NewResumeService(
	extract *ExtractService,
	analysis *AnalysisService,
	challenges *ChallengeService,
	profileRepo *repository.ProfileRepository,
	skillRepo *repository.SkillRepository,
	activityRepo *repository.ActivityRepository,
	oracle Oracle,
	cfg *config.Config,
) *ResumeService {
	return &ResumeService{
		extract:      extract,
		analysis:     analysis,
		challenges:   challenges,
		profileRepo:  profileRepo,
		skillRepo:    skillRepo,
		activityRepo: activityRepo,
		oracle:       oracle,
		cfg:          cfg,
	}
}

// AnalyzeAndSynthesize 上传后的完整流水线。resumeKey 为已写入存储的对象键。
func (s *ResumeService) AnalyzeAndSynthesize(ctx context.Context, userID uint, filename, resumeKey string, data []byte) (*AnalysisReport, error) {
	report := &AnalysisReport{ResumeName: filename}

	// 1. 文本提取，唯一的致命失败
	text, err := s.extract.ExtractText(filename, data)
	if err != nil {
		s.activityRepo.Log(userID, model.ActivityResumeUploadError,
			"Resume upload failed", fmt.Sprintf("%s: %v", filename, err))
		return nil, err
	}
	s.activityRepo.Log(userID, model.ActivityResumeUpload, "Resume uploaded", filename)

	// 2. 简历文本落档案，入库边界截断
	profile, err := s.profileRepo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}
	profile.ResumeKey = resumeKey
	profile.ResumeName = filename
	profile.ResumeText = truncate(text, s.cfg.Pipeline.ResumeTextLimit)

	// 3. ATS 评分，可恢复失败
	atsScore, topSkills := s.scoreATS(ctx, text)
	profile.ATSScore = atsScore
	profile.TopSkills = strings.Join(topSkills, ",")
	if err := s.profileRepo.Update(profile); err != nil {
		return nil, err
	}
	report.ATSScore = atsScore
	report.TopSkills = topSkills

	// 4. 技能词表：优先模型发现，失败退回种子词表
	vocabulary := s.analysis.DiscoverSkills(ctx, text)
	if seeded, err := s.skillRepo.ListNames(); err == nil && len(seeded) > 0 {
		vocabulary = mergeVocabulary(seeded, vocabulary)
	}

	// 5. 证据定位与缺口分析
	evidence := s.analysis.LocateEvidence(text, vocabulary)
	report.Skills = evidence.Skills
	findings := s.analysis.AnalyzeGaps(evidence.Skills, evidence.Projects, evidence.Experiences)
	report.Findings = findings
	s.activityRepo.Log(userID, model.ActivityResumeAnalysis, "Resume analyzed",
		fmt.Sprintf("%d skills found, %d gaps detected", len(evidence.Skills), len(findings)))

	if len(findings) == 0 {
		s.activityRepo.Log(userID, model.ActivityNoChallenges,
			"No skill gaps found", "All listed skills are backed by projects or experience")
		return report, nil
	}

	// 6. 逐技能合成并持久化，单技能失败不影响其余
	for _, finding := range findings {
		set := s.challenges.Synthesize(ctx, finding)
		challenge, created, err := s.challenges.Persist(userID, finding, set)
		if err != nil {
			report.SynthesisFailures++
			logger.Log.Error("challenge persistence failed",
				zap.String("skill", finding.Skill), zap.Error(err))
			s.activityRepo.Log(userID, model.ActivityChallengeError,
				"Challenge generation failed", finding.Skill)
			continue
		}
		if created {
			report.CreatedCount++
		}
		report.Challenges = append(report.Challenges, ChallengeBrief{
			ID:          challenge.ID,
			Skill:       finding.Skill,
			Description: challenge.Description,
			Created:     created,
		})
	}

	if report.CreatedCount > 0 {
		s.activityRepo.Log(userID, model.ActivityChallengesCreated,
			"Challenges generated", fmt.Sprintf("%d new challenges", report.CreatedCount))
	}
	return report, nil
}

var atsRe = regexp.MustCompile(`(?i)Score:\s*(\d+)\s*,\s*Skills:\s*(.+)`)

// scoreATS 让模型按固定格式打分，解析不出来就用兜底值
func (s *ResumeService) scoreATS(ctx context.Context, text string) (int, []string) {
	prompt := fmt.Sprintf(`Rate this resume for ATS (applicant tracking system) compatibility on a scale of 0-100 and list the candidate's top 5 skills.

Respond in exactly this format and nothing else:
Score: X, Skills: A, B, C, D, E

Resume:
%s`, truncate(text, s.cfg.Pipeline.ResumeTextLimit))

	raw, err := s.oracle.Generate(ctx, "ats", prompt)
	if err != nil {
		logger.Log.Warn("ATS scoring failed, using fallback", zap.Error(err))
		return fallbackATSScore, nil
	}

	m := atsRe.FindStringSubmatch(raw)
	if m == nil {
		logger.Log.Warn("ATS response did not match expected format")
		return fallbackATSScore, nil
	}

	score, err := strconv.Atoi(m[1])
	if err != nil || score < 0 || score > 100 {
		return fallbackATSScore, nil
	}

	var skills []string
	for _, part := range strings.Split(m[2], ",") {
		part = strings.TrimSpace(part)
		if part != "" && len(skills) < 5 {
			skills = append(skills, part)
		}
	}
	return score, skills
}

// Profile 返回当前档案，未上传过简历时返回空档案
func (s *ResumeService) Profile(userID uint) (*model.UserProfile, error) {
	return s.profileRepo.GetOrCreate(userID)
}

// mergeVocabulary 合并去重，保持 seeded 在前的稳定顺序
func mergeVocabulary(seeded, discovered []string) []string {
	seen := make(map[string]struct{}, len(seeded)+len(discovered))
	out := make([]string, 0, len(seeded)+len(discovered))
	for _, list := range [][]string{seeded, discovered} {
		for _, name := range list {
			key := strings.ToLower(strings.TrimSpace(name))
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}
