package service

import (
	"resume_optimizer_backend/internal/model"
	"resume_optimizer_backend/internal/repository"
	"strings"
)

// SkillLevel 按项目步骤中出现的次数粗略定级
type SkillLevel struct {
	Skill string `json:"skill"`
	Level string `json:"level"`
}

// DashboardData 首页聚合数据
type DashboardData struct {
	ATSScore            int              `json:"atsScore"`
	TopSkills           []string         `json:"topSkills"`
	ActiveProjects      int64            `json:"activeProjects"`
	PendingChallenges   int64            `json:"pendingChallenges"`
	CompletedChallenges int64            `json:"completedChallenges"`
	SkillLevels         []SkillLevel     `json:"skillLevels"`
	Activities          []model.Activity `json:"activities"`
}

type DashboardService struct {
	profileRepo   *repository.ProfileRepository
	challengeRepo *repository.ChallengeRepository
	stepRepo      *repository.ProjectStepRepository
	activityRepo  *repository.ActivityRepository
}

func NewDashboardService(
	profileRepo *repository.ProfileRepository,
	challengeRepo *repository.ChallengeRepository,
	stepRepo *repository.ProjectStepRepository,
	activityRepo *repository.ActivityRepository,
) *DashboardService {
	return &DashboardService{
		profileRepo:   profileRepo,
		challengeRepo: challengeRepo,
		stepRepo:      stepRepo,
		activityRepo:  activityRepo,
	}
}

func (s *DashboardService) GetDashboardData(userID uint) (*DashboardData, error) {
	data := &DashboardData{}

	profile, err := s.profileRepo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}
	data.ATSScore = profile.ATSScore
	if profile.TopSkills != "" {
		data.TopSkills = strings.Split(profile.TopSkills, ",")
	}

	if data.ActiveProjects, err = s.stepRepo.CountActiveProjects(userID); err != nil {
		return nil, err
	}
	if data.PendingChallenges, err = s.challengeRepo.CountByUserAndStatus(userID, model.ChallengePending); err != nil {
		return nil, err
	}
	if data.CompletedChallenges, err = s.challengeRepo.CountByUserAndStatus(userID, model.ChallengePassed); err != nil {
		return nil, err
	}

	data.SkillLevels = s.skillLevels(userID, data.TopSkills)

	if data.Activities, err = s.activityRepo.Recent(userID, 10); err != nil {
		return nil, err
	}
	return data, nil
}

// RecentActivities 最近的动态列表
func (s *DashboardService) RecentActivities(userID uint, limit int) ([]model.Activity, error) {
	return s.activityRepo.Recent(userID, limit)
}

// skillLevels 以项目步骤里提到技能的次数定级：三次以上 Advanced，
// 出现过 Intermediate，否则 Beginner
func (s *DashboardService) skillLevels(userID uint, skills []string) []SkillLevel {
	levels := make([]SkillLevel, 0, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		count, err := s.stepRepo.CountStepsMentioning(userID, skill)
		if err != nil {
			count = 0
		}
		level := "Beginner"
		switch {
		case count >= 3:
			level = "Advanced"
		case count >= 1:
			level = "Intermediate"
		}
		levels = append(levels, SkillLevel{Skill: skill, Level: level})
	}
	return levels
}
