package service

import (
	"context"
	"resume_optimizer_backend/internal/model"
	"resume_optimizer_backend/internal/repository"
	"resume_optimizer_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResumeService(t *testing.T, oracle Oracle) (*ResumeService, *repository.ActivityRepository) {
	t.Helper()
	db := newTestDB(t)

	profileRepo := repository.NewProfileRepository(db)
	skillRepo := repository.NewSkillRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)
	cfg := testConfig()

	analysis := NewAnalysisService(oracle, cfg)
	challenges := NewChallengeService(oracle, challengeRepo, skillRepo, activityRepo, cfg)
	svc := NewResumeService(NewExtractService(), analysis, challenges,
		profileRepo, skillRepo, activityRepo, oracle, cfg)
	return svc, activityRepo
}

const sampleResume = `Skills: Python, React
Project: Inventory tracker in Python
Worked at Acme Corp`

func pipelineOracle() *scriptedOracle {
	return &scriptedOracle{replies: map[string]string{
		"ats":    "Score: 82, Skills: Python, React, SQL, Git, Docker",
		"skills": `["Python", "React"]`,
		"challenge": `{
			"mcq": [{"question": "What is JSX?", "options": ["Syntax extension", "A database"], "answer": "Syntax extension"}],
			"fill_in_blanks": []
		}`,
	}}
}

func TestAnalyzeAndSynthesizeEndToEnd(t *testing.T) {
	svc, _ := newResumeService(t, pipelineOracle())

	report, err := svc.AnalyzeAndSynthesize(context.Background(), 1, "resume.txt", "resumes/1/key.txt", []byte(sampleResume))
	require.NoError(t, err)

	assert.Equal(t, 82, report.ATSScore)
	assert.Equal(t, []string{"Python", "React", "SQL", "Git", "Docker"}, report.TopSkills)
	assert.Contains(t, report.Skills, "Python")
	assert.Contains(t, report.Skills, "React")

	// Python 有项目佐证，React 没有
	require.Len(t, report.Findings, 1)
	assert.Equal(t, "React", report.Findings[0].Skill)

	assert.Equal(t, 1, report.CreatedCount)
	assert.Zero(t, report.SynthesisFailures)
	require.Len(t, report.Challenges, 1)
	assert.True(t, report.Challenges[0].Created)

	profile, err := svc.Profile(1)
	require.NoError(t, err)
	assert.Equal(t, "resume.txt", profile.ResumeName)
	assert.Equal(t, 82, profile.ATSScore)
	assert.Equal(t, "resumes/1/key.txt", profile.ResumeKey)
}

// 同一份简历重复上传不产生新挑战
func TestAnalyzeAndSynthesizeIdempotent(t *testing.T) {
	svc, _ := newResumeService(t, pipelineOracle())

	first, err := svc.AnalyzeAndSynthesize(context.Background(), 1, "resume.txt", "k1", []byte(sampleResume))
	require.NoError(t, err)
	assert.Equal(t, 1, first.CreatedCount)

	second, err := svc.AnalyzeAndSynthesize(context.Background(), 1, "resume.txt", "k2", []byte(sampleResume))
	require.NoError(t, err)
	assert.Equal(t, 0, second.CreatedCount)
	require.Len(t, second.Challenges, 1)
	assert.False(t, second.Challenges[0].Created)
	assert.Equal(t, first.Challenges[0].ID, second.Challenges[0].ID)
}

func TestAnalyzeAndSynthesizeExtractionFailureIsFatal(t *testing.T) {
	svc, activityRepo := newResumeService(t, pipelineOracle())

	_, err := svc.AnalyzeAndSynthesize(context.Background(), 1, "resume.exe", "k", []byte("data"))
	assert.ErrorIs(t, err, util.ErrExtraction)

	activities, err := activityRepo.Recent(1, 10)
	require.NoError(t, err)
	require.NotEmpty(t, activities)
	assert.Equal(t, model.ActivityResumeUploadError, activities[0].Type)
}

// 模型整体不可用：ATS 走兜底分，技能发现走兜底词表，
// 挑战走兜底题目集，整个流程依然有产出
func TestAnalyzeAndSynthesizeDegradedOracle(t *testing.T) {
	oracle := &scriptedOracle{errs: map[string]error{
		"ats":       util.ErrOracle,
		"skills":    util.ErrOracle,
		"challenge": util.ErrOracle,
	}}
	svc, _ := newResumeService(t, oracle)

	report, err := svc.AnalyzeAndSynthesize(context.Background(), 1, "resume.txt", "k", []byte(sampleResume))
	require.NoError(t, err)

	assert.Equal(t, fallbackATSScore, report.ATSScore)
	assert.Contains(t, report.Skills, "Python")
	assert.Equal(t, 1, report.CreatedCount)
}

func TestAnalyzeAndSynthesizeNoGaps(t *testing.T) {
	oracle := pipelineOracle()
	svc, activityRepo := newResumeService(t, oracle)

	text := `Skills: Python
Project: Inventory tracker in Python`
	report, err := svc.AnalyzeAndSynthesize(context.Background(), 1, "resume.txt", "k", []byte(text))
	require.NoError(t, err)

	assert.Empty(t, report.Findings)
	assert.Zero(t, report.CreatedCount)

	activities, _ := activityRepo.Recent(1, 10)
	var sawNoChallenges bool
	for _, a := range activities {
		if a.Type == model.ActivityNoChallenges {
			sawNoChallenges = true
		}
	}
	assert.True(t, sawNoChallenges)
}

func TestScoreATSParsing(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		err        error
		wantScore  int
		wantSkills []string
	}{
		{
			name:       "well formed",
			reply:      "Score: 91, Skills: Go, Docker",
			wantScore:  91,
			wantSkills: []string{"Go", "Docker"},
		},
		{
			name:      "out of range falls back",
			reply:     "Score: 140, Skills: Go",
			wantScore: fallbackATSScore,
		},
		{
			name:      "unparseable falls back",
			reply:     "I'd rate this resume highly!",
			wantScore: fallbackATSScore,
		},
		{
			name:      "oracle error falls back",
			err:       util.ErrOracle,
			wantScore: fallbackATSScore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := &scriptedOracle{replies: map[string]string{"ats": tt.reply}}
			if tt.err != nil {
				oracle.errs = map[string]error{"ats": tt.err}
			}
			svc, _ := newResumeService(t, oracle)

			score, skills := svc.scoreATS(context.Background(), "resume text")
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantSkills, skills)
		})
	}
}

func TestMergeVocabulary(t *testing.T) {
	got := mergeVocabulary(
		[]string{"Python", "React"},
		[]string{"python", "Go", " ", "React"},
	)
	assert.Equal(t, []string{"Python", "React", "Go"}, got)
}
