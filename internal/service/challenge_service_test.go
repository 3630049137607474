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

func newChallengeService(t *testing.T, oracle Oracle) *ChallengeService {
	t.Helper()
	db := newTestDB(t)
	return NewChallengeService(
		oracle,
		repository.NewChallengeRepository(db),
		repository.NewSkillRepository(db),
		repository.NewActivityRepository(db),
		testConfig(),
	)
}

func pythonFinding() GapFinding {
	return GapFinding{
		Skill:  "Python",
		Reason: "Python is listed but not demonstrated through projects or work experience.",
	}
}

func TestSynthesizeValidOutput(t *testing.T) {
	oracle := &scriptedOracle{replies: map[string]string{"challenge": `{
		"mcq": [{"question": "What is a Python list?", "options": ["A sequence", "A number"], "answer": "A sequence"}],
		"fill_in_blanks": [{"question": "Python uses ____ for indentation.", "answer": "whitespace"}]
	}`}}
	svc := newChallengeService(t, oracle)

	set := svc.Synthesize(context.Background(), pythonFinding())

	require.NotNil(t, set)
	require.NoError(t, set.Validate())
	require.Len(t, set.Items, 2)
	assert.Equal(t, model.QuestionMCQ, set.Items[0].Type)
	assert.Equal(t, model.QuestionFillBlank, set.Items[1].Type)
}

func TestSynthesizeFencedOutput(t *testing.T) {
	oracle := &scriptedOracle{replies: map[string]string{"challenge": "```json\n" + `{
		"mcq": [{"question": "Q", "options": ["a", "b"], "answer": "b"}],
		"fill_in_blanks": []
	}` + "\n```"}}
	svc := newChallengeService(t, oracle)

	set := svc.Synthesize(context.Background(), pythonFinding())

	require.NotNil(t, set)
	require.Len(t, set.Items, 1)
	assert.Equal(t, "b", set.Items[0].Answer)
}

// 模型输出不可用的各种姿势都必须落到兜底题目集
func TestSynthesizeFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		oracle Oracle
	}{
		{"oracle error", &scriptedOracle{errs: map[string]error{"challenge": util.ErrOracle}}},
		{"plain prose", &scriptedOracle{replies: map[string]string{"challenge": "I cannot answer that"}}},
		{"empty object", &scriptedOracle{replies: map[string]string{"challenge": "{}"}}},
		{"truncated json", &scriptedOracle{replies: map[string]string{"challenge": `{"mcq": [{"question": "Q"`}}},
		{"answer not in options", &scriptedOracle{replies: map[string]string{"challenge": `{
			"mcq": [{"question": "Q", "options": ["a", "b"], "answer": "c"}]
		}`}}},
		{"too few options", &scriptedOracle{replies: map[string]string{"challenge": `{
			"mcq": [{"question": "Q", "options": ["only one"], "answer": "only one"}]
		}`}}},
		{"empty fill-blank answer", &scriptedOracle{replies: map[string]string{"challenge": `{
			"fill_in_blanks": [{"question": "Q ____", "answer": ""}]
		}`}}},
	}

	expected := FallbackQuestionSet("Python")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newChallengeService(t, tt.oracle)
			set := svc.Synthesize(context.Background(), pythonFinding())
			require.NotNil(t, set)
			assert.Equal(t, expected, set)
		})
	}
}

// 不可解析的输出统一归为格式校验错误
func TestParseQuestionSetRejectsUnusableOutput(t *testing.T) {
	svc := newChallengeService(t, nil)

	for _, raw := range []string{
		"I cannot answer that",
		"{}",
		`{"mcq": [{"question": "Q"`,
		`{"mcq": [{"question": "Q", "options": ["a", "b"], "answer": "c"}]}`,
	} {
		_, err := svc.parseQuestionSet(raw, "Python")
		assert.ErrorIs(t, err, util.ErrSchemaValidation, raw)
	}
}

// 部分题目合法时只丢弃坏的，不整体退回兜底
func TestSynthesizeDropsOnlyInvalidItems(t *testing.T) {
	oracle := &scriptedOracle{replies: map[string]string{"challenge": `{
		"mcq": [
			{"question": "good", "options": ["a", "b"], "answer": "a"},
			{"question": "bad", "options": ["a", "b"], "answer": "nope"}
		]
	}`}}
	svc := newChallengeService(t, oracle)

	set := svc.Synthesize(context.Background(), pythonFinding())

	require.NotNil(t, set)
	require.Len(t, set.Items, 1)
	assert.Equal(t, "good", set.Items[0].Question)
}

func TestFallbackQuestionSetIsValidAndDeterministic(t *testing.T) {
	first := FallbackQuestionSet("React")
	second := FallbackQuestionSet("React")

	require.NoError(t, first.Validate())
	assert.Equal(t, first, second)

	// 填空题答案就是技能名
	last := first.Items[len(first.Items)-1]
	assert.Equal(t, model.QuestionFillBlank, last.Type)
	assert.Equal(t, "React", last.Answer)
}

func TestPersistIsIdempotent(t *testing.T) {
	svc := newChallengeService(t, nil)
	finding := pythonFinding()
	set := FallbackQuestionSet(finding.Skill)

	first, created, err := svc.Persist(1, finding, set)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.ChallengePending, first.Status)

	second, created, err := svc.Persist(1, finding, set)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	// 另一个用户不受影响
	_, created, err = svc.Persist(2, finding, set)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestGrade(t *testing.T) {
	svc := newChallengeService(t, nil)
	finding := pythonFinding()
	set := FallbackQuestionSet(finding.Skill) // 2 MCQ + 1 填空

	challenge, _, err := svc.Persist(1, finding, set)
	require.NoError(t, err)

	t.Run("all correct passes", func(t *testing.T) {
		answers := map[int]string{}
		for i, item := range set.Items {
			answers[i] = item.Answer
		}
		result, err := svc.Grade(1, challenge.ID, answers)
		require.NoError(t, err)
		assert.Equal(t, model.ChallengePassed, result.Status)
		assert.Equal(t, 3, result.Score)
		assert.Equal(t, 3, result.Total)
	})

	t.Run("one of three fails at 70 percent threshold", func(t *testing.T) {
		result, err := svc.Grade(1, challenge.ID, map[int]string{0: set.Items[0].Answer})
		require.NoError(t, err)
		assert.Equal(t, model.ChallengeFailed, result.Status)
		assert.Equal(t, 1, result.Score)
	})

	t.Run("match is case sensitive", func(t *testing.T) {
		answers := map[int]string{2: "python"} // 正确答案是 "Python"
		result, err := svc.Grade(1, challenge.ID, answers)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Score)
	})

	t.Run("zero questions grades to failed", func(t *testing.T) {
		goFinding := GapFinding{
			Skill:  "Go",
			Reason: "Go is listed but not demonstrated through projects or work experience.",
		}
		empty, _, err := svc.Persist(1, goFinding, &model.QuestionSet{})
		require.NoError(t, err)

		result, err := svc.Grade(1, empty.ID, map[int]string{})
		require.NoError(t, err)
		assert.Equal(t, model.ChallengeFailed, result.Status)
		assert.Equal(t, 0, result.Total)
		assert.Equal(t, 0.0, result.Percentage)
	})

	t.Run("wrong user gets not found", func(t *testing.T) {
		_, err := svc.Grade(99, challenge.ID, nil)
		assert.ErrorIs(t, err, util.ErrChallengeNotFound)
	})

	t.Run("missing challenge", func(t *testing.T) {
		_, err := svc.Grade(1, 4242, nil)
		assert.ErrorIs(t, err, util.ErrChallengeNotFound)
	})
}
