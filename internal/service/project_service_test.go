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

func newProjectService(t *testing.T, oracle Oracle) *ProjectService {
	t.Helper()
	db := newTestDB(t)
	return NewProjectService(
		oracle,
		repository.NewProjectStepRepository(db),
		repository.NewActivityRepository(db),
		testConfig(),
	)
}

func TestGenerateIdeas(t *testing.T) {
	t.Run("valid output", func(t *testing.T) {
		oracle := &scriptedOracle{replies: map[string]string{"ideas": `[
			{"title": "Weather CLI", "description": "A CLI weather client", "technologies": ["Go"]},
			{"title": "", "description": "dropped, empty title"},
			{"title": "Blog engine", "description": "Markdown blog", "technologies": ["Python"]}
		]`}}
		svc := newProjectService(t, oracle)

		ideas := svc.GenerateIdeas(context.Background(), []string{"Go", "Python"})

		require.Len(t, ideas, 2)
		assert.Equal(t, "Weather CLI", ideas[0].Title)
		assert.Equal(t, "Blog engine", ideas[1].Title)
	})

	t.Run("oracle failure falls back", func(t *testing.T) {
		oracle := &scriptedOracle{errs: map[string]error{"ideas": util.ErrOracle}}
		svc := newProjectService(t, oracle)

		ideas := svc.GenerateIdeas(context.Background(), []string{"Go"})

		require.NotEmpty(t, ideas)
		assert.Contains(t, ideas[0].Title, "Go")
	})

	t.Run("garbage falls back", func(t *testing.T) {
		oracle := &scriptedOracle{replies: map[string]string{"ideas": "here are some ideas!"}}
		svc := newProjectService(t, oracle)

		assert.NotEmpty(t, svc.GenerateIdeas(context.Background(), nil))
	})
}

func TestGenerateWeeklyPlan(t *testing.T) {
	t.Run("drops invalid weeks", func(t *testing.T) {
		oracle := &scriptedOracle{replies: map[string]string{"plan": `[
			{"week": 1, "task": "scaffold"},
			{"week": 0, "task": "invalid week"},
			{"week": -2, "task": "invalid week"},
			{"week": 3, "task": ""},
			{"week": 2, "task": "core feature"}
		]`}}
		svc := newProjectService(t, oracle)

		plan := svc.GenerateWeeklyPlan(context.Background(), "Weather CLI", "desc", nil)

		require.Len(t, plan, 2)
		assert.Equal(t, 1, plan[0].Week)
		assert.Equal(t, 2, plan[1].Week)
	})

	t.Run("all invalid falls back", func(t *testing.T) {
		oracle := &scriptedOracle{replies: map[string]string{"plan": `[{"week": 0, "task": "x"}]`}}
		svc := newProjectService(t, oracle)

		plan := svc.GenerateWeeklyPlan(context.Background(), "Weather CLI", "desc", nil)

		require.Len(t, plan, 4)
		for i, step := range plan {
			assert.Equal(t, i+1, step.Week)
			assert.NotEmpty(t, step.Task)
		}
	})
}

func TestSplitCodeAndExplanation(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantCode string
		wantExpl string
	}{
		{
			name:     "fenced with language and trailing explanation",
			raw:      "```python\nprint('hi')\n```\nThis prints hi.",
			wantCode: "print('hi')",
			wantExpl: "This prints hi.",
		},
		{
			name:     "no fence means all code",
			raw:      "print('hi')",
			wantCode: "print('hi')",
			wantExpl: "",
		},
		{
			name:     "unclosed fence",
			raw:      "```go\nfmt.Println(1)",
			wantCode: "fmt.Println(1)",
			wantExpl: "",
		},
		{
			name:     "prose before fence is ignored",
			raw:      "Here you go:\n```\nx = 1\n```\nSets x.",
			wantCode: "x = 1",
			wantExpl: "Sets x.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, expl := splitCodeAndExplanation(tt.raw)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantExpl, expl)
		})
	}
}

func TestGenerateStepCodeCapsOutput(t *testing.T) {
	huge := make([]byte, maxCodeOutputLen+500)
	for i := range huge {
		huge[i] = 'x'
	}
	oracle := &scriptedOracle{replies: map[string]string{"code": string(huge)}}
	svc := newProjectService(t, oracle)

	code, _ := svc.GenerateStepCode(context.Background(), "P", "task", nil)
	assert.Len(t, code, maxCodeOutputLen)
}

func TestGenerateStepCodeFallback(t *testing.T) {
	oracle := &scriptedOracle{errs: map[string]error{"code": util.ErrOracle}}
	svc := newProjectService(t, oracle)

	code, explanation := svc.GenerateStepCode(context.Background(), "P", "task", nil)
	assert.Empty(t, code)
	assert.NotEmpty(t, explanation)
}

func TestBuildStepsIdempotent(t *testing.T) {
	svc := newProjectService(t, nil)
	plan := []model.PlanStep{
		{Week: 1, Task: "scaffold"},
		{Week: 2, Task: "core"},
	}

	created, err := svc.BuildSteps(1, "Weather CLI", plan)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = svc.BuildSteps(1, "Weather CLI", plan)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	// 同名项目、不同用户互不影响
	created, err = svc.BuildSteps(2, "Weather CLI", plan)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
}

func TestMarkStepStatus(t *testing.T) {
	svc := newProjectService(t, nil)
	_, err := svc.BuildSteps(1, "P", []model.PlanStep{{Week: 1, Task: "t"}})
	require.NoError(t, err)

	steps, err := svc.Timeline(1)
	require.NoError(t, err)
	require.Len(t, steps, 1)

	require.NoError(t, svc.MarkStepStatus(1, steps[0].ID, model.StepDone))

	steps, _ = svc.Timeline(1)
	assert.Equal(t, model.StepDone, steps[0].Status)

	// 别人的步骤动不了
	assert.ErrorIs(t, svc.MarkStepStatus(2, steps[0].ID, model.StepDone), util.ErrStepNotFound)
}
