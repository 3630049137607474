package service

import (
	"context"
	"resume_optimizer_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateEvidenceWholeWordMatch(t *testing.T) {
	svc := NewAnalysisService(nil, testConfig())
	vocab := []string{"Java", "JavaScript", "React", "Sql"}

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "substring of longer word does not count",
			text: "Skills: JavaScript, React",
			want: []string{"JavaScript", "React"},
		},
		{
			name: "case insensitive",
			text: "experienced with JAVA and sql",
			want: []string{"Java", "Sql"},
		},
		{
			name: "no skills",
			text: "I enjoy gardening",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := svc.LocateEvidence(tt.text, vocab)
			assert.Equal(t, tt.want, ev.Skills)
		})
	}
}

// 以符号收尾的词条（C++、C#）在结尾处没有 \b 边界，匹配不能因此失效
func TestLocateEvidenceSymbolSkills(t *testing.T) {
	svc := NewAnalysisService(nil, testConfig())
	vocab := []string{"C++", "C#", ".NET", "Go"}

	ev := svc.LocateEvidence("Skills: C++, C# and .NET on the backend, Go tooling", vocab)

	assert.Equal(t, []string{"C++", "C#", ".NET", "Go"}, ev.Skills)
}

func TestWordMatchPattern(t *testing.T) {
	tests := []struct {
		skill   string
		pattern string
	}{
		{"Go", `(?i)\bGo\b`},
		{"C++", `(?i)\bC\+\+`},
		{".NET", `(?i)\.NET\b`},
		{"  ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.pattern, wordMatchPattern(tt.skill), tt.skill)
	}
}

func TestLocateEvidenceProjectAndExperienceSnippets(t *testing.T) {
	svc := NewAnalysisService(nil, testConfig())

	text := `Skills: Python
Project: Inventory tracker in Python
Built a chat application
Experience: Backend developer for two years
Worked at Acme Corp`

	ev := svc.LocateEvidence(text, []string{"Python"})

	assert.Contains(t, ev.Projects, "Inventory tracker in Python")
	assert.Contains(t, ev.Projects, "Built a chat application")
	assert.Contains(t, ev.Experiences, "Backend developer for two years")
	assert.Contains(t, ev.Experiences, "Acme Corp")
}

func TestLocateEvidenceSnippetCaps(t *testing.T) {
	cfg := testConfig()
	cfg.Pipeline.MaxProjectSnippets = 2
	cfg.Pipeline.MaxExperienceSnippets = 1
	svc := NewAnalysisService(nil, cfg)

	text := `Project: one
Project: two
Project: three
Worked at A
Worked at B`

	ev := svc.LocateEvidence(text, nil)
	assert.Len(t, ev.Projects, 2)
	assert.Len(t, ev.Experiences, 1)
}

func TestAnalyzeGapsSubstringEvidence(t *testing.T) {
	svc := NewAnalysisService(nil, testConfig())

	skills := []string{"Python", "React", "Sql"}
	projects := []string{"Inventory tracker in python"}
	experiences := []string{"Used SQL at Acme"}

	findings := svc.AnalyzeGaps(skills, projects, experiences)

	require.Len(t, findings, 1)
	assert.Equal(t, "React", findings[0].Skill)
	assert.Equal(t, "React is listed but not demonstrated through projects or work experience.", findings[0].Reason)
}

func TestAnalyzeGapsDeterministic(t *testing.T) {
	svc := NewAnalysisService(nil, testConfig())
	skills := []string{"Go", "Rust"}

	first := svc.AnalyzeGaps(skills, nil, nil)
	second := svc.AnalyzeGaps(skills, nil, nil)

	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, "Go", first[0].Skill)
	assert.Equal(t, "Rust", first[1].Skill)
}

func TestAnalyzeGapsRespectsMaxGapSkills(t *testing.T) {
	cfg := testConfig()
	cfg.Pipeline.MaxGapSkills = 2
	svc := NewAnalysisService(nil, cfg)

	findings := svc.AnalyzeGaps([]string{"A", "B", "C", "D"}, nil, nil)
	assert.Len(t, findings, 2)
}

func TestDiscoverSkills(t *testing.T) {
	tests := []struct {
		name   string
		oracle Oracle
		want   []string
	}{
		{
			name:   "valid array",
			oracle: &scriptedOracle{replies: map[string]string{"skills": `["Go", "Docker"]`}},
			want:   []string{"Go", "Docker"},
		},
		{
			name:   "fenced array",
			oracle: &scriptedOracle{replies: map[string]string{"skills": "```json\n[\"Go\"]\n```"}},
			want:   []string{"Go"},
		},
		{
			name:   "oracle error falls back",
			oracle: &scriptedOracle{errs: map[string]error{"skills": util.ErrOracle}},
			want:   []string{"Python", "Django", "React"},
		},
		{
			name:   "garbage falls back",
			oracle: &scriptedOracle{replies: map[string]string{"skills": "sure, here are some skills"}},
			want:   []string{"Python", "Django", "React"},
		},
		{
			name:   "empty array falls back",
			oracle: &scriptedOracle{replies: map[string]string{"skills": `[]`}},
			want:   []string{"Python", "Django", "React"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAnalysisService(tt.oracle, testConfig())
			got := svc.DiscoverSkills(context.Background(), "some resume text")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiscoverSkillsNilOracle(t *testing.T) {
	svc := NewAnalysisService(nil, testConfig())
	got := svc.DiscoverSkills(context.Background(), "text")
	assert.Equal(t, []string{"Python", "Django", "React"}, got)
}
