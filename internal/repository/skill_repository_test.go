package repository

import (
	"resume_optimizer_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillGetOrCreateCanonicalizes(t *testing.T) {
	db := newTestDB(t)
	repo := NewSkillRepository(db)

	first, err := repo.GetOrCreate("machine learning")
	require.NoError(t, err)
	assert.Equal(t, "Machine Learning", first.Name)

	// 大小写变体命中同一条记录
	second, err := repo.GetOrCreate("MACHINE LEARNING")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestSkillListNamesOrdered(t *testing.T) {
	db := newTestDB(t)
	repo := NewSkillRepository(db)

	names, err := repo.ListNames()
	require.NoError(t, err)
	// 迁移阶段播种了默认词表
	require.NotEmpty(t, names)
	assert.Contains(t, names, "Python")

	again, err := repo.ListNames()
	require.NoError(t, err)
	assert.Equal(t, names, again)
}

func TestCanonicalSkillName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"python", "Python"},
		{"SQL", "Sql"},
		{"node.js", "Node.js"},
		{"machine learning", "Machine Learning"},
		{"  react  ", "React"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, model.CanonicalSkillName(tt.in), "input %q", tt.in)
	}
}
