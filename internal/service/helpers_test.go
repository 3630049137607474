package service

import (
	"context"
	"fmt"
	"resume_optimizer_backend/internal/config"
	"resume_optimizer_backend/pkg/database"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// scriptedOracle 按 purpose 返回预置回复的测试替身
type scriptedOracle struct {
	replies map[string]string
	errs    map[string]error
	calls   []string
}

func (o *scriptedOracle) Generate(ctx context.Context, purpose, prompt string) (string, error) {
	o.calls = append(o.calls, purpose)
	if err, ok := o.errs[purpose]; ok {
		return "", err
	}
	if reply, ok := o.replies[purpose]; ok {
		return reply, nil
	}
	return "", fmt.Errorf("no scripted reply for purpose %q", purpose)
}

func testConfig() *config.Config {
	return &config.Config{
		Pipeline: config.PipelineConfig{
			MaxGapSkills:          4,
			MaxProjectSnippets:    5,
			MaxExperienceSnippets: 5,
			PassThresholdPercent:  70,
			MinOracleIntervalMs:   0,
			ResumeTextLimit:       50000,
			FallbackSkills:        []string{"Python", "Django", "React"},
		},
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
