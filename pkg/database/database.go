package database

import (
	"fmt"
	"log"
	"resume_optimizer_backend/internal/config"
	"resume_optimizer_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	return db, nil
}

// Migrate 建表并播种默认数据，sqlite 测试库也走这里
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.UserProfile{},
		&model.Skill{},
		&model.Challenge{},
		&model.ProjectStep{},
		&model.Activity{},
	)
	if err != nil {
		return err
	}

	seedSkills(db)
	return nil
}

// 默认技能词表，动态技能发现失败时的最终兜底也落在这批词条上
func seedSkills(db *gorm.DB) {
	var count int64
	db.Model(&model.Skill{}).Count(&count)
	if count > 0 {
		return
	}

	defaults := []string{
		"Python", "Django", "Javascript", "React", "Sql",
		"Node.js", "Flask", "Machine Learning", "Data Analysis",
		"Go", "Docker", "Git",
	}
	for _, name := range defaults {
		db.Create(&model.Skill{Name: model.CanonicalSkillName(name)})
	}
}
