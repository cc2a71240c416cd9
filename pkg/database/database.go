package database

import (
	"fmt"
	"log"

	"learning_path_backend/internal/config"
	"learning_path_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB 建立连接。release 模式默认跳过自动迁移，除非显式要求
func InitDB(cfg *config.DatabaseConfig, migrate bool) (*gorm.DB, error) {
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

	if migrate {
		err = db.AutoMigrate(
			&model.User{},
			&model.LearningPath{},
			&model.StudyData{},
		)

		if err != nil {
			return nil, err
		}

		log.Println("Database migration completed")
	}

	return db, nil
}
