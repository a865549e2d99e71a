package database

import (
	"fmt"

	"github.com/blues/cps/internal/config"
	"github.com/blues/cps/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent), // 禁用 GORM 的默认日志输出
		TranslateError: true,                                          // 把驱动层唯一键冲突翻译成 gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate 自动迁移，测试里用 sqlite 复用同一套建表逻辑
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Campaign{},
		&model.RewardTier{},
		&model.Pledge{},
		&model.Transaction{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// 同一支持者在同一项目下最多只能有一条 pending/confirmed 记录，
	// 用部分唯一索引兜底，logic 层的预检查只负责给出友好错误
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_pledge_active_backer " +
			"ON pledges (campaign_id, backer_id) WHERE status IN ('pending', 'confirmed')",
	).Error; err != nil {
		return fmt.Errorf("failed to create pledge uniqueness index: %w", err)
	}

	return nil
}
