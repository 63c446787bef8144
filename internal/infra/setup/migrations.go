package setup

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"collabify/internal/domain"
)

// MigrateDB handles all database migrations using the provided GORM DB instance.
// 返回错误以便调用者知道迁移是否成功。
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}

	// 唯一的持久化实体就是 Room，单表，AutoMigrate 足够
	if err := db.AutoMigrate(&domain.Room{}); err != nil {
		logrus.Errorf("Failed to auto-migrate rooms table: %v", err)
		return fmt.Errorf("failed to auto-migrate rooms table: %w", err)
	}

	logrus.Info("Database migration completed successfully")
	return nil
}
