package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"collabify/internal/domain"
	"collabify/internal/repository"
)

// GormRoomRepository 是 RoomRepository 接口的 GORM 实现
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository 创建 GormRoomRepository 实例
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRoomRepository")
	}
	return &GormRoomRepository{db: db}
}

// FindByCode 实现根据房间码查找房间
func (r *GormRoomRepository) FindByCode(ctx context.Context, code string) (*domain.Room, error) {
	var roomData domain.Room
	err := r.db.WithContext(ctx).First(&roomData, "code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by code '%s': %w", code, err)
	}
	return &roomData, nil
}

// Save 实现保存房间信息（创建或更新）
func (r *GormRoomRepository) Save(ctx context.Context, roomData *domain.Room) error {
	result := r.db.WithContext(ctx).Save(roomData)
	err := result.Error
	if err != nil {
		// MySQL 1062: 唯一约束冲突 (理论上只可能是房间码撞车)
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save room (code: %s): %w", roomData.Code, err)
	}
	return nil
}

// Delete 实现删除房间记录
func (r *GormRoomRepository) Delete(ctx context.Context, code string) error {
	result := r.db.WithContext(ctx).Delete(&domain.Room{}, "code = ?", code)
	if result.Error != nil {
		return fmt.Errorf("gorm: delete room (code: %s): %w", code, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrRoomNotFound
	}
	return nil
}

// IsCodeExists 实现检查房间码是否已被占用
func (r *GormRoomRepository) IsCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	// 使用 Count() 优化查询，只查询数量
	err := r.db.WithContext(ctx).Model(&domain.Room{}).Where("code = ?", code).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: count rooms by code '%s': %w", code, err)
	}
	return count > 0, nil
}

// TouchLastActive 实现只更新 LastActive 列。
// 这里必须是列级 UPDATE 而不是 Save：Save 覆盖整行，会把调用方
// 读到的旧 TrackCount 写回去，吃掉锁内并发完成的递增。
func (r *GormRoomRepository) TouchLastActive(ctx context.Context, code string, t time.Time) error {
	result := r.db.WithContext(ctx).Model(&domain.Room{}).Where("code = ?", code).
		Update("last_active", t)
	if result.Error != nil {
		return fmt.Errorf("gorm: touch last_active (code: %s): %w", code, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrRoomNotFound
	}
	return nil
}

// UpdateDevice 实现只更新 DeviceID 和 LastActive 列。
func (r *GormRoomRepository) UpdateDevice(ctx context.Context, code, deviceID string, t time.Time) error {
	result := r.db.WithContext(ctx).Model(&domain.Room{}).Where("code = ?", code).
		Updates(map[string]interface{}{
			"device_id":   deviceID,
			"last_active": t,
		})
	if result.Error != nil {
		return fmt.Errorf("gorm: update device (code: %s): %w", code, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrRoomNotFound
	}
	return nil
}

// FindInactiveSince 实现查询 LastActive 早于给定时刻的房间
func (r *GormRoomRepository) FindInactiveSince(ctx context.Context, cutoff time.Time) ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.WithContext(ctx).Where("last_active < ?", cutoff).Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find inactive rooms before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return rooms, nil
}
