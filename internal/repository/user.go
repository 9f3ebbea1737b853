package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"Weave/internal/model"
	weaveerrors "Weave/pkg/errors"
	"Weave/storage/database"
)

// GetUserByID 按主键取用户
func GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	err := database.DB().WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, weaveerrors.UserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// ListActiveUserIDs 分页列出正常状态用户 ID，调度器全量巡检用
func ListActiveUserIDs(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	var ids []int64
	err := database.DB().WithContext(ctx).
		Model(&model.User{}).
		Where("status = ? AND id > ?", model.UserStatusActive, afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	return ids, nil
}

// UpdateUserPreferences 更新通知偏好字段
func UpdateUserPreferences(ctx context.Context, userID int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	err := database.DB().WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to update user preferences: %w", err)
	}
	return nil
}

// UpdatePushTarget 更新投递目标（设备令牌）
func UpdatePushTarget(ctx context.Context, userID int64, target string) error {
	err := database.DB().WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("push_target", target).Error
	if err != nil {
		return fmt.Errorf("failed to update push target: %w", err)
	}
	return nil
}
