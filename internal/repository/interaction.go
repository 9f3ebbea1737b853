package repository

import (
	"context"
	"fmt"
	"time"

	"Weave/internal/model"
	"Weave/storage/database"
)

// CountInteractions 已完成互动总数，宽限期判定用
func CountInteractions(ctx context.Context, userID int64) (int, error) {
	var count int64
	err := database.DB().WithContext(ctx).
		Model(&model.Interaction{}).
		Where("user_id = ? AND status = ?", userID, model.InteractionStatusCompleted).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count interactions: %w", err)
	}
	return int(count), nil
}

// GetInteractionByID 按主键取互动
func GetInteractionByID(ctx context.Context, userID, interactionID int64) (*model.Interaction, error) {
	var it model.Interaction
	err := database.DB().WithContext(ctx).
		Where("id = ? AND user_id = ?", interactionID, userID).
		First(&it).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get interaction: %w", err)
	}
	return &it, nil
}

// ListPlannedBetween 计划时间落在 [from, to) 的待执行约定
func ListPlannedBetween(ctx context.Context, userID int64, from, to time.Time) ([]model.Interaction, error) {
	var its []model.Interaction
	err := database.DB().WithContext(ctx).
		Where("user_id = ? AND status = ? AND occurs_at >= ? AND occurs_at < ?",
			userID, model.InteractionStatusPlanned, from, to).
		Order("occurs_at ASC").
		Find(&its).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list planned interactions: %w", err)
	}
	return its, nil
}

// ListCompletedBetween 完成时间落在 [from, to) 的互动
func ListCompletedBetween(ctx context.Context, userID int64, from, to time.Time) ([]model.Interaction, error) {
	var its []model.Interaction
	err := database.DB().WithContext(ctx).
		Where("user_id = ? AND status = ? AND completed_at >= ? AND completed_at < ?",
			userID, model.InteractionStatusCompleted, from, to).
		Order("completed_at ASC").
		Find(&its).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list completed interactions: %w", err)
	}
	return its, nil
}

// HasPlannedWithFriend 朋友在 [from, to) 内是否已有待执行约定，建议去重用
func HasPlannedWithFriend(ctx context.Context, userID, friendID int64, from, to time.Time) (bool, error) {
	var count int64
	err := database.DB().WithContext(ctx).
		Model(&model.Interaction{}).
		Joins("JOIN interaction_friends ON interaction_friends.interaction_id = interactions.id").
		Where("interactions.user_id = ? AND interaction_friends.friend_id = ?", userID, friendID).
		Where("interactions.status = ? AND interactions.occurs_at >= ? AND interactions.occurs_at < ?",
			model.InteractionStatusPlanned, from, to).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check planned interaction: %w", err)
	}
	return count > 0, nil
}

// ListInteractionFriends 互动关联的朋友
func ListInteractionFriends(ctx context.Context, interactionID int64) ([]model.Friend, error) {
	var friends []model.Friend
	err := database.DB().WithContext(ctx).
		Joins("JOIN interaction_friends ON interaction_friends.friend_id = friends.id").
		Where("interaction_friends.interaction_id = ?", interactionID).
		Find(&friends).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list interaction friends: %w", err)
	}
	return friends, nil
}

// ListCompletedOnDate 指定自然日内完成的互动，回忆提醒用
func ListCompletedOnDate(ctx context.Context, userID int64, day time.Time) ([]model.Interaction, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return ListCompletedBetween(ctx, userID, start, start.Add(24*time.Hour))
}
