package repository

import (
	"context"
	"fmt"
	"time"

	"Weave/internal/model"
	"Weave/storage/database"
)

// CountFriends 未归档朋友数量，宽限期判定用
func CountFriends(ctx context.Context, userID int64) (int, error) {
	var count int64
	err := database.DB().WithContext(ctx).
		Model(&model.Friend{}).
		Where("user_id = ? AND archived = false", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count friends: %w", err)
	}
	return int(count), nil
}

// ListFriends 列出未归档朋友
func ListFriends(ctx context.Context, userID int64) ([]model.Friend, error) {
	var friends []model.Friend
	err := database.DB().WithContext(ctx).
		Where("user_id = ? AND archived = false", userID).
		Find(&friends).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	return friends, nil
}

// GetFriendByID 按主键取朋友
func GetFriendByID(ctx context.Context, userID, friendID int64) (*model.Friend, error) {
	var friend model.Friend
	err := database.DB().WithContext(ctx).
		Where("id = ? AND user_id = ?", friendID, userID).
		First(&friend).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get friend: %w", err)
	}
	return &friend, nil
}

// ListFriendsWithAnniversaryAround 周年纪念日落在 [from, to] 日历窗口内的朋友。
// 只比较月和日，年份忽略。
func ListFriendsWithAnniversaryAround(ctx context.Context, userID int64, from, to time.Time) ([]model.Friend, error) {
	friends, err := ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}

	var matched []model.Friend
	for _, f := range friends {
		if f.AnniversaryDate == nil {
			continue
		}
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			if f.AnniversaryDate.Month() == d.Month() && f.AnniversaryDate.Day() == d.Day() {
				matched = append(matched, f)
				break
			}
		}
	}
	return matched, nil
}
