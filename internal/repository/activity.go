package repository

import "context"

// Activity 档案活跃度统计，宽限期判定的生产实现
type Activity struct{}

func (Activity) CountFriends(ctx context.Context, userID int64) (int, error) {
	return CountFriends(ctx, userID)
}

func (Activity) CountInteractions(ctx context.Context, userID int64) (int, error) {
	return CountInteractions(ctx, userID)
}
