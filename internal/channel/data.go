package channel

import (
	"context"
	"time"

	"Weave/internal/model"
	"Weave/internal/repository"
)

// RepositoryDataSource 生产数据面，直接走数据库
type RepositoryDataSource struct{}

func (RepositoryDataSource) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	return repository.GetUserByID(ctx, userID)
}

func (RepositoryDataSource) ListFriends(ctx context.Context, userID int64) ([]model.Friend, error) {
	return repository.ListFriends(ctx, userID)
}

func (RepositoryDataSource) GetFriendByID(ctx context.Context, userID, friendID int64) (*model.Friend, error) {
	return repository.GetFriendByID(ctx, userID, friendID)
}

func (RepositoryDataSource) ListFriendsWithAnniversaryAround(ctx context.Context, userID int64, from, to time.Time) ([]model.Friend, error) {
	return repository.ListFriendsWithAnniversaryAround(ctx, userID, from, to)
}

func (RepositoryDataSource) GetInteractionByID(ctx context.Context, userID, interactionID int64) (*model.Interaction, error) {
	return repository.GetInteractionByID(ctx, userID, interactionID)
}

func (RepositoryDataSource) ListPlannedBetween(ctx context.Context, userID int64, from, to time.Time) ([]model.Interaction, error) {
	return repository.ListPlannedBetween(ctx, userID, from, to)
}

func (RepositoryDataSource) ListCompletedBetween(ctx context.Context, userID int64, from, to time.Time) ([]model.Interaction, error) {
	return repository.ListCompletedBetween(ctx, userID, from, to)
}

func (RepositoryDataSource) ListInteractionFriends(ctx context.Context, interactionID int64) ([]model.Friend, error) {
	return repository.ListInteractionFriends(ctx, interactionID)
}

func (RepositoryDataSource) HasPlannedWithFriend(ctx context.Context, userID, friendID int64, from, to time.Time) (bool, error) {
	return repository.HasPlannedWithFriend(ctx, userID, friendID, from, to)
}

func (RepositoryDataSource) UpsertDailyDigest(ctx context.Context, digest *model.DailyDigest) error {
	return repository.UpsertDailyDigest(ctx, digest)
}

func (RepositoryDataSource) GetDailyDigest(ctx context.Context, userID int64, day time.Time) (*model.DailyDigest, error) {
	return repository.GetDailyDigest(ctx, userID, day)
}
