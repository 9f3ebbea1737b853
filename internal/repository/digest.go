package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Weave/internal/model"
	weaveerrors "Weave/pkg/errors"
	"Weave/storage/database"
	"Weave/utils"
)

// UpsertDailyDigest 以 (user_id, digest_date) 为冲突键覆盖写入
func UpsertDailyDigest(ctx context.Context, digest *model.DailyDigest) error {
	err := database.DB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "digest_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"items", "generated_at", "updated_at"}),
		}).
		Create(digest).Error
	if err != nil {
		return fmt.Errorf("failed to upsert daily digest: %w", err)
	}
	return nil
}

// GetDailyDigest 取某日摘要
func GetDailyDigest(ctx context.Context, userID int64, day time.Time) (*model.DailyDigest, error) {
	var digest model.DailyDigest
	err := database.DB().WithContext(ctx).
		Where("user_id = ? AND digest_date = ?", userID, utils.StartOfDay(day)).
		First(&digest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, weaveerrors.DigestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily digest: %w", err)
	}
	return &digest, nil
}
