package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"

	"Weave/internal/middleware"
	"Weave/internal/repository"
	weaveerrors "Weave/pkg/errors"
	"Weave/pkg/response"
	"Weave/utils"
)

// GetTodayDigest 查询今日摘要。尚未生成（用户还没点按晚间通知）时返回 404。
func GetTodayDigest(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(ctx, c, weaveerrors.Unauthorized)
		return
	}

	digest, err := repository.GetDailyDigest(ctx, userID, time.Now())
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]interface{}{
		"date":         utils.DayKey(digest.DigestDate),
		"items":        digest.Items,
		"generated_at": digest.GeneratedAt,
	})
}
