package middleware

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"Weave/pkg/errors"
	"Weave/pkg/response"
)

const userIDKey = "user_id"

// IdentityMiddleware 从网关注入的 X-User-ID 头解析用户身份。
// 鉴权在上游网关完成，服务内部只消费结果。
func IdentityMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		raw := string(c.GetHeader("X-User-ID"))
		if raw == "" {
			response.Error(ctx, c, errors.Unauthorized)
			c.Abort()
			return
		}

		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			response.Error(ctx, c, errors.InvalidUserID)
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next(ctx)
	}
}

// GetUserID 取出当前请求的用户 ID
func GetUserID(c *app.RequestContext) (int64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
