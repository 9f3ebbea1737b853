package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"

	"Weave/internal/middleware"
	"Weave/internal/model"
	"Weave/internal/store"
	weaveerrors "Weave/pkg/errors"
	"Weave/pkg/response"
)

// InitNotifications 客户端冷启动：确保编排器就绪并跑一轮启动巡检
func InitNotifications(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(ctx, c, weaveerrors.Unauthorized)
		return
	}

	if err := orch.Init(ctx); err != nil {
		response.Error(ctx, c, err)
		return
	}
	if err := orch.RunStartupChecks(ctx, userID); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, map[string]interface{}{"initialized": true})
}

// OnForeground 客户端回到前台
func OnForeground(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(ctx, c, weaveerrors.Unauthorized)
		return
	}

	if err := orch.OnAppForeground(ctx, userID); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}

// RunBackground 手动触发一轮后台检查，调试与运维用
func RunBackground(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(ctx, c, weaveerrors.Unauthorized)
		return
	}

	if err := orch.RunBackgroundChecks(ctx, userID); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}

// EvaluateRequest 单渠道评估请求
type EvaluateRequest struct {
	Type string `json:"type" vd:"len($)>0"`
}

// EvaluateChannel 对单个渠道立即做一次评估与排期
func EvaluateChannel(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(ctx, c, weaveerrors.Unauthorized)
		return
	}

	var req EvaluateRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	ch, ok := orch.Channel(model.NotificationType(req.Type))
	if !ok {
		response.Error(ctx, c, weaveerrors.NotificationTypeInvalid)
		return
	}

	user, err := orch.User(ctx, userID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	out, err := ch.Schedule(ctx, user, time.Now())
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, map[string]interface{}{
		"scheduled": out.Scheduled,
		"cancelled": out.Cancelled,
		"reason":    out.Reason,
	})
}

// ResetNotifications 取消全部在途通知并清空通知状态
func ResetNotifications(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(ctx, c, weaveerrors.Unauthorized)
		return
	}

	cancelled, err := orch.CancelAll(ctx, userID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	if err := store.ClearUserState(ctx, userID); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, map[string]interface{}{"cancelled": cancelled})
}

// HandleTap 通知点按回报
func HandleTap(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(ctx, c, weaveerrors.Unauthorized)
		return
	}

	intent, err := orch.Router().HandleTap(ctx, userID, c.Request.Body())
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, map[string]interface{}{"intent": string(intent)})
}

// ListScheduled 查询某渠道的在途排期
func ListScheduled(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(ctx, c, weaveerrors.Unauthorized)
		return
	}

	t := model.NotificationType(c.Query("type"))
	if _, ok := orch.Channel(t); !ok {
		response.Error(ctx, c, weaveerrors.NotificationTypeInvalid)
		return
	}

	entries, err := orch.Scheduled(ctx, userID, t)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	items := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		items = append(items, map[string]interface{}{
			"notification_id": e.NotificationID,
			"scheduled_for":   e.ScheduledFor,
		})
	}
	response.Success(ctx, c, items)
}
