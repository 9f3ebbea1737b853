package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"

	"Weave/internal/middleware"
	"Weave/internal/model"
	"Weave/internal/queue"
	weaveerrors "Weave/pkg/errors"
	"Weave/pkg/response"
)

// InteractionEventRequest 约定生命周期事件上报
type InteractionEventRequest struct {
	Kind          string    `json:"kind" vd:"len($)>0"`
	InteractionID int64     `json:"interaction_id" vd:"$>0"`
	OccursAt      time.Time `json:"occurs_at"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
}

// ReportInteractionEvent 主应用上报约定变更，异步驱动提醒重排
func ReportInteractionEvent(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(ctx, c, weaveerrors.Unauthorized)
		return
	}

	var req InteractionEventRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	kind := model.InteractionEventKind(req.Kind)
	switch kind {
	case model.InteractionCreated, model.InteractionUpdated,
		model.InteractionCompleted, model.InteractionCancelled:
	default:
		response.BindError(ctx, c, weaveerrors.Get("INVALID_EVENT_KIND"))
		return
	}

	msg := model.InteractionEventMessage{
		Kind:          kind,
		UserID:        userID,
		InteractionID: req.InteractionID,
		OccursAt:      req.OccursAt,
		Title:         req.Title,
		Category:      model.InteractionCategory(req.Category),
	}
	if err := queue.PublishInteractionEvent(ctx, msg); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}
