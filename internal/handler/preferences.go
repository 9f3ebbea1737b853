package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"

	"Weave/internal/middleware"
	"Weave/internal/model"
	"Weave/internal/repository"
	weaveerrors "Weave/pkg/errors"
	"Weave/pkg/response"
	"Weave/utils"
)

// GetPreferences 查询通知偏好
func GetPreferences(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(ctx, c, weaveerrors.Unauthorized)
		return
	}

	user, err := repository.GetUserByID(ctx, userID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]interface{}{
		"frequency":             user.Frequency,
		"quiet_hours_start":     user.QuietHoursStart,
		"quiet_hours_end":       user.QuietHoursEnd,
		"respect_battery":       user.RespectBattery,
		"digest_enabled":        user.DigestEnabled,
		"digest_time":           user.DigestTime,
		"max_daily_suggestions": user.MaxDailySuggestions,
		"reflection_weekday":    user.ReflectionWeekday,
		"reflection_time":       user.ReflectionTime,
		"checkin_remind_at":     user.CheckinRemindAt,
		"season":                user.Season,
		"energy_level":          user.EnergyLevel,
	})
}

// UpdatePreferencesRequest 偏好更新请求，全部字段可选
type UpdatePreferencesRequest struct {
	Frequency           *string `json:"frequency"`
	QuietHoursStart     *int    `json:"quiet_hours_start"`
	QuietHoursEnd       *int    `json:"quiet_hours_end"`
	RespectBattery      *bool   `json:"respect_battery"`
	DigestEnabled       *bool   `json:"digest_enabled"`
	DigestTime          *string `json:"digest_time"`
	MaxDailySuggestions *int    `json:"max_daily_suggestions"`
	ReflectionWeekday   *int    `json:"reflection_weekday"`
	ReflectionTime      *string `json:"reflection_time"`
	CheckinRemindAt     *string `json:"checkin_remind_at"`
	Season              *string `json:"season"`
	EnergyLevel         *int    `json:"energy_level"`
}

func validFrequency(f string) bool {
	switch model.NotificationFrequency(f) {
	case model.FrequencyLight, model.FrequencyModerate, model.FrequencyProactive:
		return true
	}
	return false
}

func validSeason(s string) bool {
	switch model.SocialSeason(s) {
	case model.SeasonResting, model.SeasonBalanced, model.SeasonBlooming:
		return true
	}
	return false
}

// validClockTime 校验 HH:MM:SS 时刻串，空串表示关闭也算合法。
// 排期巡检按这个格式解析，坏值落库会让后续每轮排期都报错。
func validClockTime(s string) bool {
	_, err := utils.ParseTime(s, time.Now())
	return err == nil
}

// UpdatePreferences 更新通知偏好。偏好变更后立刻重排受影响的渠道，
// 旧偏好下的排期不会残留到下一次巡检。
func UpdatePreferences(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(ctx, c, weaveerrors.Unauthorized)
		return
	}

	var req UpdatePreferencesRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	updates := map[string]interface{}{}
	if req.Frequency != nil {
		if !validFrequency(*req.Frequency) {
			response.Error(ctx, c, weaveerrors.PreferencesInvalid)
			return
		}
		updates["frequency"] = *req.Frequency
	}
	if req.QuietHoursStart != nil {
		if *req.QuietHoursStart < 0 || *req.QuietHoursStart > 23 {
			response.Error(ctx, c, weaveerrors.PreferencesInvalid)
			return
		}
		updates["quiet_hours_start"] = *req.QuietHoursStart
	}
	if req.QuietHoursEnd != nil {
		if *req.QuietHoursEnd < 0 || *req.QuietHoursEnd > 23 {
			response.Error(ctx, c, weaveerrors.PreferencesInvalid)
			return
		}
		updates["quiet_hours_end"] = *req.QuietHoursEnd
	}
	if req.RespectBattery != nil {
		updates["respect_battery"] = *req.RespectBattery
	}
	if req.DigestEnabled != nil {
		updates["digest_enabled"] = *req.DigestEnabled
	}
	if req.DigestTime != nil {
		if !validClockTime(*req.DigestTime) {
			response.Error(ctx, c, weaveerrors.PreferencesInvalid)
			return
		}
		updates["digest_time"] = *req.DigestTime
	}
	if req.MaxDailySuggestions != nil {
		if *req.MaxDailySuggestions < 0 || *req.MaxDailySuggestions > 10 {
			response.Error(ctx, c, weaveerrors.PreferencesInvalid)
			return
		}
		updates["max_daily_suggestions"] = *req.MaxDailySuggestions
	}
	if req.ReflectionWeekday != nil {
		if *req.ReflectionWeekday < 0 || *req.ReflectionWeekday > 6 {
			response.Error(ctx, c, weaveerrors.PreferencesInvalid)
			return
		}
		updates["reflection_weekday"] = *req.ReflectionWeekday
	}
	if req.ReflectionTime != nil {
		if !validClockTime(*req.ReflectionTime) {
			response.Error(ctx, c, weaveerrors.PreferencesInvalid)
			return
		}
		updates["reflection_time"] = *req.ReflectionTime
	}
	if req.CheckinRemindAt != nil {
		if !validClockTime(*req.CheckinRemindAt) {
			response.Error(ctx, c, weaveerrors.PreferencesInvalid)
			return
		}
		updates["checkin_remind_at"] = *req.CheckinRemindAt
	}
	if req.Season != nil {
		if !validSeason(*req.Season) {
			response.Error(ctx, c, weaveerrors.PreferencesInvalid)
			return
		}
		updates["season"] = *req.Season
	}
	if req.EnergyLevel != nil {
		if *req.EnergyLevel < 0 || *req.EnergyLevel > 100 {
			response.Error(ctx, c, weaveerrors.PreferencesInvalid)
			return
		}
		updates["energy_level"] = *req.EnergyLevel
	}

	if err := repository.UpdateUserPreferences(ctx, userID, updates); err != nil {
		response.Error(ctx, c, err)
		return
	}

	// 偏好生效后重跑巡检，清理幽灵排期并按新时刻重排
	if orch.Ready() {
		if err := orch.RunStartupChecks(ctx, userID); err != nil {
			response.Error(ctx, c, err)
			return
		}
	}
	response.NoContent(ctx, c)
}

// UpdatePushTokenRequest 推送令牌注册请求
type UpdatePushTokenRequest struct {
	Target string `json:"target" vd:"len($)>0"`
}

// UpdatePushToken 注册投递目标
func UpdatePushToken(ctx context.Context, c *app.RequestContext) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(ctx, c, weaveerrors.Unauthorized)
		return
	}

	var req UpdatePushTokenRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	if err := repository.UpdatePushTarget(ctx, userID, req.Target); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}
