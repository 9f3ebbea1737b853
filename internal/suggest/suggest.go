package suggest

import (
	"context"
	"fmt"
	"time"

	"Weave/internal/model"
)

// Suggestion 一条联络建议
type Suggestion struct {
	ID         string
	FriendID   int64
	FriendName string
	Category   model.SuggestionCategory
	Urgency    model.Urgency
	DaysSince  int
	EventTitle string
	EventDate  string
}

// Source 建议来源。默认实现是漂移启发式，后续可换成打分模型。
type Source interface {
	Generate(ctx context.Context, userID int64, now time.Time) ([]Suggestion, error)
}

// 各圈层的期望联络间隔
var circleIntervals = map[string]time.Duration{
	"inner":     7 * 24 * time.Hour,
	"close":     21 * 24 * time.Hour,
	"community": 60 * 24 * time.Hour,
}

const defaultInterval = 30 * 24 * time.Hour

// ExpectedInterval 圈层对应的期望联络间隔
func ExpectedInterval(circle string) time.Duration {
	if d, ok := circleIntervals[circle]; ok {
		return d
	}
	return defaultInterval
}

// Classify 按逾期倍数划分紧急度。不足一个期望间隔返回 false。
func Classify(sinceLast, expected time.Duration) (model.Urgency, model.SuggestionCategory, bool) {
	if expected <= 0 || sinceLast < expected {
		return "", "", false
	}
	ratio := float64(sinceLast) / float64(expected)
	switch {
	case ratio >= 3:
		return model.UrgencyCritical, model.SuggestionCategoryCriticalDrift, true
	case ratio >= 2:
		return model.UrgencyHigh, model.SuggestionCategoryReconnect, true
	case ratio >= 1.25:
		return model.UrgencyMedium, model.SuggestionCategoryReconnect, true
	default:
		return model.UrgencyLow, model.SuggestionCategoryMaintain, true
	}
}

// SuggestionID 同一朋友同一天的建议 ID 稳定，重复排期互相覆盖
func SuggestionID(friendID int64, day string) string {
	return fmt.Sprintf("suggest:%d:%s", friendID, day)
}
