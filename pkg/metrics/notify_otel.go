package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics 通知编排指标集合，作为各渠道的旁路分析记录器。
// 所有 Record* 方法都是 fire-and-forget，不得阻塞调度主流程。
type OTelMetrics struct {
	NotificationsScheduledTotal metric.Int64Counter
	NotificationsCancelledTotal metric.Int64Counter
	NotificationsDeliveredTotal metric.Int64Counter
	NotificationsTappedTotal    metric.Int64Counter
	NotificationsDeclinedTotal  metric.Int64Counter
	SchedulePassDuration        metric.Float64Histogram
	BudgetExhaustedTotal        metric.Int64Counter
	LiveNotifications           metric.Int64UpDownCounter
}

var (
	// 全局指标实例
	metrics *OTelMetrics
	// meter 用于创建指标
	meter = otel.Meter("weave")
)

// InitMetrics 初始化 OpenTelemetry 指标
func InitMetrics() error {
	var err error

	metrics = &OTelMetrics{}

	metrics.NotificationsScheduledTotal, err = meter.Int64Counter(
		"weave_notifications_scheduled_total",
		metric.WithDescription("Total number of notifications scheduled"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return err
	}

	metrics.NotificationsCancelledTotal, err = meter.Int64Counter(
		"weave_notifications_cancelled_total",
		metric.WithDescription("Total number of notifications cancelled"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return err
	}

	metrics.NotificationsDeliveredTotal, err = meter.Int64Counter(
		"weave_notifications_delivered_total",
		metric.WithDescription("Total number of notifications delivered"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return err
	}

	metrics.NotificationsTappedTotal, err = meter.Int64Counter(
		"weave_notifications_tapped_total",
		metric.WithDescription("Total number of notification taps"),
		metric.WithUnit("{tap}"),
	)
	if err != nil {
		return err
	}

	metrics.NotificationsDeclinedTotal, err = meter.Int64Counter(
		"weave_notifications_declined_total",
		metric.WithDescription("Total number of scheduling attempts declined by policy"),
		metric.WithUnit("{decline}"),
	)
	if err != nil {
		return err
	}

	metrics.SchedulePassDuration, err = meter.Float64Histogram(
		"weave_schedule_pass_duration_seconds",
		metric.WithDescription("Duration of a full channel scheduling pass"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	metrics.BudgetExhaustedTotal, err = meter.Int64Counter(
		"weave_budget_exhausted_total",
		metric.WithDescription("Total number of budget-gated attempts that found the daily budget exhausted"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return err
	}

	metrics.LiveNotifications, err = meter.Int64UpDownCounter(
		"weave_live_notifications",
		metric.WithDescription("Number of currently scheduled platform notifications"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// GetMetrics 获取全局指标实例
func GetMetrics() *OTelMetrics {
	return metrics
}

// RecordScheduled 记录通知调度成功
func (m *OTelMetrics) RecordScheduled(ctx context.Context, channel string) {
	if m == nil {
		return
	}
	m.NotificationsScheduledTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", channel),
	))
	m.LiveNotifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", channel),
	))
}

// RecordCancelled 记录通知取消
func (m *OTelMetrics) RecordCancelled(ctx context.Context, channel string, count int64) {
	if m == nil {
		return
	}
	m.NotificationsCancelledTotal.Add(ctx, count, metric.WithAttributes(
		attribute.String("channel", channel),
	))
	m.LiveNotifications.Add(ctx, -count, metric.WithAttributes(
		attribute.String("channel", channel),
	))
}

// RecordDelivered 记录通知投递完成
func (m *OTelMetrics) RecordDelivered(ctx context.Context, channel, provider string) {
	if m == nil {
		return
	}
	m.NotificationsDeliveredTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("provider", provider),
	))
	m.LiveNotifications.Add(ctx, -1, metric.WithAttributes(
		attribute.String("channel", channel),
	))
}

// RecordTapped 记录用户点击通知
func (m *OTelMetrics) RecordTapped(ctx context.Context, channel string) {
	if m == nil {
		return
	}
	m.NotificationsTappedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", channel),
	))
}

// RecordDeclined 记录策略拒绝（宽限期、预算耗尽、静默时段等）
func (m *OTelMetrics) RecordDeclined(ctx context.Context, channel, reason string) {
	if m == nil {
		return
	}
	m.NotificationsDeclinedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("reason", reason),
	))
}

// RecordBudgetExhausted 记录预算耗尽
func (m *OTelMetrics) RecordBudgetExhausted(ctx context.Context, channel string) {
	if m == nil {
		return
	}
	m.BudgetExhaustedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", channel),
	))
}

// RecordSchedulePass 记录一次完整调度过程的耗时
func (m *OTelMetrics) RecordSchedulePass(ctx context.Context, trigger string, seconds float64) {
	if m == nil {
		return
	}
	m.SchedulePassDuration.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("trigger", trigger),
	))
}
