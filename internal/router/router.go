package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"Weave/internal/handler"
	"Weave/internal/middleware"
)

func Register(h *server.Hertz) {

	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.OpenTelemetryMiddleware())

	v1 := h.Group("/v1")

	// 通知编排路由
	notifications := v1.Group("/notifications")
	notifications.Use(middleware.IdentityMiddleware())
	{
		notifications.POST("/init", handler.InitNotifications)
		notifications.POST("/foreground", handler.OnForeground)
		notifications.POST("/background-run", handler.RunBackground)
		notifications.POST("/evaluate", handler.EvaluateChannel)
		notifications.POST("/reset", handler.ResetNotifications)
		notifications.POST("/taps", handler.HandleTap)
		notifications.GET("/scheduled", handler.ListScheduled)
	}

	// 通知偏好路由
	prefs := v1.Group("/notification-preferences")
	prefs.Use(middleware.IdentityMiddleware())
	{
		prefs.GET("", handler.GetPreferences)
		prefs.PUT("", handler.UpdatePreferences)
	}

	// 用户路由
	users := v1.Group("/users")
	users.Use(middleware.IdentityMiddleware())
	{
		users.PUT("/me/push-token", handler.UpdatePushToken)
	}

	// 摘要路由
	digests := v1.Group("/digests")
	digests.Use(middleware.IdentityMiddleware())
	{
		digests.GET("/today", handler.GetTodayDigest)
	}

	// 事件上报路由
	events := v1.Group("/events")
	events.Use(middleware.IdentityMiddleware())
	{
		events.POST("/interactions", handler.ReportInteractionEvent)
	}
}
