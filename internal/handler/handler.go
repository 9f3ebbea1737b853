package handler

import "Weave/internal/orchestrate"

var orch *orchestrate.Orchestrator

// Setup 注入编排器实例，路由注册前调用
func Setup(o *orchestrate.Orchestrator) {
	orch = o
}
