/*
 * @module api/controllers/status_controller
 * @description 系统状态控制器,提供系统状态汇总与调度登记查询接口
 * @architecture MVC架构 - 控制器层
 * @stateFlow HTTP请求 -> 管道管理器/调度器查询 -> 响应返回
 * @rules 状态汇总为只读快照,不加全局锁
 * @dependencies etl-service/service/pipeline, etl-service/service/scheduler
 * @refs api/routes.go
 */

package controllers

import (
	"net/http"

	"github.com/go-chi/render"

	"etl-service/service"
	"etl-service/service/pipeline"
	"etl-service/service/scheduler"
)

// StatusController 系统状态控制器
type StatusController struct {
	manager   *pipeline.Manager
	scheduler *scheduler.Scheduler
}

// NewStatusController 创建状态控制器
func NewStatusController() *StatusController {
	return &StatusController{
		manager:   service.GlobalPipelineManager,
		scheduler: service.GlobalScheduler,
	}
}

// GetSystemStatus 获取系统状态汇总
// @Summary 获取系统状态汇总
// @Description 返回任务/数据源/规则数量、运行中任务数与最近失败时间
// @Tags 系统
// @Produce json
// @Success 200 {object} APIResponse
// @Router /status [get]
func (c *StatusController) GetSystemStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("获取系统状态成功", c.manager.GetSystemStatus()))
}

// GetScheduledJobs 获取调度登记列表
// @Summary 获取调度登记列表
// @Description 返回所有已登记调度的任务及下次触发时间
// @Tags 系统
// @Produce json
// @Success 200 {object} APIResponse
// @Router /status/scheduled [get]
func (c *StatusController) GetScheduledJobs(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("获取调度列表成功", c.scheduler.GetAllScheduledJobs()))
}

// GetExcludedJobs 获取初始化排除任务列表
// @Summary 获取初始化排除任务列表
// @Description 返回初始化时因引用校验失败被排除的任务及原因
// @Tags 系统
// @Produce json
// @Success 200 {object} APIResponse
// @Router /status/excluded [get]
func (c *StatusController) GetExcludedJobs(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("获取排除任务列表成功", c.manager.ExcludedJobs()))
}
