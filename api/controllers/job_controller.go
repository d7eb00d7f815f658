/*
 * @module api/controllers/job_controller
 * @description ETL任务控制器,提供任务CRUD、手动执行与执行历史查询接口
 * @architecture MVC架构 - 控制器层
 * @stateFlow HTTP请求 -> 参数验证 -> 管道管理器调用 -> 响应返回
 * @rules 并发执行同一任务返回409;执行是同步的,响应中携带执行结果
 * @dependencies etl-service/service/pipeline, etl-service/service/models
 * @refs api/routes.go
 */

package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"etl-service/service"
	"etl-service/service/meta"
	"etl-service/service/models"
	"etl-service/service/pipeline"
)

// JobController ETL任务控制器
type JobController struct {
	manager *pipeline.Manager
}

// NewJobController 创建任务控制器
func NewJobController() *JobController {
	return &JobController{manager: service.GlobalPipelineManager}
}

// JobCreateRequest 创建任务请求
type JobCreateRequest struct {
	Name           string           `json:"name" binding:"required" example:"每日估值同步"`
	Description    string           `json:"description,omitempty"`
	SourceIDs      []string         `json:"source_ids" binding:"required,min=1"`
	DestinationIDs []string         `json:"destination_ids" binding:"required,min=1"`
	RuleIDs        []string         `json:"rule_ids,omitempty"`
	Schedule       *models.Schedule `json:"schedule,omitempty"`
	IsEnabled      *bool            `json:"is_enabled,omitempty"`
}

// CreateJob 创建ETL任务
// @Summary 创建ETL任务
// @Description 创建任务并完成数据源/规则引用校验,带调度配置的任务自动登记调度
// @Tags 任务管理
// @Accept json
// @Produce json
// @Param job body JobCreateRequest true "任务配置"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /jobs [post]
func (c *JobController) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req JobCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数解析失败", err))
		return
	}

	job := &models.ETLJob{
		Name:           req.Name,
		Description:    req.Description,
		SourceIDs:      req.SourceIDs,
		DestinationIDs: req.DestinationIDs,
		RuleIDs:        req.RuleIDs,
		Schedule:       req.Schedule,
		IsEnabled:      true,
	}
	if req.IsEnabled != nil {
		job.IsEnabled = *req.IsEnabled
	}

	if err := c.manager.AddJob(job); err != nil {
		render.JSON(w, r, BadRequestResponse("创建任务失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("创建任务成功", job))
}

// GetJob 获取任务详情
// @Summary 获取任务详情
// @Tags 任务管理
// @Produce json
// @Param id path string true "任务ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /jobs/{id} [get]
func (c *JobController) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := c.manager.GetJob(id)
	if !ok {
		render.JSON(w, r, NotFoundResponse("任务不存在"))
		return
	}
	render.JSON(w, r, SuccessResponse("获取任务成功", job))
}

// ListJobs 列出所有任务
// @Summary 获取任务列表
// @Tags 任务管理
// @Produce json
// @Success 200 {object} APIResponse
// @Router /jobs [get]
func (c *JobController) ListJobs(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("获取任务列表成功", c.manager.ListJobs()))
}

// UpdateJob 更新任务
// @Summary 更新任务
// @Description 更新任务配置并重建调度登记,运行中任务不允许更新
// @Tags 任务管理
// @Accept json
// @Produce json
// @Param id path string true "任务ID"
// @Param job body models.ETLJob true "任务配置"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /jobs/{id} [put]
func (c *JobController) UpdateJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var job models.ETLJob
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数解析失败", err))
		return
	}
	job.ID = id

	if err := c.manager.UpdateJob(&job); err != nil {
		render.JSON(w, r, BadRequestResponse("更新任务失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("更新任务成功", &job))
}

// DeleteJob 删除任务
// @Summary 删除任务
// @Tags 任务管理
// @Produce json
// @Param id path string true "任务ID"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /jobs/{id} [delete]
func (c *JobController) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := c.manager.RemoveJob(id); err != nil {
		render.JSON(w, r, BadRequestResponse("删除任务失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("删除任务成功", nil))
}

// ExecuteJob 手动执行任务
// @Summary 手动执行任务
// @Description 同步执行任务的抽取-转换-加载流程,同一任务并发执行返回409
// @Tags 任务管理
// @Produce json
// @Param id path string true "任务ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Failure 409 {object} APIResponse
// @Router /jobs/{id}/execute [post]
func (c *JobController) ExecuteJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	execution, err := c.manager.ExecuteJob(r.Context(), id, meta.TriggerTypeManual)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrJobNotFound):
			render.JSON(w, r, NotFoundResponse(err.Error()))
		case errors.Is(err, pipeline.ErrJobRunning):
			render.JSON(w, r, ConflictResponse("任务正在执行中", err))
		default:
			render.JSON(w, r, BadRequestResponse("任务执行失败", err))
		}
		return
	}
	render.JSON(w, r, SuccessResponse("任务执行完成", execution))
}

// GetExecutions 获取任务执行历史
// @Summary 获取任务执行历史
// @Description 返回任务最近的执行记录,最新在前
// @Tags 任务管理
// @Produce json
// @Param id path string true "任务ID"
// @Success 200 {object} APIResponse
// @Router /jobs/{id}/executions [get]
func (c *JobController) GetExecutions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := c.manager.GetJob(id); !ok {
		render.JSON(w, r, NotFoundResponse("任务不存在"))
		return
	}
	render.JSON(w, r, SuccessResponse("获取执行历史成功", c.manager.GetExecutions(id)))
}
