/*
 * @module api/controllers/rule_controller
 * @description 转换规则控制器,提供规则CRUD与配置校验接口
 * @architecture MVC架构 - 控制器层
 * @stateFlow HTTP请求 -> 参数验证 -> 管道管理器调用 -> 响应返回
 * @rules 规则配置在创建和更新时即完成校验;被任务引用的规则不允许删除
 * @dependencies etl-service/service/transform, etl-service/service/models
 * @refs api/routes.go
 */

package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"etl-service/service"
	"etl-service/service/models"
	"etl-service/service/pipeline"
	"etl-service/service/transform"
)

// RuleController 转换规则控制器
type RuleController struct {
	manager *pipeline.Manager
	engine  *transform.Engine
}

// NewRuleController 创建规则控制器
func NewRuleController() *RuleController {
	return &RuleController{
		manager: service.GlobalPipelineManager,
		engine:  service.GlobalTransformEngine,
	}
}

// CreateRule 创建转换规则
// @Summary 创建转换规则
// @Description 创建规则并校验配置,支持 filter/map/convert/aggregate/custom 类型
// @Tags 规则管理
// @Accept json
// @Produce json
// @Param rule body models.TransformationRule true "规则配置"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /rules [post]
func (c *RuleController) CreateRule(w http.ResponseWriter, r *http.Request) {
	var rule models.TransformationRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数解析失败", err))
		return
	}

	if err := c.manager.AddRule(&rule); err != nil {
		render.JSON(w, r, BadRequestResponse("创建规则失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("创建规则成功", &rule))
}

// GetRule 获取规则详情
// @Summary 获取规则详情
// @Tags 规则管理
// @Produce json
// @Param id path string true "规则ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /rules/{id} [get]
func (c *RuleController) GetRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rule, ok := c.manager.GetRule(id)
	if !ok {
		render.JSON(w, r, NotFoundResponse("转换规则不存在"))
		return
	}
	render.JSON(w, r, SuccessResponse("获取规则成功", rule))
}

// ListRules 列出所有规则
// @Summary 获取规则列表
// @Tags 规则管理
// @Produce json
// @Success 200 {object} APIResponse
// @Router /rules [get]
func (c *RuleController) ListRules(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("获取规则列表成功", c.manager.ListRules()))
}

// DeleteRule 删除规则
// @Summary 删除规则
// @Tags 规则管理
// @Produce json
// @Param id path string true "规则ID"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /rules/{id} [delete]
func (c *RuleController) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := c.manager.RemoveRule(id); err != nil {
		render.JSON(w, r, BadRequestResponse("删除规则失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("删除规则成功", nil))
}

// ValidateRule 校验规则配置
// @Summary 校验规则配置
// @Description 只校验不保存,用于前端编辑时的即时反馈
// @Tags 规则管理
// @Accept json
// @Produce json
// @Param rule body models.TransformationRule true "规则配置"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /rules/validate [post]
func (c *RuleController) ValidateRule(w http.ResponseWriter, r *http.Request) {
	var rule models.TransformationRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数解析失败", err))
		return
	}

	if err := c.engine.ValidateRule(&rule); err != nil {
		render.JSON(w, r, BadRequestResponse("规则配置无效", err))
		return
	}
	render.JSON(w, r, SuccessResponse("规则配置有效", nil))
}
