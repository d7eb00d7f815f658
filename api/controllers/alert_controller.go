/*
 * @module api/controllers/alert_controller
 * @description 告警控制器,提供告警查询、过滤与确认接口
 * @architecture MVC架构 - 控制器层
 * @stateFlow HTTP请求 -> 过滤条件解析 -> 告警注册表查询 -> 响应返回
 * @rules 列表按创建时间倒序;确认操作幂等
 * @dependencies etl-service/service/alert
 * @refs api/routes.go
 */

package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"etl-service/service"
	"etl-service/service/alert"
)

// AlertController 告警控制器
type AlertController struct {
	registry *alert.Registry
}

// NewAlertController 创建告警控制器
func NewAlertController() *AlertController {
	return &AlertController{registry: service.GlobalAlertRegistry}
}

// GetAlerts 查询告警列表
// @Summary 查询告警列表
// @Description 按类型/严重级别/分类/确认状态过滤,创建时间倒序
// @Tags 告警管理
// @Produce json
// @Param type query string false "告警类型" Enums(info,warning,error,success)
// @Param severity query string false "严重级别" Enums(low,medium,high,critical)
// @Param category query string false "告警分类" Enums(system,job,connection,data-quality)
// @Param acknowledged query bool false "确认状态"
// @Param limit query int false "返回条数上限"
// @Success 200 {object} APIResponse
// @Router /alerts [get]
func (c *AlertController) GetAlerts(w http.ResponseWriter, r *http.Request) {
	filter := &alert.Filter{
		Type:     r.URL.Query().Get("type"),
		Severity: r.URL.Query().Get("severity"),
		Category: r.URL.Query().Get("category"),
	}
	if raw := r.URL.Query().Get("acknowledged"); raw != "" {
		acknowledged, err := strconv.ParseBool(raw)
		if err != nil {
			render.JSON(w, r, BadRequestResponse("无效的acknowledged参数", err))
			return
		}
		filter.Acknowledged = &acknowledged
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			render.JSON(w, r, BadRequestResponse("无效的limit参数", err))
			return
		}
		filter.Limit = limit
	}

	render.JSON(w, r, SuccessResponse("获取告警列表成功", c.registry.GetAlerts(filter)))
}

// GetAlert 获取告警详情
// @Summary 获取告警详情
// @Tags 告警管理
// @Produce json
// @Param id path string true "告警ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /alerts/{id} [get]
func (c *AlertController) GetAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := c.registry.GetAlert(id)
	if err != nil {
		render.JSON(w, r, NotFoundResponse("告警不存在"))
		return
	}
	render.JSON(w, r, SuccessResponse("获取告警成功", a))
}

// Acknowledge 确认告警
// @Summary 确认告警
// @Tags 告警管理
// @Produce json
// @Param id path string true "告警ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /alerts/{id}/acknowledge [post]
func (c *AlertController) Acknowledge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !c.registry.Acknowledge(id) {
		render.JSON(w, r, NotFoundResponse("告警不存在"))
		return
	}
	render.JSON(w, r, SuccessResponse("告警已确认", nil))
}

// GetAlertSummary 告警统计
// @Summary 告警统计
// @Description 返回告警总数与未确认数
// @Tags 告警管理
// @Produce json
// @Success 200 {object} APIResponse
// @Router /alerts/summary [get]
func (c *AlertController) GetAlertSummary(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("获取告警统计成功", map[string]int{
		"total":          c.registry.Count(),
		"unacknowledged": c.registry.CountUnacknowledged(),
	}))
}
