/*
 * @module api/controllers/meta_controller
 * @description 元数据控制器,向前端暴露枚举常量表供下拉选项和校验使用
 * @architecture MVC架构 - 控制器层
 * @stateFlow 无状态HTTP请求处理
 * @rules 元数据为静态常量表,响应可长期缓存
 * @dependencies etl-service/service/meta
 * @refs api/routes.go
 */

package controllers

import (
	"net/http"

	"github.com/go-chi/render"

	"etl-service/service/meta"
)

// MetaController 元数据控制器
type MetaController struct{}

// NewMetaController 创建元数据控制器
func NewMetaController() *MetaController {
	return &MetaController{}
}

// GetMeta 获取所有枚举常量表
// @Summary 获取枚举常量表
// @Description 返回数据源类型、规则类型、任务状态、调度频率与告警枚举
// @Tags 系统
// @Produce json
// @Success 200 {object} APIResponse
// @Router /meta [get]
func (c *MetaController) GetMeta(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("获取元数据成功", map[string]interface{}{
		"data_source_types":    meta.DataSourceTypes,
		"rule_types":           meta.RuleTypes,
		"job_statuses":         meta.JobStatuses,
		"schedule_frequencies": meta.ScheduleFrequencies,
		"alert_types":          meta.AlertTypes,
		"alert_severities":     meta.AlertSeverities,
		"alert_categories":     meta.AlertCategories,
	}))
}
