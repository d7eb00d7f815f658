/*
 * @module api/controllers/datasource_controller
 * @description 数据源控制器,提供数据源CRUD、连接管理与统计查询接口
 * @architecture MVC架构 - 控制器层
 * @stateFlow HTTP请求 -> 参数验证 -> 管理器调用 -> 响应返回
 * @rules 数据源类型必须合法;被任务引用的数据源不允许删除;响应中的连接凭据脱敏
 * @dependencies etl-service/service/datasource, etl-service/service/models
 * @refs api/routes.go
 */

package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"etl-service/service"
	"etl-service/service/datasource"
	"etl-service/service/models"
	"etl-service/service/pipeline"
	"etl-service/service/utils"
)

var credentialMasker = utils.NewCryptoUtils("")

// maskSensitiveConfig 返回连接配置脱敏后的数据源副本,敏感字段不回传明文
func maskSensitiveConfig(ds *models.DataSource) *models.DataSource {
	if ds == nil || ds.ConnectionConfig == nil {
		return ds
	}
	masked := *ds
	config := make(models.JSONB, len(ds.ConnectionConfig))
	for k, v := range ds.ConnectionConfig {
		config[k] = v
	}
	for _, key := range utils.SensitiveConfigKeys {
		if raw, ok := config[key].(string); ok && raw != "" {
			config[key] = credentialMasker.MaskGeneral(raw, 0, 0)
		}
	}
	masked.ConnectionConfig = config
	return &masked
}

// maskSensitiveConfigs 批量脱敏
func maskSensitiveConfigs(sources []*models.DataSource) []*models.DataSource {
	masked := make([]*models.DataSource, len(sources))
	for i, ds := range sources {
		masked[i] = maskSensitiveConfig(ds)
	}
	return masked
}

// DataSourceController 数据源控制器
type DataSourceController struct {
	manager   *pipeline.Manager
	dsManager *datasource.Manager
}

// NewDataSourceController 创建数据源控制器
func NewDataSourceController() *DataSourceController {
	return &DataSourceController{
		manager:   service.GlobalPipelineManager,
		dsManager: service.GlobalDataSourceManager,
	}
}

// CreateDataSource 创建数据源
// @Summary 创建数据源
// @Description 注册新数据源,常驻类型立即建立连接
// @Tags 数据源管理
// @Accept json
// @Produce json
// @Param datasource body models.DataSource true "数据源配置"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /datasources [post]
func (c *DataSourceController) CreateDataSource(w http.ResponseWriter, r *http.Request) {
	var ds models.DataSource
	if err := json.NewDecoder(r.Body).Decode(&ds); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数解析失败", err))
		return
	}

	if err := c.manager.AddDataSource(r.Context(), &ds); err != nil {
		render.JSON(w, r, BadRequestResponse("创建数据源失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("创建数据源成功", maskSensitiveConfig(&ds)))
}

// GetDataSource 获取数据源详情
// @Summary 获取数据源详情
// @Tags 数据源管理
// @Produce json
// @Param id path string true "数据源ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /datasources/{id} [get]
func (c *DataSourceController) GetDataSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ds, ok := c.manager.GetDataSource(id)
	if !ok {
		render.JSON(w, r, NotFoundResponse("数据源不存在"))
		return
	}
	render.JSON(w, r, SuccessResponse("获取数据源成功", maskSensitiveConfig(ds)))
}

// ListDataSources 列出所有数据源
// @Summary 获取数据源列表
// @Tags 数据源管理
// @Produce json
// @Success 200 {object} APIResponse
// @Router /datasources [get]
func (c *DataSourceController) ListDataSources(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("获取数据源列表成功", maskSensitiveConfigs(c.manager.ListDataSources())))
}

// DeleteDataSource 删除数据源
// @Summary 删除数据源
// @Description 删除数据源并断开连接,被任务引用时拒绝
// @Tags 数据源管理
// @Produce json
// @Param id path string true "数据源ID"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /datasources/{id} [delete]
func (c *DataSourceController) DeleteDataSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := c.manager.RemoveDataSource(r.Context(), id); err != nil {
		render.JSON(w, r, BadRequestResponse("删除数据源失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("删除数据源成功", nil))
}

// Connect 建立数据源连接
// @Summary 建立数据源连接
// @Tags 数据源管理
// @Produce json
// @Param id path string true "数据源ID"
// @Success 200 {object} APIResponse
// @Router /datasources/{id}/connect [post]
func (c *DataSourceController) Connect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result := c.dsManager.Connect(r.Context(), id)
	if !result.Success {
		render.JSON(w, r, BadRequestResponse(result.Message, nil))
		return
	}
	render.JSON(w, r, SuccessResponse("连接成功", result))
}

// Disconnect 断开数据源连接
// @Summary 断开数据源连接
// @Description 释放连接并标记为未连接,数据源注册信息保留
// @Tags 数据源管理
// @Produce json
// @Param id path string true "数据源ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /datasources/{id}/disconnect [post]
func (c *DataSourceController) Disconnect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result := c.dsManager.Disconnect(r.Context(), id)
	if !result.Success {
		render.JSON(w, r, NotFoundResponse(result.Message))
		return
	}
	render.JSON(w, r, SuccessResponse("断开连接成功", result))
}

// TestConnection 测试数据源连通性
// @Summary 测试数据源连通性
// @Description 执行健康检查但不改变连接状态
// @Tags 数据源管理
// @Produce json
// @Param id path string true "数据源ID"
// @Success 200 {object} APIResponse
// @Router /datasources/{id}/test [post]
func (c *DataSourceController) TestConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result := c.dsManager.TestConnection(r.Context(), id)
	render.JSON(w, r, SuccessResponse("连通性测试完成", result))
}

// GetStatistics 获取数据源执行统计
// @Summary 获取数据源执行统计
// @Tags 数据源管理
// @Produce json
// @Param id path string true "数据源ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /datasources/{id}/statistics [get]
func (c *DataSourceController) GetStatistics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	stats, ok := c.dsManager.GetStatistics(id)
	if !ok {
		render.JSON(w, r, NotFoundResponse("数据源不存在"))
		return
	}
	render.JSON(w, r, SuccessResponse("获取统计成功", stats))
}
