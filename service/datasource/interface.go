/*
 * @module service/datasource/interface
 * @description 数据源统一接口定义,约定数据源生命周期、执行请求与响应结构
 * @architecture 接口适配器模式 - 各类型数据源实现统一接口
 * @documentReference dev_docs/etl_datasource_req.md
 * @stateFlow 数据源生命周期: 初始化 -> 启动 -> 执行 -> 停止
 * @rules 所有数据源实现必须支持上下文取消和超时控制
 * @dependencies etl-service/service/models
 * @refs service/datasource/base.go, service/datasource/manager.go
 */

package datasource

import (
	"context"
	"time"

	"etl-service/service/models"
)

// 执行操作类型
const (
	OperationExtract = "extract" // 从数据源抽取行
	OperationLoad    = "load"    // 向数据源写入行
)

// ExecuteRequest 数据源执行请求
type ExecuteRequest struct {
	Operation string                   `json:"operation"` // extract/load
	Query     string                   `json:"query,omitempty"`
	Data      []map[string]interface{} `json:"data,omitempty"` // load 操作的行数据
	Params    map[string]interface{}   `json:"params,omitempty"`
	Timeout   time.Duration            `json:"timeout,omitempty"`
}

// ExecuteResponse 数据源执行响应
type ExecuteResponse struct {
	Success   bool                     `json:"success"`
	Data      []map[string]interface{} `json:"data,omitempty"`
	RowCount  int                      `json:"row_count"`
	Message   string                   `json:"message,omitempty"`
	Error     string                   `json:"error,omitempty"`
	ErrorType string                   `json:"error_type,omitempty"`
	Duration  time.Duration            `json:"duration"`
	Timestamp time.Time                `json:"timestamp"`
}

// HealthStatus 数据源健康状态
type HealthStatus struct {
	Status       string                 `json:"status"` // online/offline/error
	ResponseTime time.Duration          `json:"response_time"`
	LastCheck    time.Time              `json:"last_check"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// ConnectResult 连接测试结果
type ConnectResult struct {
	Success   bool          `json:"success"`
	Message   string        `json:"message,omitempty"`
	ErrorType string        `json:"error_type,omitempty"`
	Latency   time.Duration `json:"latency"`
}

// DataSourceInterface 数据源统一接口
type DataSourceInterface interface {
	// Init 初始化数据源,校验配置并准备内部状态
	Init(ctx context.Context, ds *models.DataSource) error

	// Start 启动数据源,常驻类型在此建立连接
	Start(ctx context.Context) error

	// Execute 执行抽取或写入操作
	Execute(ctx context.Context, request *ExecuteRequest) (*ExecuteResponse, error)

	// Stop 停止数据源并释放连接资源
	Stop(ctx context.Context) error

	// HealthCheck 检查数据源健康状态
	HealthCheck(ctx context.Context) (*HealthStatus, error)

	// GetType 返回数据源类型标识
	GetType() string

	// GetID 返回数据源实例 ID
	GetID() string

	// IsResident 是否常驻数据源(需要维持长连接)
	IsResident() bool
}

// DataSourceCreator 数据源构造函数
type DataSourceCreator func() DataSourceInterface
