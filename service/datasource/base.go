/*
 * @module service/datasource/base
 * @description 数据源基础结构,提供公共状态管理与配置解析能力
 * @architecture 模板方法模式 - 具体数据源内嵌 BaseDataSource 复用生命周期状态
 * @documentReference dev_docs/etl_datasource_req.md
 * @stateFlow created -> initialized -> started -> stopped
 * @rules 状态变更必须通过互斥锁保护;配置读取统一经过 cast 转换
 * @dependencies github.com/spf13/cast
 * @refs service/datasource/interface.go
 */

package datasource

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cast"

	"etl-service/service/models"
)

// BaseDataSource 数据源基础结构,封装公共字段和状态管理
type BaseDataSource struct {
	mu          sync.RWMutex
	id          string
	dsType      string
	name        string
	config      map[string]interface{}
	params      map[string]interface{}
	initialized bool
	started     bool
	lastError   error
	startedAt   time.Time
}

// InitBase 初始化基础字段
func (b *BaseDataSource) InitBase(ds *models.DataSource) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.id = ds.ID
	b.dsType = ds.Type
	b.name = ds.Name
	b.config = map[string]interface{}(ds.ConnectionConfig)
	b.params = map[string]interface{}(ds.ParamsConfig)
	b.initialized = true
	b.lastError = nil
}

func (b *BaseDataSource) GetID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.id
}

func (b *BaseDataSource) GetType() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dsType
}

func (b *BaseDataSource) GetName() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.name
}

// IsInitialized 是否已完成初始化
func (b *BaseDataSource) IsInitialized() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.initialized
}

// IsStarted 是否处于启动状态
func (b *BaseDataSource) IsStarted() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.started
}

// SetStarted 更新启动状态
func (b *BaseDataSource) SetStarted(started bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = started
	if started {
		b.startedAt = time.Now()
	}
}

// SetLastError 记录最近一次错误
func (b *BaseDataSource) SetLastError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastError = err
}

// GetLastError 返回最近一次错误
func (b *BaseDataSource) GetLastError() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastError
}

// GetConfigString 读取字符串配置项
func (b *BaseDataSource) GetConfigString(key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.config == nil {
		return ""
	}
	return cast.ToString(b.config[key])
}

// GetConfigInt 读取整数配置项,缺失时返回默认值
func (b *BaseDataSource) GetConfigInt(key string, defaultValue int) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.config == nil {
		return defaultValue
	}
	v, ok := b.config[key]
	if !ok {
		return defaultValue
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return defaultValue
	}
	return n
}

// GetConfigBool 读取布尔配置项
func (b *BaseDataSource) GetConfigBool(key string, defaultValue bool) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.config == nil {
		return defaultValue
	}
	v, ok := b.config[key]
	if !ok {
		return defaultValue
	}
	bv, err := cast.ToBoolE(v)
	if err != nil {
		return defaultValue
	}
	return bv
}

// GetParam 读取运行参数
func (b *BaseDataSource) GetParam(key string) (interface{}, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.params == nil {
		return nil, false
	}
	v, ok := b.params[key]
	return v, ok
}

// RequireConfig 校验必填配置项
func (b *BaseDataSource) RequireConfig(keys ...string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, key := range keys {
		if b.config == nil {
			return fmt.Errorf("缺少必填配置项: %s", key)
		}
		v, ok := b.config[key]
		if !ok || cast.ToString(v) == "" {
			return fmt.Errorf("缺少必填配置项: %s", key)
		}
	}
	return nil
}

// NewExecuteResponse 构造执行响应,统一填充耗时与时间戳
func NewExecuteResponse(start time.Time) *ExecuteResponse {
	return &ExecuteResponse{
		Duration:  time.Since(start),
		Timestamp: time.Now(),
	}
}

// FailResponse 构造失败响应
func FailResponse(start time.Time, errorType string, err error) *ExecuteResponse {
	resp := NewExecuteResponse(start)
	resp.Success = false
	resp.ErrorType = errorType
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}
