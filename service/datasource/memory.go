/*
 * @module service/datasource/memory
 * @description 内存数据源,进程内存储行数据,用于测试和嵌入式场景
 * @architecture 适配器模式 - 进程内行存储适配统一数据源接口
 * @documentReference dev_docs/etl_datasource_req.md
 * @stateFlow 非常驻类型,数据随实例生命周期存在
 * @rules 抽取返回行的深拷贝,写入默认追加,replace 参数为 true 时整体替换
 * @dependencies sync
 * @refs service/datasource/base.go
 */

package datasource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cast"

	"etl-service/service/meta"
	"etl-service/service/models"
)

// MemoryDataSource 内存数据源
type MemoryDataSource struct {
	BaseDataSource
	dataMu sync.RWMutex
	rows   []map[string]interface{}
}

// NewMemoryDataSource 创建内存数据源
func NewMemoryDataSource() DataSourceInterface {
	return &MemoryDataSource{}
}

func (m *MemoryDataSource) Init(ctx context.Context, ds *models.DataSource) error {
	m.InitBase(ds)

	// 支持通过配置预置初始数据
	if initial, ok := ds.ConnectionConfig["initial_data"]; ok {
		items, ok := initial.([]interface{})
		if !ok {
			return fmt.Errorf("initial_data 必须为对象数组")
		}
		rows := make([]map[string]interface{}, 0, len(items))
		for _, item := range items {
			row, ok := item.(map[string]interface{})
			if !ok {
				return fmt.Errorf("initial_data 包含非对象元素")
			}
			rows = append(rows, row)
		}
		m.dataMu.Lock()
		m.rows = rows
		m.dataMu.Unlock()
	}
	return nil
}

func (m *MemoryDataSource) Start(ctx context.Context) error {
	m.SetStarted(true)
	return nil
}

func (m *MemoryDataSource) Execute(ctx context.Context, request *ExecuteRequest) (*ExecuteResponse, error) {
	start := time.Now()
	switch request.Operation {
	case OperationExtract:
		m.dataMu.RLock()
		rows := make([]map[string]interface{}, len(m.rows))
		for i, row := range m.rows {
			copied := make(map[string]interface{}, len(row))
			for k, v := range row {
				copied[k] = v
			}
			rows[i] = copied
		}
		m.dataMu.RUnlock()

		resp := NewExecuteResponse(start)
		resp.Success = true
		resp.Data = rows
		resp.RowCount = len(rows)
		return resp, nil

	case OperationLoad:
		replace := false
		if v, ok := request.Params["replace"]; ok {
			replace = cast.ToBool(v)
		}
		m.dataMu.Lock()
		if replace {
			m.rows = append([]map[string]interface{}{}, request.Data...)
		} else {
			m.rows = append(m.rows, request.Data...)
		}
		total := len(m.rows)
		m.dataMu.Unlock()

		resp := NewExecuteResponse(start)
		resp.Success = true
		resp.RowCount = len(request.Data)
		resp.Message = fmt.Sprintf("写入 %d 行, 当前共 %d 行", len(request.Data), total)
		return resp, nil

	default:
		return FailResponse(start, meta.ErrorTypeConfiguration,
			fmt.Errorf("不支持的操作类型: %s", request.Operation)), nil
	}
}

// Snapshot 返回当前数据的拷贝,测试用
func (m *MemoryDataSource) Snapshot() []map[string]interface{} {
	m.dataMu.RLock()
	defer m.dataMu.RUnlock()
	rows := make([]map[string]interface{}, len(m.rows))
	copy(rows, m.rows)
	return rows
}

func (m *MemoryDataSource) Stop(ctx context.Context) error {
	m.SetStarted(false)
	return nil
}

func (m *MemoryDataSource) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	m.dataMu.RLock()
	count := len(m.rows)
	m.dataMu.RUnlock()
	return &HealthStatus{
		Status:    "online",
		LastCheck: time.Now(),
		Details:   map[string]interface{}{"row_count": count},
	}, nil
}

func (m *MemoryDataSource) IsResident() bool { return false }
