/*
 * @module service/datasource/manager
 * @description 数据源管理器,维护数据源实例生命周期、连接状态与执行统计
 * @architecture 管理器模式 - 集中管理数据源实例与运行统计
 * @documentReference dev_docs/etl_datasource_req.md
 * @stateFlow 注册 -> 初始化 -> 连接 -> 执行 -> 关闭
 * @rules 常驻数据源注册后立即启动;执行统计在每次 Execute 后更新
 * @dependencies etl-service/service/models, etl-service/service/meta, log/slog
 * @refs service/datasource/registry.go
 */

package datasource

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"etl-service/service/meta"
	"etl-service/service/models"
)

// DataSourceStats 数据源执行统计
type DataSourceStats struct {
	ExecuteCount  int64         `json:"execute_count"`
	SuccessCount  int64         `json:"success_count"`
	FailureCount  int64         `json:"failure_count"`
	TotalRows     int64         `json:"total_rows"`
	LastExecuteAt time.Time     `json:"last_execute_at"`
	LastDuration  time.Duration `json:"last_duration"`
	LastError     string        `json:"last_error,omitempty"`
}

// Manager 数据源管理器
type Manager struct {
	mu       sync.RWMutex
	registry *DataSourceRegistry
	sources  map[string]DataSourceInterface
	configs  map[string]*models.DataSource
	stats    map[string]*DataSourceStats
	logger   *slog.Logger
}

// NewManager 创建数据源管理器
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry: NewDataSourceRegistry(),
		sources:  make(map[string]DataSourceInterface),
		configs:  make(map[string]*models.DataSource),
		stats:    make(map[string]*DataSourceStats),
		logger:   logger,
	}
}

// Registry 返回类型注册表,供扩展类型注册
func (m *Manager) Registry() *DataSourceRegistry {
	return m.registry
}

// Register 注册数据源配置并创建实例
func (m *Manager) Register(ctx context.Context, ds *models.DataSource) error {
	if ds == nil || ds.ID == "" {
		return fmt.Errorf("数据源配置不能为空")
	}
	if !meta.IsValidDataSourceType(ds.Type) {
		return fmt.Errorf("无效的数据源类型: %s", ds.Type)
	}

	instance, err := m.registry.Create(ds.Type)
	if err != nil {
		return err
	}
	if err := instance.Init(ctx, ds); err != nil {
		return fmt.Errorf("数据源初始化失败 [%s]: %w", ds.Name, err)
	}

	m.mu.Lock()
	old, exists := m.sources[ds.ID]
	m.sources[ds.ID] = instance
	m.configs[ds.ID] = ds
	if _, ok := m.stats[ds.ID]; !ok {
		m.stats[ds.ID] = &DataSourceStats{}
	}
	m.mu.Unlock()

	if exists && old != nil {
		if err := old.Stop(ctx); err != nil {
			m.logger.Warn("停止旧数据源实例失败", "id", ds.ID, "error", err)
		}
	}

	// 常驻类型注册后立即启动
	if instance.IsResident() {
		if err := instance.Start(ctx); err != nil {
			m.logger.Warn("常驻数据源启动失败", "id", ds.ID, "name", ds.Name, "error", err)
			ds.Connected = false
			return nil
		}
		m.markConnected(ds)
	}

	m.logger.Info("数据源已注册", "id", ds.ID, "name", ds.Name, "type", ds.Type)
	return nil
}

// Get 获取数据源实例
func (m *Manager) Get(id string) (DataSourceInterface, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	instance, ok := m.sources[id]
	return instance, ok
}

// GetConfig 获取数据源配置
func (m *Manager) GetConfig(id string) (*models.DataSource, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ds, ok := m.configs[id]
	return ds, ok
}

// Remove 移除数据源并停止实例
func (m *Manager) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	instance, ok := m.sources[id]
	delete(m.sources, id)
	delete(m.configs, id)
	delete(m.stats, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("数据源不存在: %s", id)
	}
	if err := instance.Stop(ctx); err != nil {
		m.logger.Warn("停止数据源失败", "id", id, "error", err)
	}
	m.logger.Info("数据源已移除", "id", id)
	return nil
}

// List 列出所有数据源 ID
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sources))
	for id := range m.sources {
		ids = append(ids, id)
	}
	return ids
}

// Count 数据源数量
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sources)
}

// Connect 建立数据源连接并更新连接状态
func (m *Manager) Connect(ctx context.Context, id string) *ConnectResult {
	start := time.Now()
	instance, ok := m.Get(id)
	if !ok {
		return &ConnectResult{
			Success:   false,
			Message:   fmt.Sprintf("数据源不存在: %s", id),
			ErrorType: meta.ErrorTypeNotFound,
			Latency:   time.Since(start),
		}
	}

	if err := instance.Start(ctx); err != nil {
		m.mu.Lock()
		if ds, ok := m.configs[id]; ok {
			ds.Connected = false
		}
		m.mu.Unlock()
		return &ConnectResult{
			Success:   false,
			Message:   err.Error(),
			ErrorType: meta.ErrorTypeConnection,
			Latency:   time.Since(start),
		}
	}

	m.mu.Lock()
	if ds, ok := m.configs[id]; ok {
		m.markConnected(ds)
	}
	m.mu.Unlock()

	return &ConnectResult{
		Success: true,
		Message: "连接成功",
		Latency: time.Since(start),
	}
}

// Disconnect 断开数据源连接,注册信息与统计保留
func (m *Manager) Disconnect(ctx context.Context, id string) *ConnectResult {
	start := time.Now()
	instance, ok := m.Get(id)
	if !ok {
		return &ConnectResult{
			Success:   false,
			Message:   fmt.Sprintf("数据源不存在: %s", id),
			ErrorType: meta.ErrorTypeNotFound,
			Latency:   time.Since(start),
		}
	}

	if err := instance.Stop(ctx); err != nil {
		m.logger.Warn("停止数据源失败", "id", id, "error", err)
	}

	m.mu.Lock()
	if ds, ok := m.configs[id]; ok {
		ds.Connected = false
	}
	m.mu.Unlock()

	return &ConnectResult{
		Success: true,
		Message: "连接已断开",
		Latency: time.Since(start),
	}
}

// TestConnection 测试数据源连通性,不改变连接状态
func (m *Manager) TestConnection(ctx context.Context, id string) *ConnectResult {
	start := time.Now()
	instance, ok := m.Get(id)
	if !ok {
		return &ConnectResult{
			Success:   false,
			Message:   fmt.Sprintf("数据源不存在: %s", id),
			ErrorType: meta.ErrorTypeNotFound,
			Latency:   time.Since(start),
		}
	}

	status, err := instance.HealthCheck(ctx)
	if err != nil {
		return &ConnectResult{
			Success:   false,
			Message:   err.Error(),
			ErrorType: meta.ErrorTypeConnection,
			Latency:   time.Since(start),
		}
	}
	if status.Status != "online" {
		return &ConnectResult{
			Success:   false,
			Message:   status.ErrorMessage,
			ErrorType: meta.ErrorTypeConnection,
			Latency:   time.Since(start),
		}
	}
	return &ConnectResult{
		Success: true,
		Message: "连接测试通过",
		Latency: time.Since(start),
	}
}

// Execute 执行数据源操作并更新统计
func (m *Manager) Execute(ctx context.Context, id string, request *ExecuteRequest) (*ExecuteResponse, error) {
	instance, ok := m.Get(id)
	if !ok {
		return nil, fmt.Errorf("数据源不存在: %s", id)
	}

	if request.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, request.Timeout)
		defer cancel()
	}

	resp, err := instance.Execute(ctx, request)
	m.recordExecution(id, resp, err)
	return resp, err
}

func (m *Manager) recordExecution(id string, resp *ExecuteResponse, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats, ok := m.stats[id]
	if !ok {
		return
	}
	stats.ExecuteCount++
	stats.LastExecuteAt = time.Now()
	if resp != nil {
		stats.LastDuration = resp.Duration
	}
	if err != nil || resp == nil || !resp.Success {
		stats.FailureCount++
		if err != nil {
			stats.LastError = err.Error()
		} else if resp != nil {
			stats.LastError = resp.Error
		}
		return
	}
	stats.SuccessCount++
	stats.TotalRows += int64(resp.RowCount)
	stats.LastError = ""
}

// GetStatistics 获取数据源统计信息
func (m *Manager) GetStatistics(id string) (*DataSourceStats, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats, ok := m.stats[id]
	if !ok {
		return nil, false
	}
	copied := *stats
	return &copied, true
}

// HealthCheckAll 检查所有数据源健康状态
func (m *Manager) HealthCheckAll(ctx context.Context) map[string]*HealthStatus {
	m.mu.RLock()
	instances := make(map[string]DataSourceInterface, len(m.sources))
	for id, instance := range m.sources {
		instances[id] = instance
	}
	m.mu.RUnlock()

	results := make(map[string]*HealthStatus, len(instances))
	for id, instance := range instances {
		status, err := instance.HealthCheck(ctx)
		if err != nil {
			status = &HealthStatus{
				Status:       "error",
				LastCheck:    time.Now(),
				ErrorMessage: err.Error(),
			}
		}
		results[id] = status

		m.mu.Lock()
		if ds, ok := m.configs[id]; ok {
			ds.Connected = status.Status == "online"
		}
		m.mu.Unlock()
	}
	return results
}

// StartAll 启动所有常驻数据源
func (m *Manager) StartAll(ctx context.Context) {
	for _, id := range m.List() {
		instance, ok := m.Get(id)
		if !ok || !instance.IsResident() {
			continue
		}
		if err := instance.Start(ctx); err != nil {
			m.logger.Warn("数据源启动失败", "id", id, "error", err)
			continue
		}
		m.mu.Lock()
		if ds, ok := m.configs[id]; ok {
			m.markConnected(ds)
		}
		m.mu.Unlock()
	}
}

// Shutdown 关闭所有数据源,幂等
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	instances := m.sources
	m.sources = make(map[string]DataSourceInterface)
	m.configs = make(map[string]*models.DataSource)
	m.mu.Unlock()

	for id, instance := range instances {
		if err := instance.Stop(ctx); err != nil {
			m.logger.Warn("关闭数据源失败", "id", id, "error", err)
		}
	}
	m.logger.Info("数据源管理器已关闭", "count", len(instances))
}

// markConnected 调用方需持有写锁或确保单线程访问
func (m *Manager) markConnected(ds *models.DataSource) {
	now := time.Now()
	ds.Connected = true
	ds.LastConnectedAt = &now
}
