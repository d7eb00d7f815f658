/*
 * @module service/datasource/manager_test
 * @description 数据源管理器单元测试,覆盖注册/执行统计/连接/移除/关闭
 * @architecture 测试层
 * @stateFlow 注册内存数据源 -> 执行操作 -> 统计与状态验证
 * @refs manager.go, registry.go, memory.go
 */

package datasource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etl-service/service/meta"
	"etl-service/service/models"
)

func memorySource(id string, rows ...map[string]interface{}) *models.DataSource {
	ds := &models.DataSource{
		ID:               id,
		Name:             "内存数据源-" + id,
		Type:             meta.DataSourceTypeMemory,
		ConnectionConfig: models.JSONB{},
	}
	if len(rows) > 0 {
		initial := make([]interface{}, len(rows))
		for i, row := range rows {
			initial[i] = row
		}
		ds.ConnectionConfig["initial_data"] = initial
	}
	return ds
}

func TestRegistrySupportedTypes(t *testing.T) {
	registry := NewDataSourceRegistry()

	for _, dsType := range []string{
		meta.DataSourceTypeDatabase, meta.DataSourceTypeAPI, meta.DataSourceTypeFile,
		meta.DataSourceTypeMemory, meta.DataSourceTypeCustom,
		meta.DataSourceTypeRedis, meta.DataSourceTypeKafka, meta.DataSourceTypeMQTT,
	} {
		assert.True(t, registry.IsSupported(dsType), dsType)
		instance, err := registry.Create(dsType)
		require.NoError(t, err)
		require.NotNil(t, instance)
	}

	_, err := registry.Create("ftp")
	assert.Error(t, err)
	assert.False(t, registry.IsSupported("ftp"))
}

func TestManagerRegisterAndGet(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()

	require.NoError(t, m.Register(ctx, memorySource("mem-1")))
	assert.Equal(t, 1, m.Count())

	instance, ok := m.Get("mem-1")
	require.True(t, ok)
	assert.Equal(t, meta.DataSourceTypeMemory, instance.GetType())

	config, ok := m.GetConfig("mem-1")
	require.True(t, ok)
	assert.Equal(t, "内存数据源-mem-1", config.Name)

	_, ok = m.Get("not-exists")
	assert.False(t, ok)
}

func TestManagerRegisterRejectsInvalid(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()

	assert.Error(t, m.Register(ctx, nil))
	assert.Error(t, m.Register(ctx, &models.DataSource{Name: "无ID"}))
	assert.Error(t, m.Register(ctx, &models.DataSource{ID: "x", Type: "ftp"}))
}

func TestManagerExecuteUpdatesStats(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()
	require.NoError(t, m.Register(ctx, memorySource("mem-1",
		map[string]interface{}{"price": 100},
		map[string]interface{}{"price": 200},
	)))

	resp, err := m.Execute(ctx, "mem-1", &ExecuteRequest{Operation: OperationExtract})
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.Equal(t, 2, resp.RowCount)

	stats, ok := m.GetStatistics("mem-1")
	require.True(t, ok)
	assert.Equal(t, int64(1), stats.ExecuteCount)
	assert.Equal(t, int64(1), stats.SuccessCount)
	assert.Equal(t, int64(0), stats.FailureCount)
	assert.Equal(t, int64(2), stats.TotalRows)
	assert.Empty(t, stats.LastError)

	// 不支持的操作计入失败
	resp, err = m.Execute(ctx, "mem-1", &ExecuteRequest{Operation: "truncate"})
	require.NoError(t, err)
	assert.False(t, resp.Success)

	stats, ok = m.GetStatistics("mem-1")
	require.True(t, ok)
	assert.Equal(t, int64(2), stats.ExecuteCount)
	assert.Equal(t, int64(1), stats.FailureCount)
	assert.NotEmpty(t, stats.LastError)

	_, err = m.Execute(ctx, "not-exists", &ExecuteRequest{Operation: OperationExtract})
	assert.Error(t, err)
}

func TestManagerLoadThenExtract(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()
	require.NoError(t, m.Register(ctx, memorySource("mem-1")))

	loadResp, err := m.Execute(ctx, "mem-1", &ExecuteRequest{
		Operation: OperationLoad,
		Data: []map[string]interface{}{
			{"district": "浦东", "value": 100},
		},
	})
	require.NoError(t, err)
	require.True(t, loadResp.Success)
	assert.Equal(t, 1, loadResp.RowCount)

	extractResp, err := m.Execute(ctx, "mem-1", &ExecuteRequest{Operation: OperationExtract})
	require.NoError(t, err)
	require.Len(t, extractResp.Data, 1)
	assert.Equal(t, "浦东", extractResp.Data[0]["district"])
}

func TestManagerConnectAndTestConnection(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()
	require.NoError(t, m.Register(ctx, memorySource("mem-1")))

	result := m.Connect(ctx, "mem-1")
	require.True(t, result.Success)

	config, ok := m.GetConfig("mem-1")
	require.True(t, ok)
	assert.True(t, config.Connected)
	assert.NotNil(t, config.LastConnectedAt)

	test := m.TestConnection(ctx, "mem-1")
	assert.True(t, test.Success)

	missing := m.Connect(ctx, "not-exists")
	assert.False(t, missing.Success)
	assert.Equal(t, meta.ErrorTypeNotFound, missing.ErrorType)
}

func TestManagerDisconnect(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()
	require.NoError(t, m.Register(ctx, memorySource("mem-1")))
	require.True(t, m.Connect(ctx, "mem-1").Success)

	result := m.Disconnect(ctx, "mem-1")
	require.True(t, result.Success)

	// 断开后注册信息与统计保留,仅连接状态复位
	config, ok := m.GetConfig("mem-1")
	require.True(t, ok)
	assert.False(t, config.Connected)
	_, ok = m.Get("mem-1")
	assert.True(t, ok)
	_, ok = m.GetStatistics("mem-1")
	assert.True(t, ok)

	// 断开后可重新连接
	reconnect := m.Connect(ctx, "mem-1")
	require.True(t, reconnect.Success)
	config, _ = m.GetConfig("mem-1")
	assert.True(t, config.Connected)

	missing := m.Disconnect(ctx, "not-exists")
	assert.False(t, missing.Success)
	assert.Equal(t, meta.ErrorTypeNotFound, missing.ErrorType)
}

func TestManagerHealthCheckAll(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()
	require.NoError(t, m.Register(ctx, memorySource("mem-1")))
	require.NoError(t, m.Register(ctx, memorySource("mem-2")))

	results := m.HealthCheckAll(ctx)
	require.Len(t, results, 2)
	assert.Equal(t, "online", results["mem-1"].Status)
	assert.Equal(t, "online", results["mem-2"].Status)

	config, ok := m.GetConfig("mem-1")
	require.True(t, ok)
	assert.True(t, config.Connected)
}

func TestManagerRemove(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()
	require.NoError(t, m.Register(ctx, memorySource("mem-1")))

	require.NoError(t, m.Remove(ctx, "mem-1"))
	assert.Equal(t, 0, m.Count())
	_, ok := m.GetStatistics("mem-1")
	assert.False(t, ok)

	assert.Error(t, m.Remove(ctx, "mem-1"))
}

func TestManagerShutdownIdempotent(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()
	require.NoError(t, m.Register(ctx, memorySource("mem-1")))

	m.Shutdown(ctx)
	assert.Equal(t, 0, m.Count())
	m.Shutdown(ctx)
}
