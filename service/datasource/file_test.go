/*
 * @module service/datasource/file_test
 * @description 文件数据源单元测试,覆盖 JSON/CSV 读写与健康检查
 * @architecture 测试层
 * @stateFlow 临时目录建文件 -> 初始化数据源 -> 读写验证
 * @refs file.go
 */

package datasource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etl-service/service/meta"
	"etl-service/service/models"
)

func fileSource(t *testing.T, path string, extra models.JSONB) DataSourceInterface {
	t.Helper()
	config := models.JSONB{"path": path}
	for k, v := range extra {
		config[k] = v
	}
	ds := NewFileDataSource()
	err := ds.Init(context.Background(), &models.DataSource{
		ID:               "file-1",
		Name:             "文件数据源",
		Type:             meta.DataSourceTypeFile,
		ConnectionConfig: config,
	})
	require.NoError(t, err)
	return ds
}

func TestFileDataSourceInitValidation(t *testing.T) {
	ds := NewFileDataSource()
	err := ds.Init(context.Background(), &models.DataSource{
		ID:               "file-1",
		Type:             meta.DataSourceTypeFile,
		ConnectionConfig: models.JSONB{},
	})
	assert.Error(t, err)

	err = ds.Init(context.Background(), &models.DataSource{
		ID:               "file-1",
		Type:             meta.DataSourceTypeFile,
		ConnectionConfig: models.JSONB{"path": "/tmp/data.json", "format": "xml"},
	})
	assert.Error(t, err)
}

func TestFileDataSourceJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.json")
	ds := fileSource(t, path, nil)
	ctx := context.Background()

	rows := []map[string]interface{}{
		{"district": "浦东", "price": 52000.0},
		{"district": "静安", "price": 98000.0},
	}
	loadResp, err := ds.Execute(ctx, &ExecuteRequest{Operation: OperationLoad, Data: rows})
	require.NoError(t, err)
	require.True(t, loadResp.Success)
	assert.Equal(t, 2, loadResp.RowCount)

	extractResp, err := ds.Execute(ctx, &ExecuteRequest{Operation: OperationExtract})
	require.NoError(t, err)
	require.True(t, extractResp.Success)
	require.Len(t, extractResp.Data, 2)
	assert.Equal(t, "浦东", extractResp.Data[0]["district"])
	assert.Equal(t, 52000.0, extractResp.Data[0]["price"])
}

func TestFileDataSourceCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.csv")
	ds := fileSource(t, path, nil)
	ctx := context.Background()

	rows := []map[string]interface{}{
		{"district": "浦东", "price": 52000},
		{"district": "静安", "price": 98000},
	}
	loadResp, err := ds.Execute(ctx, &ExecuteRequest{Operation: OperationLoad, Data: rows})
	require.NoError(t, err)
	require.True(t, loadResp.Success)

	extractResp, err := ds.Execute(ctx, &ExecuteRequest{Operation: OperationExtract})
	require.NoError(t, err)
	require.True(t, extractResp.Success)
	require.Len(t, extractResp.Data, 2)
	// CSV读取结果为字符串
	assert.Equal(t, "浦东", extractResp.Data[0]["district"])
	assert.Equal(t, "52000", extractResp.Data[0]["price"])
}

func TestFileDataSourceCSVHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("district,price\n"), 0o644))
	ds := fileSource(t, path, nil)

	resp, err := ds.Execute(context.Background(), &ExecuteRequest{Operation: OperationExtract})
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.Equal(t, 0, resp.RowCount)
}

func TestFileDataSourceExtractMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	ds := fileSource(t, path, nil)

	resp, err := ds.Execute(context.Background(), &ExecuteRequest{Operation: OperationExtract})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, meta.ErrorTypeConnection, resp.ErrorType)
}

func TestFileDataSourceHealthCheck(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(existing, []byte("[]"), 0o644))

	ds := fileSource(t, existing, nil)
	status, err := ds.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "online", status.Status)

	// 文件不存在但目录可用
	pending := fileSource(t, filepath.Join(dir, "not-yet.json"), nil)
	status, err = pending.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "online", status.Status)

	// 目录也不存在
	broken := fileSource(t, "/no/such/dir/data.json", nil)
	status, err = broken.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "error", status.Status)
}
