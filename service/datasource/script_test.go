/*
 * @module service/datasource/script_test
 * @description 脚本数据源单元测试,覆盖脚本抽取生成与校验失败
 * @architecture 测试层
 * @refs script.go
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

const generatorScript = `
	result := make([]map[string]interface{}, 0, 3)
	for i := 0; i < 3; i++ {
		result = append(result, map[string]interface{}{"seq": i})
	}
	return result, nil
`

func TestScriptDataSourceExtract(t *testing.T) {
	ds := NewScriptDataSource()
	require.NoError(t, ds.Init(context.Background(), &models.DataSource{
		ID:     "script-1",
		Name:   "脚本生成源",
		Type:   meta.DataSourceTypeCustom,
		Script: generatorScript,
	}))

	resp, err := ds.Execute(context.Background(), &ExecuteRequest{Operation: OperationExtract})
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.Equal(t, 3, resp.RowCount)
	assert.Equal(t, 0, resp.Data[0]["seq"])

	status, err := ds.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "online", status.Status)
}

func TestScriptDataSourceScriptFromConfig(t *testing.T) {
	ds := NewScriptDataSource()
	require.NoError(t, ds.Init(context.Background(), &models.DataSource{
		ID:   "script-2",
		Name: "配置内脚本",
		Type: meta.DataSourceTypeCustom,
		ConnectionConfig: models.JSONB{
			"script": "return records, nil",
		},
	}))

	resp, err := ds.Execute(context.Background(), &ExecuteRequest{
		Operation: OperationLoad,
		Data:      []map[string]interface{}{{"a": 1}},
	})
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.Equal(t, 1, resp.RowCount)
}

func TestScriptDataSourceInitValidation(t *testing.T) {
	ds := NewScriptDataSource()
	err := ds.Init(context.Background(), &models.DataSource{
		ID: "script-3", Name: "无脚本", Type: meta.DataSourceTypeCustom,
	})
	assert.Error(t, err)

	err = ds.Init(context.Background(), &models.DataSource{
		ID: "script-4", Name: "坏脚本", Type: meta.DataSourceTypeCustom,
		Script: "return records,",
	})
	assert.Error(t, err)
}
