/*
 * @module service/transform/script_test
 * @description 脚本执行器单元测试,覆盖脚本编译执行、缓存与custom规则
 * @architecture 测试层
 * @refs script.go
 */

package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etl-service/service/meta"
	"etl-service/service/models"
)

const markScript = `
	result := make([]map[string]interface{}, 0, len(records))
	for _, r := range records {
		r["flagged"] = true
		result = append(result, r)
	}
	return result, nil
`

func TestScriptExecutorExecute(t *testing.T) {
	executor := NewScriptExecutor()

	records := []Record{{"price": 100}, {"price": 200}}
	result, err := executor.Execute(context.Background(), markScript, records)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, true, result[0]["flagged"])

	// 第二次执行命中编译缓存
	result, err = executor.Execute(context.Background(), markScript, records)
	require.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Len(t, executor.cache, 1)

	executor.ClearCache()
	assert.Empty(t, executor.cache)
}

func TestScriptExecutorCompileError(t *testing.T) {
	executor := NewScriptExecutor()

	_, err := executor.Execute(context.Background(), "this is not go", nil)
	assert.Error(t, err)

	assert.Error(t, executor.Validate("return records,"))
	assert.NoError(t, executor.Validate(markScript))
}

func TestApplyCustomRule(t *testing.T) {
	engine := NewEngine()
	records := []Record{{"price": 100}}
	rule := models.TransformationRule{
		ID:        "rule-custom",
		Name:      "脚本标记",
		Type:      meta.RuleTypeCustom,
		Config:    models.JSONB{"script": markScript},
		IsEnabled: true,
	}

	result := engine.Apply(context.Background(), records, []models.TransformationRule{rule})

	require.True(t, result.Success)
	require.Len(t, result.Data, 1)
	assert.Equal(t, true, result.Data[0]["flagged"])
}

func TestApplyCustomRuleMissingScript(t *testing.T) {
	engine := NewEngine()
	rule := models.TransformationRule{
		ID:        "rule-custom",
		Name:      "空脚本",
		Type:      meta.RuleTypeCustom,
		Config:    models.JSONB{},
		IsEnabled: true,
	}

	result := engine.Apply(context.Background(), []Record{{"a": 1}}, []models.TransformationRule{rule})

	assert.False(t, result.Success)
	assert.Equal(t, meta.ErrorTypeConfiguration, result.ErrorType)
}
