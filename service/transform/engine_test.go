/*
 * @module service/transform/engine_test
 * @description 转换引擎单元测试,覆盖四类规则语义与行级错误累积
 * @architecture 测试层
 * @stateFlow 构造规则与记录 -> Apply -> 结果验证
 * @rules 行级错误不中止整批;配置错误对当前操作致命
 * @dependencies testing, testify
 * @refs engine.go, filter.go, mapping.go, aggregate.go
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

func filterRule(config models.JSONB) models.TransformationRule {
	return models.TransformationRule{
		ID:        "rule-filter",
		Name:      "过滤规则",
		Type:      meta.RuleTypeFilter,
		Config:    config,
		IsEnabled: true,
	}
}

func TestApplyFilterGreaterThan(t *testing.T) {
	engine := NewEngine()
	records := []Record{
		{"price": 10}, {"price": 20}, {"price": 30}, {"price": 15}, {"price": 25},
	}
	rule := filterRule(models.JSONB{
		"conditions": []interface{}{
			map[string]interface{}{"field": "price", "operator": "greaterThan", "value": 15},
		},
	})

	result := engine.Apply(context.Background(), records, []models.TransformationRule{rule})

	require.True(t, result.Success)
	require.Len(t, result.Data, 3)
	assert.Equal(t, 20, result.Data[0]["price"])
	assert.Equal(t, 30, result.Data[1]["price"])
	assert.Equal(t, 25, result.Data[2]["price"])
	assert.Empty(t, result.Errors)
}

func TestApplyFilterCombineOr(t *testing.T) {
	engine := NewEngine()
	records := []Record{
		{"city": "上海", "price": 10},
		{"city": "北京", "price": 5},
		{"city": "广州", "price": 3},
	}
	rule := filterRule(models.JSONB{
		"combine": "or",
		"conditions": []interface{}{
			map[string]interface{}{"field": "city", "operator": "equals", "value": "北京"},
			map[string]interface{}{"field": "price", "operator": "greaterThan", "value": 8},
		},
	})

	result := engine.Apply(context.Background(), records, []models.TransformationRule{rule})

	require.True(t, result.Success)
	require.Len(t, result.Data, 2)
}

func TestApplyFilterMissingFieldIsFalse(t *testing.T) {
	engine := NewEngine()
	records := []Record{
		{"price": 20},
		{"other": 1},
		{"price": nil},
	}
	rule := filterRule(models.JSONB{
		"conditions": []interface{}{
			map[string]interface{}{"field": "price", "operator": "greaterThan", "value": 10},
		},
	})

	result := engine.Apply(context.Background(), records, []models.TransformationRule{rule})

	require.True(t, result.Success)
	require.Len(t, result.Data, 1)
}

func TestApplyFilterIsNull(t *testing.T) {
	engine := NewEngine()
	records := []Record{
		{"tenant": nil},
		{"tenant": "A"},
		{"other": 1},
	}
	rule := filterRule(models.JSONB{
		"conditions": []interface{}{
			map[string]interface{}{"field": "tenant", "operator": "isNull"},
		},
	})

	result := engine.Apply(context.Background(), records, []models.TransformationRule{rule})

	require.True(t, result.Success)
	// 字段为nil或不存在的行都命中isNull
	assert.Len(t, result.Data, 2)
}

func TestApplyMapWithMappingAndDefault(t *testing.T) {
	engine := NewEngine()
	records := []Record{
		{"status": "A"},
		{"status": "B"},
		{"status": "X"},
	}
	rule := models.TransformationRule{
		ID:   "rule-map",
		Type: meta.RuleTypeMap,
		Config: models.JSONB{
			"source_field": "status",
			"target_field": "status_label",
			"mapping": map[string]interface{}{
				"A": "可用",
				"B": "占用",
			},
			"default_value": "未知",
		},
		IsEnabled: true,
	}

	result := engine.Apply(context.Background(), records, []models.TransformationRule{rule})

	require.True(t, result.Success)
	assert.Equal(t, "可用", result.Data[0]["status_label"])
	assert.Equal(t, "占用", result.Data[1]["status_label"])
	assert.Equal(t, "未知", result.Data[2]["status_label"])
	assert.Empty(t, result.Errors)
}

func TestApplyMapUnmatchedWithoutDefault(t *testing.T) {
	engine := NewEngine()
	records := []Record{{"status": "X"}}
	rule := models.TransformationRule{
		ID:   "rule-map",
		Type: meta.RuleTypeMap,
		Config: models.JSONB{
			"source_field": "status",
			"mapping":      map[string]interface{}{"A": "可用"},
		},
		IsEnabled: true,
	}

	result := engine.Apply(context.Background(), records, []models.TransformationRule{rule})

	require.True(t, result.Success)
	assert.Nil(t, result.Data[0]["status"])
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 0, result.Errors[0].RowIndex)
}

func TestApplyConvertFailureContinuesBatch(t *testing.T) {
	engine := NewEngine()
	records := []Record{
		{"price": "12.5"},
		{"price": "not-a-number"},
		{"price": "30"},
	}
	rule := models.TransformationRule{
		ID:   "rule-convert",
		Type: meta.RuleTypeConvert,
		Config: models.JSONB{
			"field":       "price",
			"target_type": "float",
		},
		IsEnabled: true,
	}

	result := engine.Apply(context.Background(), records, []models.TransformationRule{rule})

	require.True(t, result.Success)
	require.Len(t, result.Data, 3)
	assert.Equal(t, 12.5, result.Data[0]["price"])
	assert.Nil(t, result.Data[1]["price"])
	assert.Equal(t, 30.0, result.Data[2]["price"])
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].RowIndex)
	assert.Equal(t, "price", result.Errors[0].Field)
}

func TestApplyAggregateSum(t *testing.T) {
	engine := NewEngine()
	records := []Record{
		{"district": "浦东", "value": 100},
		{"district": "浦东", "value": 200},
		{"district": "静安", "value": 50},
	}
	rule := models.TransformationRule{
		ID:   "rule-agg",
		Type: meta.RuleTypeAggregate,
		Config: models.JSONB{
			"group_by": "district",
			"field":    "value",
			"function": "sum",
		},
		IsEnabled: true,
	}

	result := engine.Apply(context.Background(), records, []models.TransformationRule{rule})

	require.True(t, result.Success)
	require.Len(t, result.Data, 2)
	// 分组按首次出现顺序输出
	assert.Equal(t, "浦东", result.Data[0]["district"])
	assert.Equal(t, 300.0, result.Data[0]["sum_value"])
	assert.Equal(t, "静安", result.Data[1]["district"])
	assert.Equal(t, 50.0, result.Data[1]["sum_value"])
}

func TestApplyAggregateCount(t *testing.T) {
	engine := NewEngine()
	records := []Record{
		{"type": "office"}, {"type": "office"}, {"type": "retail"},
	}
	rule := models.TransformationRule{
		ID:   "rule-agg",
		Type: meta.RuleTypeAggregate,
		Config: models.JSONB{
			"group_by": "type",
			"function": "count",
		},
		IsEnabled: true,
	}

	result := engine.Apply(context.Background(), records, []models.TransformationRule{rule})

	require.True(t, result.Success)
	require.Len(t, result.Data, 2)
	assert.Equal(t, 2, result.Data[0]["count"])
	assert.Equal(t, 1, result.Data[1]["count"])
}

func TestApplySkipsDisabledRules(t *testing.T) {
	engine := NewEngine()
	records := []Record{{"price": 1}, {"price": 100}}
	rule := filterRule(models.JSONB{
		"conditions": []interface{}{
			map[string]interface{}{"field": "price", "operator": "greaterThan", "value": 50},
		},
	})
	rule.IsEnabled = false

	result := engine.Apply(context.Background(), records, []models.TransformationRule{rule})

	require.True(t, result.Success)
	assert.Len(t, result.Data, 2)
}

func TestApplyInvalidConfigFailsOperation(t *testing.T) {
	engine := NewEngine()
	records := []Record{{"price": 1}}
	rule := filterRule(models.JSONB{
		"conditions": []interface{}{
			map[string]interface{}{"field": "price", "operator": "notARealOperator", "value": 1},
		},
	})

	result := engine.Apply(context.Background(), records, []models.TransformationRule{rule})

	assert.False(t, result.Success)
	assert.Equal(t, meta.ErrorTypeConfiguration, result.ErrorType)
	assert.NotEmpty(t, result.Error)
}

func TestApplyRuleChainOrder(t *testing.T) {
	engine := NewEngine()
	records := []Record{
		{"price": "5"}, {"price": "20"}, {"price": "40"},
	}
	convert := models.TransformationRule{
		ID:        "rule-convert",
		Type:      meta.RuleTypeConvert,
		Config:    models.JSONB{"field": "price", "target_type": "float"},
		IsEnabled: true,
	}
	filter := filterRule(models.JSONB{
		"conditions": []interface{}{
			map[string]interface{}{"field": "price", "operator": "greaterThan", "value": 10},
		},
	})

	result := engine.Apply(context.Background(), records,
		[]models.TransformationRule{convert, filter})

	require.True(t, result.Success)
	require.Len(t, result.Data, 2)
	assert.Equal(t, 20.0, result.Data[0]["price"])
}

func TestApplyEmptyInput(t *testing.T) {
	engine := NewEngine()
	rule := filterRule(models.JSONB{
		"conditions": []interface{}{
			map[string]interface{}{"field": "price", "operator": "greaterThan", "value": 10},
		},
	})

	result := engine.Apply(context.Background(), nil, []models.TransformationRule{rule})

	require.True(t, result.Success)
	assert.Empty(t, result.Data)
}

func TestValidateRule(t *testing.T) {
	engine := NewEngine()

	valid := filterRule(models.JSONB{
		"conditions": []interface{}{
			map[string]interface{}{"field": "price", "operator": "equals", "value": 1},
		},
	})
	assert.NoError(t, engine.ValidateRule(&valid))

	missing := models.TransformationRule{
		Type:   meta.RuleTypeConvert,
		Config: models.JSONB{"field": "price"},
	}
	assert.Error(t, engine.ValidateRule(&missing))

	unknown := models.TransformationRule{
		Type:   "unknown",
		Config: models.JSONB{},
	}
	assert.Error(t, engine.ValidateRule(&unknown))
}
