/*
 * @module service/transform/filter
 * @description 过滤规则实现，按字段条件组合（AND/OR）筛选记录
 * @architecture 条件求值器 - 操作符穷举匹配
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 条件解析 -> 逐行求值 -> 保留/丢弃
 * @rules 字段缺失或类型不兼容时比较操作符求值为false；isNull操作符例外
 * @dependencies github.com/spf13/cast
 * @refs engine.go
 */

package transform

import (
	"fmt"
	"strings"

	"etl-service/service/meta"
	"etl-service/service/models"

	"github.com/spf13/cast"
)

// FilterCondition 过滤条件
type FilterCondition struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value,omitempty"`
}

// FilterConfig 过滤规则配置
type FilterConfig struct {
	Combine    string            `json:"combine"` // and, or；缺省为and
	Conditions []FilterCondition `json:"conditions"`
}

// parseFilterConfig 解析并校验过滤规则配置
func parseFilterConfig(config models.JSONB) (*FilterConfig, error) {
	var cfg FilterConfig
	if err := decodeConfig(config, &cfg); err != nil {
		return nil, err
	}

	if cfg.Combine == "" {
		cfg.Combine = meta.FilterCombineAnd
	}
	if cfg.Combine != meta.FilterCombineAnd && cfg.Combine != meta.FilterCombineOr {
		return nil, fmt.Errorf("无效的条件组合方式: %s", cfg.Combine)
	}
	if len(cfg.Conditions) == 0 {
		return nil, fmt.Errorf("过滤规则至少需要一个条件")
	}
	for i, cond := range cfg.Conditions {
		if cond.Field == "" {
			return nil, fmt.Errorf("过滤条件 %d 缺少field", i)
		}
		if !meta.IsValidFilterOperator(cond.Operator) {
			return nil, fmt.Errorf("过滤条件 %d 操作符无效: %s", i, cond.Operator)
		}
	}

	return &cfg, nil
}

// applyFilter 应用过滤规则
func (e *Engine) applyFilter(records []Record, rule *models.TransformationRule) ([]Record, []RowError, error) {
	cfg, err := parseFilterConfig(rule.Config)
	if err != nil {
		return nil, nil, err
	}

	filtered := make([]Record, 0, len(records))
	for _, record := range records {
		if e.matchesConditions(record, cfg) {
			filtered = append(filtered, record)
		}
	}

	return filtered, nil, nil
}

// matchesConditions 按组合方式求值条件集
func (e *Engine) matchesConditions(record Record, cfg *FilterConfig) bool {
	if cfg.Combine == meta.FilterCombineOr {
		for _, cond := range cfg.Conditions {
			if e.evaluateCondition(record, &cond) {
				return true
			}
		}
		return false
	}

	for _, cond := range cfg.Conditions {
		if !e.evaluateCondition(record, &cond) {
			return false
		}
	}
	return true
}

// evaluateCondition 求值单个条件
func (e *Engine) evaluateCondition(record Record, cond *FilterCondition) bool {
	value, exists := record[cond.Field]

	if cond.Operator == meta.FilterOpIsNull {
		return !exists || value == nil
	}

	// 其余操作符要求字段存在且非空
	if !exists || value == nil {
		return false
	}

	switch cond.Operator {
	case meta.FilterOpEquals:
		return compareEqual(value, cond.Value)
	case meta.FilterOpNotEquals:
		return !compareEqual(value, cond.Value)
	case meta.FilterOpGreaterThan:
		ok, result := compareNumeric(value, cond.Value)
		return ok && result > 0
	case meta.FilterOpLessThan:
		ok, result := compareNumeric(value, cond.Value)
		return ok && result < 0
	case meta.FilterOpContains:
		s, err := cast.ToStringE(value)
		if err != nil {
			return false
		}
		sub, err := cast.ToStringE(cond.Value)
		if err != nil {
			return false
		}
		return strings.Contains(s, sub)
	case meta.FilterOpStartsWith:
		s, err := cast.ToStringE(value)
		if err != nil {
			return false
		}
		prefix, err := cast.ToStringE(cond.Value)
		if err != nil {
			return false
		}
		return strings.HasPrefix(s, prefix)
	case meta.FilterOpIn:
		set, err := cast.ToSliceE(cond.Value)
		if err != nil {
			return false
		}
		for _, candidate := range set {
			if compareEqual(value, candidate) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// compareEqual 等值比较：双方可转数值时按数值比较，否则按字符串比较
func compareEqual(a, b interface{}) bool {
	af, aerr := cast.ToFloat64E(a)
	bf, berr := cast.ToFloat64E(b)
	if aerr == nil && berr == nil {
		return af == bf
	}

	as, aerr2 := cast.ToStringE(a)
	bs, berr2 := cast.ToStringE(b)
	if aerr2 != nil || berr2 != nil {
		return false
	}
	return as == bs
}

// compareNumeric 数值比较，返回(是否可比较, 比较结果符号)
func compareNumeric(a, b interface{}) (bool, int) {
	af, err := cast.ToFloat64E(a)
	if err != nil {
		return false, 0
	}
	bf, err := cast.ToFloat64E(b)
	if err != nil {
		return false, 0
	}

	switch {
	case af > bf:
		return true, 1
	case af < bf:
		return true, -1
	default:
		return true, 0
	}
}
