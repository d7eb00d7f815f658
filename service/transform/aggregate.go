/*
 * @module service/transform/aggregate
 * @description 聚合规则实现，按分组字段将整批记录收敛为分组行
 * @architecture 归约处理器 - 分组后做数值归约
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 配置解析 -> 分组 -> 归约 -> 分组行输出
 * @rules 聚合规则建议作为规则链末尾；分组行按首次出现顺序输出
 * @dependencies github.com/spf13/cast
 * @refs engine.go
 */

package transform

import (
	"fmt"

	"etl-service/service/meta"
	"etl-service/service/models"

	"github.com/spf13/cast"
)

// AggregateConfig 聚合规则配置
type AggregateConfig struct {
	GroupBy     string `json:"group_by"`
	Field       string `json:"field,omitempty"` // count以外的函数必填
	Function    string `json:"function"`        // sum, avg, min, max, count
	ResultField string `json:"result_field,omitempty"`
}

// parseAggregateConfig 解析并校验聚合规则配置
func parseAggregateConfig(config models.JSONB) (*AggregateConfig, error) {
	var cfg AggregateConfig
	if err := decodeConfig(config, &cfg); err != nil {
		return nil, err
	}

	if cfg.GroupBy == "" {
		return nil, fmt.Errorf("aggregate规则缺少group_by")
	}
	if !meta.IsValidAggregateFunc(cfg.Function) {
		return nil, fmt.Errorf("无效的聚合函数: %s", cfg.Function)
	}
	if cfg.Function != meta.AggregateFuncCount && cfg.Field == "" {
		return nil, fmt.Errorf("聚合函数 %s 需要指定field", cfg.Function)
	}
	if cfg.ResultField == "" {
		if cfg.Function == meta.AggregateFuncCount {
			cfg.ResultField = "count"
		} else {
			cfg.ResultField = fmt.Sprintf("%s_%s", cfg.Function, cfg.Field)
		}
	}

	return &cfg, nil
}

// groupState 单个分组的归约状态
type groupState struct {
	key   interface{}
	count int
	sum   float64
	min   float64
	max   float64
	valid int // 可参与数值归约的行数
}

// applyAggregate 应用聚合规则
func (e *Engine) applyAggregate(records []Record, rule *models.TransformationRule) ([]Record, []RowError, error) {
	cfg, err := parseAggregateConfig(rule.Config)
	if err != nil {
		return nil, nil, err
	}

	var rowErrors []RowError
	groups := make(map[string]*groupState)
	order := make([]string, 0)

	for i, record := range records {
		keyValue := record[cfg.GroupBy]
		key := e.converter.ToString(keyValue)

		state, exists := groups[key]
		if !exists {
			state = &groupState{key: keyValue}
			groups[key] = state
			order = append(order, key)
		}
		state.count++

		if cfg.Function == meta.AggregateFuncCount {
			continue
		}

		value, err := cast.ToFloat64E(record[cfg.Field])
		if err != nil {
			rowErrors = append(rowErrors, RowError{
				RowIndex: i,
				Field:    cfg.Field,
				RuleID:   rule.ID,
				Message:  fmt.Sprintf("字段 %s 无法参与数值聚合: %v", cfg.Field, err),
			})
			continue
		}

		if state.valid == 0 {
			state.min = value
			state.max = value
		} else {
			if value < state.min {
				state.min = value
			}
			if value > state.max {
				state.max = value
			}
		}
		state.sum += value
		state.valid++
	}

	result := make([]Record, 0, len(order))
	for _, key := range order {
		state := groups[key]
		row := Record{cfg.GroupBy: state.key}

		switch cfg.Function {
		case meta.AggregateFuncCount:
			row[cfg.ResultField] = state.count
		case meta.AggregateFuncSum:
			row[cfg.ResultField] = state.sum
		case meta.AggregateFuncAvg:
			if state.valid > 0 {
				row[cfg.ResultField] = state.sum / float64(state.valid)
			} else {
				row[cfg.ResultField] = nil
			}
		case meta.AggregateFuncMin:
			if state.valid > 0 {
				row[cfg.ResultField] = state.min
			} else {
				row[cfg.ResultField] = nil
			}
		case meta.AggregateFuncMax:
			if state.valid > 0 {
				row[cfg.ResultField] = state.max
			} else {
				row[cfg.ResultField] = nil
			}
		}

		result = append(result, row)
	}

	return result, rowErrors, nil
}
