/*
 * @module service/transform/engine
 * @description 转换引擎，按序对内存记录批次应用转换规则，行级错误累积不中止整批
 * @architecture 管道模式 - 规则链按列表顺序处理记录批次
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 规则解析 -> 逐条规则应用 -> 行级错误累积 -> 结果输出
 * @rules 仅结构性非法的规则配置导致整体失败；禁用规则跳过；转换引擎不触碰外部状态
 * @dependencies etl-service/service/models, etl-service/service/utils, github.com/spf13/cast
 * @refs service/pipeline/manager.go
 */

package transform

import (
	"context"
	"encoding/json"
	"fmt"

	"etl-service/service/meta"
	"etl-service/service/models"
	"etl-service/service/utils"
)

// Record 单条数据记录
type Record = map[string]interface{}

// RowError 行级错误
type RowError struct {
	RowIndex int    `json:"row_index"`
	Field    string `json:"field,omitempty"`
	RuleID   string `json:"rule_id,omitempty"`
	Message  string `json:"message"`
}

// Result 转换结果
type Result struct {
	Success   bool       `json:"success"`
	Data      []Record   `json:"data"`
	Errors    []RowError `json:"errors,omitempty"`
	ErrorType string     `json:"error_type,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Engine 转换引擎
type Engine struct {
	converter      *utils.DataConverter
	scriptExecutor *ScriptExecutor
}

// NewEngine 创建转换引擎实例
func NewEngine() *Engine {
	return &Engine{
		converter:      utils.NewDataConverter(),
		scriptExecutor: NewScriptExecutor(),
	}
}

// Apply 按列表顺序应用转换规则
func (e *Engine) Apply(ctx context.Context, records []Record, rules []models.TransformationRule) *Result {
	result := &Result{
		Success: true,
		Data:    records,
	}
	if result.Data == nil {
		result.Data = []Record{}
	}

	for _, rule := range rules {
		if !rule.IsEnabled {
			continue
		}

		data, rowErrors, err := e.applyRule(ctx, result.Data, &rule)
		if err != nil {
			// 结构性配置错误对整批致命
			result.Success = false
			result.ErrorType = meta.ErrorTypeConfiguration
			result.Error = fmt.Sprintf("规则 %s 配置无效: %v", rule.Name, err)
			return result
		}

		result.Data = data
		result.Errors = append(result.Errors, rowErrors...)
	}

	return result
}

// applyRule 应用单条规则，返回处理后的批次和行级错误
func (e *Engine) applyRule(ctx context.Context, records []Record, rule *models.TransformationRule) ([]Record, []RowError, error) {
	switch rule.Type {
	case meta.RuleTypeFilter:
		return e.applyFilter(records, rule)
	case meta.RuleTypeMap:
		return e.applyMap(records, rule)
	case meta.RuleTypeConvert:
		return e.applyConvert(records, rule)
	case meta.RuleTypeAggregate:
		return e.applyAggregate(records, rule)
	case meta.RuleTypeCustom:
		return e.applyCustom(ctx, records, rule)
	default:
		return nil, nil, fmt.Errorf("不支持的规则类型: %s", rule.Type)
	}
}

// ValidateRule 校验规则配置的结构完整性，供目录CRUD在保存前调用
func (e *Engine) ValidateRule(rule *models.TransformationRule) error {
	if rule == nil {
		return fmt.Errorf("规则不能为空")
	}
	if !meta.IsValidRuleType(rule.Type) {
		return fmt.Errorf("不支持的规则类型: %s", rule.Type)
	}

	switch rule.Type {
	case meta.RuleTypeFilter:
		_, err := parseFilterConfig(rule.Config)
		return err
	case meta.RuleTypeMap:
		_, err := parseMapConfig(rule.Config)
		return err
	case meta.RuleTypeConvert:
		_, err := parseConvertConfig(rule.Config)
		return err
	case meta.RuleTypeAggregate:
		_, err := parseAggregateConfig(rule.Config)
		return err
	case meta.RuleTypeCustom:
		cfg, err := parseCustomConfig(rule.Config)
		if err != nil {
			return err
		}
		return e.scriptExecutor.Validate(cfg.Script)
	}
	return nil
}

// decodeConfig 将JSONB配置解析到类型专属载荷
func decodeConfig(config models.JSONB, out interface{}) error {
	if config == nil {
		return fmt.Errorf("规则配置不能为空")
	}

	bytes, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("规则配置序列化失败: %w", err)
	}
	if err := json.Unmarshal(bytes, out); err != nil {
		return fmt.Errorf("规则配置解析失败: %w", err)
	}
	return nil
}

// copyRecord 复制单条记录，规则处理不修改输入批次
func copyRecord(record Record) Record {
	copied := make(Record, len(record))
	for k, v := range record {
		copied[k] = v
	}
	return copied
}
