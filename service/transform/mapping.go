/*
 * @module service/transform/mapping
 * @description map与convert规则实现：字段取值映射和字段类型转换
 * @architecture 逐行处理器 - 行级失败不中止整批
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 配置解析 -> 逐行派生新值 -> 失败行置null并记录行级错误
 * @rules 转换失败将目标字段置为null并追加行级错误，整批继续
 * @dependencies etl-service/service/utils
 * @refs engine.go
 */

package transform

import (
	"fmt"

	"etl-service/service/models"
)

// MapConfig map规则配置：从源字段经取值映射派生目标字段
type MapConfig struct {
	SourceField  string                 `json:"source_field"`
	TargetField  string                 `json:"target_field"`
	Mapping      map[string]interface{} `json:"mapping,omitempty"`       // 源值(字符串形式) -> 目标值
	DefaultValue interface{}            `json:"default_value,omitempty"` // 无匹配映射时的默认值
}

// parseMapConfig 解析并校验map规则配置
func parseMapConfig(config models.JSONB) (*MapConfig, error) {
	var cfg MapConfig
	if err := decodeConfig(config, &cfg); err != nil {
		return nil, err
	}

	if cfg.SourceField == "" {
		return nil, fmt.Errorf("map规则缺少source_field")
	}
	if cfg.TargetField == "" {
		cfg.TargetField = cfg.SourceField
	}

	return &cfg, nil
}

// applyMap 应用map规则
func (e *Engine) applyMap(records []Record, rule *models.TransformationRule) ([]Record, []RowError, error) {
	cfg, err := parseMapConfig(rule.Config)
	if err != nil {
		return nil, nil, err
	}

	var rowErrors []RowError
	result := make([]Record, 0, len(records))

	for i, record := range records {
		copied := copyRecord(record)

		source, exists := copied[cfg.SourceField]
		if !exists || source == nil {
			if cfg.DefaultValue != nil {
				copied[cfg.TargetField] = cfg.DefaultValue
			} else {
				copied[cfg.TargetField] = nil
				rowErrors = append(rowErrors, RowError{
					RowIndex: i,
					Field:    cfg.SourceField,
					RuleID:   rule.ID,
					Message:  fmt.Sprintf("源字段 %s 不存在或为空", cfg.SourceField),
				})
			}
			result = append(result, copied)
			continue
		}

		if len(cfg.Mapping) > 0 {
			key := e.converter.ToString(source)
			if mapped, ok := cfg.Mapping[key]; ok {
				copied[cfg.TargetField] = mapped
			} else if cfg.DefaultValue != nil {
				copied[cfg.TargetField] = cfg.DefaultValue
			} else {
				copied[cfg.TargetField] = nil
				rowErrors = append(rowErrors, RowError{
					RowIndex: i,
					Field:    cfg.SourceField,
					RuleID:   rule.ID,
					Message:  fmt.Sprintf("映射表中不存在值 %s", key),
				})
			}
		} else {
			copied[cfg.TargetField] = source
		}

		result = append(result, copied)
	}

	return result, rowErrors, nil
}

// ConvertConfig convert规则配置：字段类型转换
type ConvertConfig struct {
	Field      string `json:"field"`
	TargetType string `json:"target_type"` // string, int, float, bool, time
}

// parseConvertConfig 解析并校验convert规则配置
func parseConvertConfig(config models.JSONB) (*ConvertConfig, error) {
	var cfg ConvertConfig
	if err := decodeConfig(config, &cfg); err != nil {
		return nil, err
	}

	if cfg.Field == "" {
		return nil, fmt.Errorf("convert规则缺少field")
	}
	if cfg.TargetType == "" {
		return nil, fmt.Errorf("convert规则缺少target_type")
	}

	return &cfg, nil
}

// applyConvert 应用convert规则
func (e *Engine) applyConvert(records []Record, rule *models.TransformationRule) ([]Record, []RowError, error) {
	cfg, err := parseConvertConfig(rule.Config)
	if err != nil {
		return nil, nil, err
	}

	var rowErrors []RowError
	result := make([]Record, 0, len(records))

	for i, record := range records {
		copied := copyRecord(record)

		value, exists := copied[cfg.Field]
		if !exists || value == nil {
			copied[cfg.Field] = nil
			rowErrors = append(rowErrors, RowError{
				RowIndex: i,
				Field:    cfg.Field,
				RuleID:   rule.ID,
				Message:  fmt.Sprintf("字段 %s 不存在或为空", cfg.Field),
			})
			result = append(result, copied)
			continue
		}

		converted, convErr := e.converter.ConvertType(value, cfg.TargetType)
		if convErr != nil {
			copied[cfg.Field] = nil
			rowErrors = append(rowErrors, RowError{
				RowIndex: i,
				Field:    cfg.Field,
				RuleID:   rule.ID,
				Message:  fmt.Sprintf("转换为%s失败: %v", cfg.TargetType, convErr),
			})
		} else {
			copied[cfg.Field] = converted
		}

		result = append(result, copied)
	}

	return result, rowErrors, nil
}
